// Package history provides append-only command history logging.
// Each line has the form "2024-01-15 10:00:00 | use reports/monthly".
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one logged command.
type Entry struct {
	Timestamp string
	Command   string
}

// Logger appends executed commands to a plain-text audit log.
type Logger struct {
	historyFile string
}

// NewLogger creates a logger writing to historyFile.
func NewLogger(historyFile string) *Logger {
	return &Logger{historyFile: historyFile}
}

// LogCommand appends one command with a timestamp. Logging is best-effort
// for the caller: a failed write must not abort the command itself, so
// callers typically ignore the returned error after warning.
func (l *Logger) LogCommand(command string) error {
	if err := os.MkdirAll(filepath.Dir(l.historyFile), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	f, err := os.OpenFile(l.historyFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s | %s\n", time.Now().Format("2006-01-02 15:04:05"), command)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write history entry: %w", err)
	}
	return f.Sync()
}

// RecentCommands returns the last count entries in chronological order.
// A missing or unreadable history file yields an empty slice.
func (l *Logger) RecentCommands(count int) []Entry {
	data, err := os.ReadFile(l.historyFile)
	if err != nil {
		return nil
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > count {
		lines = lines[len(lines)-count:]
	}

	var entries []Entry
	for _, line := range lines {
		timestamp, command, found := strings.Cut(line, " | ")
		if !found || strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, Entry{Timestamp: timestamp, Command: command})
	}
	return entries
}

// Clear truncates the history log.
func (l *Logger) Clear() error {
	if err := os.MkdirAll(filepath.Dir(l.historyFile), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	return os.WriteFile(l.historyFile, nil, 0644)
}
