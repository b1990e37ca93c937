package history

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestLogAndRecall(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(filepath.Join(dir, "nested", "history.log"))

	for _, cmd := range []string{"use invoice", "set x 1", "render"} {
		if err := l.LogCommand(cmd); err != nil {
			t.Fatal(err)
		}
	}

	entries := l.RecentCommands(2)
	if len(entries) != 2 {
		t.Fatalf("RecentCommands(2) = %d entries", len(entries))
	}
	if entries[0].Command != "set x 1" || entries[1].Command != "render" {
		t.Errorf("entries = %+v", entries)
	}

	// Each line is "YYYY-MM-DD HH:MM:SS | command".
	data, err := os.ReadFile(filepath.Join(dir, "nested", "history.log"))
	if err != nil {
		t.Fatal(err)
	}
	linePattern := regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} \| .+$`)
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if !linePattern.MatchString(line) {
			t.Errorf("malformed line %q", line)
		}
	}
}

func TestRecentCommandsMissingFile(t *testing.T) {
	l := NewLogger(filepath.Join(t.TempDir(), "absent.log"))
	if entries := l.RecentCommands(10); len(entries) != 0 {
		t.Errorf("entries = %v, want none", entries)
	}
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(filepath.Join(dir, "history.log"))
	if err := l.LogCommand("use invoice"); err != nil {
		t.Fatal(err)
	}
	if err := l.Clear(); err != nil {
		t.Fatal(err)
	}
	if entries := l.RecentCommands(10); len(entries) != 0 {
		t.Errorf("entries after clear = %v", entries)
	}
}
