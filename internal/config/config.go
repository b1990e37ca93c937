// Package config centralizes paths and behavioral settings for stencil.
// Every location supports an environment-variable override so the tool can
// be pointed at a different library or state directory per deployment.
package config

import (
	"os"
	"path/filepath"
)

// Version is the application version string.
const Version = "1.0.0"

// AppName is the user-facing application name.
const AppName = "stencil"

// Config holds resolved filesystem locations and shell settings.
type Config struct {
	// TemplatesDir contains .template files (subdirectories allowed).
	TemplatesDir string
	// SavesDir contains named save files (INI format).
	SavesDir string
	// StateFile is the JSON session state document.
	StateFile string
	// BackupFile receives a verbatim copy of StateFile once per process start.
	BackupFile string
	// GlobalsFile persists cross-session global variables (JSON).
	GlobalsFile string
	// HistoryFile is the append-only command audit log.
	HistoryFile string

	// Prompt is the interactive shell prompt; %s receives the current
	// template suffix (" (reports/monthly)") or the empty string.
	Prompt string

	// ShowConfigOnStartup prints resolved paths when the shell starts.
	ShowConfigOnStartup bool
	// ShowUndefinedSummary lists undefined variables after each render.
	ShowUndefinedSummary bool
}

// Aliases maps canonical command names to their shorthand forms.
var Aliases = map[string][]string{
	"render": {"r", "re"},
	"ls":     {"ll"},
	"use":    {"load_template"},
	"revert": {"back"},
}

// New builds a Config from environment overrides, falling back to
// defaults relative to the working directory.
func New() *Config {
	return &Config{
		TemplatesDir:         envOr("STENCIL_TEMPLATES", "./templates"),
		SavesDir:             envOr("STENCIL_SAVES", "./saves"),
		StateFile:            envOr("STENCIL_STATE", "./.state"),
		BackupFile:           envOr("STENCIL_BACKUP", "./.state.backup"),
		GlobalsFile:          envOr("STENCIL_GLOBALS", "./.globals"),
		HistoryFile:          envOr("STENCIL_HISTORY", "./.history"),
		Prompt:               "stencil%s > ",
		ShowConfigOnStartup:  true,
		ShowUndefinedSummary: true,
	}
}

// ResolveAlias maps an alias back to its canonical command name.
// Unknown names are returned unchanged.
func ResolveAlias(command string) string {
	for canonical, aliases := range Aliases {
		for _, alias := range aliases {
			if command == alias {
				return canonical
			}
		}
	}
	return command
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return filepath.Clean(v)
	}
	return fallback
}
