package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stencilhq/stencil/internal/config"
	apperrors "github.com/stencilhq/stencil/internal/errors"
	"github.com/stencilhq/stencil/internal/history"
	"github.com/stencilhq/stencil/internal/service"
)

func TestSplitArgs(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"render", []string{"render"}},
		{"set x 1", []string{"set", "x", "1"}},
		{`set name "ACME Corp"`, []string{"set", "name", "ACME Corp"}},
		{"set name 'single quoted'", []string{"set", "name", "single quoted"}},
		{`set x "a 'b' c"`, []string{"set", "x", "a 'b' c"}},
		{"use  invoice   client.save", []string{"use", "invoice", "client.save"}},
		{`set empty ""`, []string{"set", "empty", ""}},
	}
	for _, tc := range cases {
		got, err := SplitArgs(tc.in)
		if err != nil {
			t.Errorf("SplitArgs(%q) error: %v", tc.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SplitArgs(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}

	if _, err := SplitArgs(`set x "unterminated`); err == nil {
		t.Error("unterminated quote accepted")
	}
}

func TestFormatError(t *testing.T) {
	usage := apperrors.NewAppError(apperrors.ErrCodeInvalidInput, "Usage: set <variable> <value>")
	if got := FormatError(usage); got != "Usage: set <variable> <value>" {
		t.Errorf("usage error = %q", got)
	}

	notFound := apperrors.NotFoundError("save file x.save")
	if got := FormatError(notFound); !strings.Contains(got, "FILE_NOT_FOUND") {
		t.Errorf("app error = %q, want code included", got)
	}

	// Foreign errors keep their message without an error code.
	if got := FormatError(errors.New("disk on fire")); got != "Error: disk on fire" {
		t.Errorf("plain error = %q", got)
	}
}

func newTestCLI(t *testing.T) (*CLI, *bytes.Buffer, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		TemplatesDir: filepath.Join(dir, "templates"),
		SavesDir:     filepath.Join(dir, "saves"),
		StateFile:    filepath.Join(dir, ".state"),
		BackupFile:   filepath.Join(dir, ".state.backup"),
		GlobalsFile:  filepath.Join(dir, ".globals"),
		HistoryFile:  filepath.Join(dir, ".history"),
		Prompt:       "stencil%s > ",
	}
	if err := os.MkdirAll(cfg.TemplatesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "VARS:\n- name\n### TEMPLATE ###\nHello {{.name}}\n"
	if err := os.WriteFile(filepath.Join(cfg.TemplatesDir, "greet.template"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := service.New(cfg)
	runner := NewCLI(svc, history.NewLogger(cfg.HistoryFile))
	var out bytes.Buffer
	runner.SetOutput(&out)
	return runner, &out, cfg
}

func TestExecuteLine(t *testing.T) {
	runner, out, cfg := newTestCLI(t)

	for _, line := range []string{
		"use greet",
		`set name "World"`,
		"render",
	} {
		if err := runner.ExecuteLine(line); err != nil {
			t.Fatalf("ExecuteLine(%q): %v", line, err)
		}
	}
	if !strings.Contains(out.String(), "Hello World") {
		t.Errorf("output = %q", out.String())
	}

	// Every command lands in the audit log, alias-resolved.
	logger := history.NewLogger(cfg.HistoryFile)
	entries := logger.RecentCommands(10)
	if len(entries) != 3 {
		t.Fatalf("history entries = %d", len(entries))
	}
	if entries[2].Command != "render" {
		t.Errorf("last entry = %q", entries[2].Command)
	}
}

func TestExecuteResolvesAliases(t *testing.T) {
	runner, out, _ := newTestCLI(t)

	if err := runner.ExecuteLine("use greet"); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	// "r" is an alias for render.
	if err := runner.ExecuteLine("r"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Hello <<name>>") {
		t.Errorf("output = %q", out.String())
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	runner, _, _ := newTestCLI(t)
	err := runner.ExecuteLine("frobnicate")
	if !apperrors.IsCode(err, apperrors.ErrCodeCommandNotFound) {
		t.Errorf("err = %v, want COMMAND_NOT_FOUND", err)
	}
}

func TestConfirmDeclinedLeavesSaveUntouched(t *testing.T) {
	runner, out, cfg := newTestCLI(t)

	for _, line := range []string{"use greet", "set name A", "save out.save"} {
		if err := runner.ExecuteLine(line); err != nil {
			t.Fatal(err)
		}
	}
	savePath := filepath.Join(cfg.SavesDir, "out.save")
	before, err := os.ReadFile(savePath)
	if err != nil {
		t.Fatal(err)
	}

	// Second save prompts; declining must not touch the file.
	runner.SetInput(strings.NewReader("n\n"))
	if err := runner.ExecuteLine("set name B"); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := runner.ExecuteLine("save out.save"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "cancelled") && !strings.Contains(out.String(), "Cancelled") {
		t.Errorf("output = %q, want cancellation notice", out.String())
	}

	after, err := os.ReadFile(savePath)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("save file changed after declined confirmation")
	}

	// Accepting merges the new value in.
	runner.SetInput(strings.NewReader("y\n"))
	if err := runner.ExecuteLine("save out.save"); err != nil {
		t.Fatal(err)
	}
	merged, err := os.ReadFile(savePath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(merged), "B") {
		t.Errorf("merged save = %q, want new value present", merged)
	}
}
