package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// testHookFailBeforeRename is a test-only hook used to simulate a write
// failure during the critical window between writing the temp file and
// renaming it over the target.
var testHookFailBeforeRename func() error

// SetTestHookFailBeforeRename installs the failure-injection hook.
// Pass nil to clear it.
func SetTestHookFailBeforeRename(hook func() error) {
	testHookFailBeforeRename = hook
}

// AtomicWriteFile safely writes data by using a temporary file and an
// atomic rename. A crash at any point leaves either the old or the new
// content fully present, never a partial write. On failure the temp file
// is removed and the previously persisted file is untouched.
func AtomicWriteFile(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Temp file in the same directory so the rename stays on one filesystem.
	tempFile, err := os.CreateTemp(dir, ".tmp-stencil-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	var success bool
	defer func() {
		if !success {
			if err := os.Remove(tempFile.Name()); err != nil {
				slog.Warn("failed to remove temporary file", "path", tempFile.Name(), "error", err)
			}
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file %q: %w", tempFile.Name(), err)
	}
	if err := os.Chmod(tempFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if testHookFailBeforeRename != nil {
		if err := testHookFailBeforeRename(); err != nil {
			return err
		}
	}

	if err := os.Rename(tempFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}

// CopyFile copies src to dst verbatim using the same atomic discipline.
// Used for whole-document state backups.
func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	return AtomicWriteFile(dst, data, 0644)
}
