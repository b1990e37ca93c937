package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sub", "file.json")

	if err := AtomicWriteFile(target, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "first" {
		t.Errorf("content = %q", data)
	}

	// Overwrite works and no temp files are left behind.
	if err := AtomicWriteFile(target, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("leftover files: %v", entries)
	}
}

func TestAtomicWriteFailureKeepsOldContent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "file.json")
	if err := AtomicWriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	SetTestHookFailBeforeRename(func() error { return errors.New("boom") })
	defer SetTestHookFailBeforeRename(nil)

	if err := AtomicWriteFile(target, []byte("new"), 0o644); err == nil {
		t.Fatal("expected injected failure")
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "old" {
		t.Errorf("content = %q, want old content preserved", data)
	}

	// The failed attempt's temp file was cleaned up.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("leftover files: %v", entries)
	}
}

func TestDocumentStoreRoundTrip(t *testing.T) {
	store := NewDocumentStore(filepath.Join(t.TempDir(), "doc.json"))
	if store.Exists() {
		t.Error("Exists() before write")
	}

	in := map[string]any{"count": int64(3), "rate": 0.5, "name": "x"}
	if err := store.Write(in); err != nil {
		t.Fatal(err)
	}
	if !store.Exists() {
		t.Error("Exists() after write")
	}

	var out map[string]any
	if err := store.Read(&out); err != nil {
		t.Fatal(err)
	}
	normalized := NormalizeVariables(out)
	if normalized["count"] != int64(3) {
		t.Errorf("count = %v (%T), want int64", normalized["count"], normalized["count"])
	}
	if normalized["rate"] != 0.5 {
		t.Errorf("rate = %v (%T)", normalized["rate"], normalized["rate"])
	}
}

func TestDocumentStoreMissingFile(t *testing.T) {
	store := NewDocumentStore(filepath.Join(t.TempDir(), "absent.json"))
	var v map[string]any
	if err := store.Read(&v); !os.IsNotExist(err) {
		t.Errorf("err = %v, want not-exist", err)
	}
}

func TestNormalizeValueNested(t *testing.T) {
	v := map[string]any{
		"items": []any{json.Number("1"), json.Number("2.5")},
		"inner": map[string]any{"n": json.Number("7")},
	}
	got := NormalizeValue(v).(map[string]any)
	items := got["items"].([]any)
	if items[0] != int64(1) || items[1] != 2.5 {
		t.Errorf("items = %v", items)
	}
	if got["inner"].(map[string]any)["n"] != int64(7) {
		t.Errorf("inner = %v", got["inner"])
	}
}
