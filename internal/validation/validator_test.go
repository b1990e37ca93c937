package validation

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	full := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestValidateDetectsAmbiguousBasenames(t *testing.T) {
	templates := t.TempDir()
	saves := t.TempDir()

	// "invoice" is ambiguous once extensions are stripped.
	touch(t, templates, "invoice.template")
	touch(t, templates, "invoice.txt")
	touch(t, templates, "report.template")
	touch(t, saves, "client.save")

	v := NewValidator(templates, saves)
	result, err := v.Validate()
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Duplicates) != 1 {
		t.Fatalf("Duplicates = %+v, want one group", result.Duplicates)
	}
	group := result.Duplicates[0]
	if group.Basename != "invoice" || len(group.Files) != 2 {
		t.Errorf("group = %+v", group)
	}
	if result.TemplatesChecked != 3 || result.SavesChecked != 1 {
		t.Errorf("counts = %d templates, %d saves", result.TemplatesChecked, result.SavesChecked)
	}
	if !result.HasDuplicates() {
		t.Error("HasDuplicates() = false")
	}
}

func TestValidateSameBasenameDifferentDirectories(t *testing.T) {
	templates := t.TempDir()
	saves := t.TempDir()

	touch(t, templates, "invoice.template")
	touch(t, templates, "archive/invoice.template")

	v := NewValidator(templates, saves)
	result, err := v.Validate()
	if err != nil {
		t.Fatal(err)
	}
	if result.HasDuplicates() {
		t.Errorf("Duplicates = %+v, want none across directories", result.Duplicates)
	}
}

func TestValidateMissingDirectories(t *testing.T) {
	v := NewValidator(filepath.Join(t.TempDir(), "gone"), filepath.Join(t.TempDir(), "alsogone"))
	result, err := v.Validate()
	if err != nil {
		t.Fatal(err)
	}
	if result.HasDuplicates() || result.TemplatesChecked != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
}
