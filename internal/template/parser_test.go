package template

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/stencilhq/stencil/internal/errors"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const invoiceTemplate = `VARS:
- client_name:
    description: Client to bill
    default: Acme Corp
- amount:
    default: 100
    options: [100, 200, 500]
- project_id
### TEMPLATE ###
Invoice for {{.client_name}}: {{.amount}}
`

func TestParse(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "invoice.template", invoiceTemplate)

	p := NewParser(dir)
	tmpl, err := p.Parse("invoice.template")
	if err != nil {
		t.Fatal(err)
	}

	if tmpl.Name != "invoice.template" {
		t.Errorf("Name = %q", tmpl.Name)
	}
	wantOrder := []string{"client_name", "amount", "project_id"}
	if len(tmpl.VariableOrder) != len(wantOrder) {
		t.Fatalf("VariableOrder = %v, want %v", tmpl.VariableOrder, wantOrder)
	}
	for i, name := range wantOrder {
		if tmpl.VariableOrder[i] != name {
			t.Errorf("VariableOrder[%d] = %q, want %q", i, tmpl.VariableOrder[i], name)
		}
	}

	client := tmpl.GetVariable("client_name")
	if client == nil || client.Description != "Client to bill" || client.Default != "Acme Corp" {
		t.Errorf("client_name = %+v", client)
	}
	amount := tmpl.GetVariable("amount")
	if amount == nil || amount.Default != 100 || len(amount.Options) != 3 {
		t.Errorf("amount = %+v", amount)
	}
	project := tmpl.GetVariable("project_id")
	if project == nil || project.Default != nil {
		t.Errorf("project_id = %+v", project)
	}

	if tmpl.Content != "Invoice for {{.client_name}}: {{.amount}}\n" {
		t.Errorf("Content = %q", tmpl.Content)
	}
}

func TestParseExtensionOptional(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "invoice.template", invoiceTemplate)

	p := NewParser(dir)
	withExt, err := p.Parse("invoice.template")
	if err != nil {
		t.Fatal(err)
	}
	without, err := p.Parse("invoice")
	if err != nil {
		t.Fatal(err)
	}
	if withExt.Path != without.Path {
		t.Errorf("paths differ: %q vs %q", withExt.Path, without.Path)
	}
}

func TestParseNoVarsHeader(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "plain.template", "Some free text\n### TEMPLATE ###\nBody here\n")

	p := NewParser(dir)
	tmpl, err := p.Parse("plain")
	if err != nil {
		t.Fatal(err)
	}
	if len(tmpl.Variables) != 0 {
		t.Errorf("Variables = %v, want none", tmpl.Variables)
	}
	if tmpl.Content != "Body here\n" {
		t.Errorf("Content = %q", tmpl.Content)
	}
}

func TestParseMarkerCaseAndSpacing(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "loose.template", "VARS:\n- x\n###   template   ###\nbody")

	p := NewParser(dir)
	tmpl, err := p.Parse("loose")
	if err != nil {
		t.Fatal(err)
	}
	if tmpl.Content != "body" {
		t.Errorf("Content = %q", tmpl.Content)
	}
}

func TestParseErrors(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "nomarker.template", "VARS:\n- x\nno marker here\n")
	writeTemplate(t, dir, "twomarkers.template", "### TEMPLATE ###\na\n### TEMPLATE ###\nb\n")
	writeTemplate(t, dir, "dup.template", "VARS:\n- x\n- x\n### TEMPLATE ###\nbody\n")
	writeTemplate(t, dir, "badkey.template", "VARS:\n- x:\n    color: red\n### TEMPLATE ###\nbody\n")
	writeTemplate(t, dir, "notalist.template", "VARS:\nx: 1\n### TEMPLATE ###\nbody\n")

	p := NewParser(dir)

	cases := []struct {
		path string
		code apperrors.ErrorCode
	}{
		{"missing", apperrors.ErrCodeTemplateNotFound},
		{"nomarker", apperrors.ErrCodeTemplateFormat},
		{"twomarkers", apperrors.ErrCodeTemplateFormat},
		{"dup", apperrors.ErrCodeVariableDef},
		{"badkey", apperrors.ErrCodeVariableDef},
		{"notalist", apperrors.ErrCodeVariableDef},
	}
	for _, tc := range cases {
		_, err := p.Parse(tc.path)
		if !apperrors.IsCode(err, tc.code) {
			t.Errorf("Parse(%q) err = %v, want code %s", tc.path, err, tc.code)
		}
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "b.template", "### TEMPLATE ###\n")
	writeTemplate(t, dir, "sub/a.template", "### TEMPLATE ###\n")
	writeTemplate(t, dir, "notes.txt", "not a template")

	p := NewParser(dir)
	templates, err := p.List()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"b.template", "sub/a.template"}
	if len(templates) != len(want) {
		t.Fatalf("List() = %v, want %v", templates, want)
	}
	for i := range want {
		if templates[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, templates[i], want[i])
		}
	}
}
