package resolver

import (
	"path/filepath"
	"testing"

	"github.com/stencilhq/stencil/internal/models"
	"github.com/stencilhq/stencil/internal/savefile"
	"github.com/stencilhq/stencil/internal/session"
)

func newTestResolver(t *testing.T) (*Resolver, *session.Manager) {
	t.Helper()
	dir := t.TempDir()
	m := session.NewManager(
		filepath.Join(dir, "state.json"),
		filepath.Join(dir, "globals.json"),
		filepath.Join(dir, "backup.json"),
	)
	return New(m), m
}

func testTemplate() *models.TemplateDefinition {
	return &models.TemplateDefinition{
		Name:         "monthly",
		RelativePath: "reports/monthly",
		Variables: map[string]*models.VariableDefinition{
			"v": {Name: "v", Default: "from-default"},
		},
		VariableOrder: []string{"v"},
	}
}

func testDocument() *savefile.Document {
	doc := savefile.NewDocument("test.save")
	doc.Globals["v"] = "from-save-global"
	doc.General["v"] = "from-general"
	doc.TemplateSections["reports/monthly"] = map[string]any{"v": "from-template"}
	return doc
}

// Each case strips one layer off the top and checks the next one wins.
func TestResolvePrecedence(t *testing.T) {
	r, m := newTestResolver(t)
	tmpl := testTemplate()
	doc := testDocument()

	if err := m.SetVariable("v", "from-user"); err != nil {
		t.Fatal(err)
	}
	if err := m.SetGlobalVariable("v", "from-global"); err != nil {
		t.Fatal(err)
	}

	res := r.Resolve("v", tmpl, doc)
	if res.Source != SourceUserSet || res.Value != "from-user" {
		t.Fatalf("with all layers: %+v, want user_set", res)
	}

	if err := m.UnsetVariable("v"); err != nil {
		t.Fatal(err)
	}
	res = r.Resolve("v", tmpl, doc)
	if res.Source != SourceTemplate || res.Value != "from-template" {
		t.Fatalf("without user value: %+v, want template", res)
	}

	delete(doc.TemplateSections, "reports/monthly")
	res = r.Resolve("v", tmpl, doc)
	if res.Source != SourceDefault || res.Value != "from-default" {
		t.Fatalf("without template section: %+v, want default", res)
	}

	tmpl.Variables["v"].Default = nil
	res = r.Resolve("v", tmpl, doc)
	if res.Source != SourceGeneral || res.Value != "from-general" {
		t.Fatalf("without default: %+v, want general", res)
	}

	delete(doc.General, "v")
	res = r.Resolve("v", tmpl, doc)
	if res.Source != SourceSaveGlobal || res.Value != "from-save-global" {
		t.Fatalf("without general: %+v, want save_global", res)
	}

	delete(doc.Globals, "v")
	res = r.Resolve("v", tmpl, doc)
	if res.Source != SourceGlobal || res.Value != "from-global" {
		t.Fatalf("without save layers: %+v, want global", res)
	}

	if err := m.UnsetGlobalVariable("v"); err != nil {
		t.Fatal(err)
	}
	res = r.Resolve("v", tmpl, doc)
	if res.Source != SourceUnset || res.IsSet() {
		t.Fatalf("with no layers: %+v, want unset", res)
	}
}

// The declared default outranks the save file's [general] and [globals]
// sections; only the template's own section overrides it.
func TestDefaultBeatsGeneralAndSaveGlobals(t *testing.T) {
	r, _ := newTestResolver(t)
	tmpl := testTemplate()

	doc := savefile.NewDocument("test.save")
	doc.General["v"] = "from-general"
	doc.Globals["v"] = "from-save-global"

	res := r.Resolve("v", tmpl, doc)
	if res.Source != SourceDefault || res.Value != "from-default" {
		t.Errorf("Resolve = %+v, want the declared default", res)
	}
}

func TestResolveNilTemplateAndDocument(t *testing.T) {
	r, m := newTestResolver(t)

	res := r.Resolve("v", nil, nil)
	if res.Source != SourceUnset {
		t.Errorf("Resolve with nothing = %+v, want unset", res)
	}

	if err := m.SetGlobalVariable("v", int64(7)); err != nil {
		t.Fatal(err)
	}
	res = r.Resolve("v", nil, nil)
	if res.Source != SourceGlobal || res.Value != int64(7) {
		t.Errorf("Resolve = %+v, want global 7", res)
	}
}

func TestResolveTemplateSectionByNormalizedKey(t *testing.T) {
	r, _ := newTestResolver(t)
	tmpl := testTemplate()
	tmpl.RelativePath = "reports/monthly.template"

	doc := savefile.NewDocument("test.save")
	doc.TemplateSections["reports/monthly"] = map[string]any{"v": "normalized"}

	res := r.Resolve("v", tmpl, doc)
	if res.Source != SourceTemplate || res.Value != "normalized" {
		t.Errorf("Resolve = %+v, want the normalized section value", res)
	}
}

func TestResolveAllInDeclarationOrder(t *testing.T) {
	r, m := newTestResolver(t)
	tmpl := &models.TemplateDefinition{
		RelativePath: "t",
		Variables: map[string]*models.VariableDefinition{
			"c": {Name: "c"},
			"a": {Name: "a"},
			"b": {Name: "b"},
		},
		VariableOrder: []string{"c", "a", "b"},
	}
	if err := m.SetVariable("a", int64(1)); err != nil {
		t.Fatal(err)
	}

	resolutions := r.ResolveAll(tmpl, nil)
	if len(resolutions) != 3 {
		t.Fatalf("len = %d, want 3", len(resolutions))
	}
	for i, want := range []string{"c", "a", "b"} {
		if resolutions[i].Name != want {
			t.Errorf("resolutions[%d] = %s, want %s", i, resolutions[i].Name, want)
		}
	}
	if resolutions[1].Source != SourceUserSet {
		t.Errorf("a source = %s, want user_set", resolutions[1].Source)
	}
	if resolutions[0].Source != SourceUnset || resolutions[2].Source != SourceUnset {
		t.Error("undeclared layers should resolve unset")
	}
}
