package renderer

import (
	"strings"
	"testing"

	"github.com/stencilhq/stencil/internal/models"
	"github.com/stencilhq/stencil/internal/resolver"
)

func defn(content string) *models.TemplateDefinition {
	return &models.TemplateDefinition{Name: "test", Content: content}
}

func TestRender(t *testing.T) {
	r := New()
	result := r.Render(defn("Hello {{.name}}, you owe {{.amount}}."), []resolver.Resolution{
		{Name: "name", Value: "ACME", Source: resolver.SourceUserSet},
		{Name: "amount", Value: int64(100), Source: resolver.SourceDefault},
	})

	if !result.Success {
		t.Fatalf("render failed: %v", result.Err)
	}
	if result.Output != "Hello ACME, you owe 100." {
		t.Errorf("Output = %q", result.Output)
	}
	if len(result.UndefinedVariables) != 0 {
		t.Errorf("UndefinedVariables = %v", result.UndefinedVariables)
	}
}

func TestRenderUndefinedVariables(t *testing.T) {
	r := New()
	result := r.Render(defn("{{.b}} and {{.a}}"), []resolver.Resolution{
		{Name: "b", Source: resolver.SourceUnset},
		{Name: "a", Source: resolver.SourceUnset},
	})

	if !result.Success {
		t.Fatalf("render failed: %v", result.Err)
	}
	if result.Output != "<<b>> and <<a>>" {
		t.Errorf("Output = %q", result.Output)
	}
	// Reported sorted regardless of declaration order.
	if len(result.UndefinedVariables) != 2 ||
		result.UndefinedVariables[0] != "a" || result.UndefinedVariables[1] != "b" {
		t.Errorf("UndefinedVariables = %v, want [a b]", result.UndefinedVariables)
	}
}

func TestRenderParseError(t *testing.T) {
	r := New()
	result := r.Render(defn("{{.unclosed"), nil)
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Err == nil || !strings.Contains(result.Err.Error(), "parse") {
		t.Errorf("Err = %v", result.Err)
	}
}
