package session

import "testing"

func TestWithTemplateCarriesVariables(t *testing.T) {
	st := NewState("a", map[string]any{"x": int64(1)})
	next := st.WithTemplate("b")

	if next.Template != "b" {
		t.Errorf("Template = %q, want b", next.Template)
	}
	if next.Variables["x"] != int64(1) {
		t.Errorf("x = %v, want 1", next.Variables["x"])
	}
	if next.Timestamp == st.Timestamp && st.Timestamp != "" {
		t.Error("timestamp not refreshed")
	}
}

func TestCloneIsDeep(t *testing.T) {
	st := NewState("a", map[string]any{
		"list": []any{int64(1), int64(2)},
		"map":  map[string]any{"k": "v"},
	})
	clone := st.Clone()

	clone.Variables["list"].([]any)[0] = int64(99)
	clone.Variables["map"].(map[string]any)["k"] = "changed"

	if st.Variables["list"].([]any)[0] != int64(1) {
		t.Error("nested slice shared between clone and original")
	}
	if st.Variables["map"].(map[string]any)["k"] != "v" {
		t.Error("nested map shared between clone and original")
	}
}
