package session

import (
	"fmt"
	"time"
)

// State is one immutable snapshot of the session: the selected template
// identifier, the variable assignments, and the time the snapshot was
// taken. Mutating operations on the Manager always produce a new State;
// none are modified in place. History entries and the toggle slot hold
// independent owned copies, never aliases.
type State struct {
	// Template is the current template identifier, empty when no template
	// is selected.
	Template string
	// Variables holds the session's explicit variable assignments.
	Variables map[string]any
	// Timestamp is an RFC 3339 timestamp of when this snapshot was created.
	Timestamp string
}

// NewState creates a snapshot with a fresh timestamp. The variable map is
// copied, so the caller's map stays independent.
func NewState(template string, vars map[string]any) State {
	return State{
		Template:  template,
		Variables: cloneVariables(vars),
		Timestamp: newTimestamp(),
	}
}

// WithTemplate returns a copy of s pointing at template, carrying over the
// variable map, with a fresh timestamp.
func (s State) WithTemplate(template string) State {
	return State{
		Template:  template,
		Variables: cloneVariables(s.Variables),
		Timestamp: newTimestamp(),
	}
}

// WithVariables returns a copy of s with the variable map replaced and a
// fresh timestamp.
func (s State) WithVariables(vars map[string]any) State {
	return State{
		Template:  s.Template,
		Variables: cloneVariables(vars),
		Timestamp: newTimestamp(),
	}
}

// Clone returns a deep copy of s. Used when a snapshot crosses an
// ownership boundary (history push, toggle slot).
func (s State) Clone() State {
	return State{
		Template:  s.Template,
		Variables: cloneVariables(s.Variables),
		Timestamp: s.Timestamp,
	}
}

func (s State) String() string {
	template := s.Template
	if template == "" {
		template = "none"
	}
	return fmt.Sprintf("State(template=%q, variables=%d)", template, len(s.Variables))
}

func newTimestamp() string {
	return time.Now().Format(time.RFC3339Nano)
}

// cloneVariables deep-copies a variable map. Values may be nested slices
// and maps (structural literals from save files), so the copy recurses.
func cloneVariables(vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
