package savefile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// coerceValues type-coerces every raw INI string in the section.
func coerceValues(raw map[string]string) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = CoerceValue(v)
	}
	return out
}

// CoerceValue converts a raw INI string into a typed value, trying an
// ordered list of parsers; the first match wins:
//
//  1. structural literal (list/map/tuple/set) when the trimmed string
//     opens with '[', '{' or '('; parse failures fall through
//  2. case-insensitive boolean tokens (true/yes/on/1, false/no/off/0)
//  3. integer
//  4. float (exactly one '.', remaining characters digits, '-', 'e', 'E')
//  5. raw string
func CoerceValue(value string) any {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) > 0 {
		switch trimmed[0] {
		case '[', '{', '(':
			if parsed, err := ParseLiteral(trimmed); err == nil {
				return parsed
			}
		}
	}

	switch strings.ToLower(trimmed) {
	case "true", "yes", "on", "1":
		return true
	case "false", "no", "off", "0":
		return false
	}

	if isInteger(value) {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}

	if isFloat(value) {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}

	return value
}

// CoerceScalar is CoerceValue without the structural-literal step.
// Session variables hold scalars only; lists and maps enter the session
// through save files, never through a typed `set`.
func CoerceScalar(value string) any {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "on", "1":
		return true
	case "false", "no", "off", "0":
		return false
	}
	if isInteger(value) {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	if isFloat(value) {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return value
}

func isInteger(s string) bool {
	digits := strings.TrimPrefix(s, "-")
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isFloat(s string) bool {
	if strings.Count(s, ".") != 1 {
		return false
	}
	rest := strings.NewReplacer(".", "", "-", "", "e", "", "E", "").Replace(s)
	if rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatValue renders a typed value back to its INI string form so that
// coercion on the next load reproduces it.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return formatFloat(val)
	case []any:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = formatLiteral(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = k + ": " + formatLiteral(val[k])
		}
		return "{" + strings.Join(pairs, ", ") + "}"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatLiteral renders a value nested inside a structural literal.
// Strings are quoted there so the literal parser can round-trip them.
func formatLiteral(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return FormatValue(v)
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// Keep a '.' so the value coerces back to a float, not an integer.
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
