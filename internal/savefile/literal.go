package savefile

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseLiteral parses a structural literal: a list [...], a map or set
// {...}, or a tuple (...). Tuples and sets parse as lists. Scalars inside
// a literal may be quoted strings, numbers, booleans or bare words.
//
// This is deliberately not an expression evaluator: only list/map/tuple/
// set syntax is accepted, so save files can never smuggle code through a
// value.
func ParseLiteral(s string) (any, error) {
	p := &literalParser{input: s}
	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("unexpected trailing content at offset %d", p.pos)
	}
	return v, nil
}

type literalParser struct {
	input string
	pos   int
}

func (p *literalParser) parseValue() (any, error) {
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unexpected end of literal")
	}
	switch p.input[p.pos] {
	case '[':
		return p.parseSequence('[', ']')
	case '(':
		return p.parseSequence('(', ')')
	case '{':
		return p.parseBraces()
	case '"', '\'':
		return p.parseQuoted()
	default:
		return p.parseScalar()
	}
}

// parseSequence parses a list or tuple into a []any.
func (p *literalParser) parseSequence(open, close byte) (any, error) {
	if err := p.expect(open); err != nil {
		return nil, err
	}
	items := []any{}
	p.skipSpace()
	if p.peek() == close {
		p.pos++
		return items, nil
	}
	for {
		p.skipSpace()
		item, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case close:
			p.pos++
			return items, nil
		default:
			return nil, fmt.Errorf("expected ',' or '%c' at offset %d", close, p.pos)
		}
	}
}

// parseBraces parses either a map {k: v, ...} or a set {a, b, ...}.
// Sets come back as []any; the empty braces parse as an empty map.
func (p *literalParser) parseBraces() (any, error) {
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return map[string]any{}, nil
	}

	// The first element decides map vs. set: a ':' after it means map.
	first, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()

	if p.peek() == ':' {
		p.pos++
		result := map[string]any{}
		key, err := literalKey(first)
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		result[key] = val
		for {
			p.skipSpace()
			switch p.peek() {
			case ',':
				p.pos++
			case '}':
				p.pos++
				return result, nil
			default:
				return nil, fmt.Errorf("expected ',' or '}' at offset %d", p.pos)
			}
			p.skipSpace()
			k, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			key, err := literalKey(k)
			if err != nil {
				return nil, err
			}
			p.skipSpace()
			if err := p.expect(':'); err != nil {
				return nil, err
			}
			p.skipSpace()
			v, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			result[key] = v
		}
	}

	// Set syntax; represented as a list.
	items := []any{first}
	for {
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return items, nil
		default:
			return nil, fmt.Errorf("expected ',' or '}' at offset %d", p.pos)
		}
		p.skipSpace()
		item, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		p.skipSpace()
	}
}

func (p *literalParser) parseQuoted() (string, error) {
	quote := p.input[p.pos]
	p.pos++
	var sb strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case '\\':
			if p.pos+1 >= len(p.input) {
				return "", fmt.Errorf("unterminated escape at offset %d", p.pos)
			}
			next := p.input[p.pos+1]
			switch next {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\', '"', '\'':
				sb.WriteByte(next)
			default:
				return "", fmt.Errorf("unsupported escape '\\%c' at offset %d", next, p.pos)
			}
			p.pos += 2
		case quote:
			p.pos++
			return sb.String(), nil
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("unterminated string at offset %d", p.pos)
}

// parseScalar reads a bare token up to a structural delimiter and coerces
// numbers and booleans; anything else stays a string.
func (p *literalParser) parseScalar() (any, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == ',' || c == ':' || c == ']' || c == ')' || c == '}' {
			break
		}
		if c == '[' || c == '(' || c == '{' {
			return nil, fmt.Errorf("unexpected '%c' at offset %d", c, p.pos)
		}
		p.pos++
	}
	token := strings.TrimRightFunc(p.input[start:p.pos], unicode.IsSpace)
	if token == "" {
		return nil, fmt.Errorf("empty element at offset %d", start)
	}

	switch strings.ToLower(token) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "none", "null":
		return nil, nil
	}
	if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return f, nil
	}
	return token, nil
}

func (p *literalParser) expect(c byte) error {
	if p.pos >= len(p.input) || p.input[p.pos] != c {
		return fmt.Errorf("expected '%c' at offset %d", c, p.pos)
	}
	p.pos++
	return nil
}

func (p *literalParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

// literalKey converts a parsed map key into its string form.
func literalKey(v any) (string, error) {
	switch key := v.(type) {
	case string:
		return key, nil
	case int64:
		return strconv.FormatInt(key, 10), nil
	case bool:
		return strconv.FormatBool(key), nil
	case float64:
		return strconv.FormatFloat(key, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported map key type %T", v)
	}
}
