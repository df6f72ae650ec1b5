package helpers

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrNoJSON is returned when no balanced JSON value can be located in the input.
var ErrNoJSON = errors.New("no balanced JSON object/array found")

// ExtractJSON finds and returns the first JSON object or array embedded in s.
// Model output rarely arrives as clean JSON: it may be wrapped in a Markdown
// code fence (``` or ~~~, with or without a language tag), prefixed with prose,
// or carry a BOM. The scanner unwraps a leading fence if present, then extracts
// the first balanced {...} or [...], ignoring braces inside string literals.
func ExtractJSON(s string) (string, error) {
	s = trimBOM(strings.TrimSpace(s))

	if inner, ok := stripCodeFence(s); ok {
		s = strings.TrimSpace(inner)
	}

	// Fast path: the content already starts with a JSON value.
	if len(s) > 0 && (s[0] == '{' || s[0] == '[') {
		if out, ok := balancedFrom(s, 0); ok {
			return out, nil
		}
	}

	// Otherwise scan for the first opener that yields a balanced value.
	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			if out, ok := balancedFrom(s, i); ok {
				return out, nil
			}
		}
	}

	return "", ErrNoJSON
}

// stripCodeFence unwraps the first fenced code block when s starts with a
// fence. The opening fence may carry a language tag (```json); the tag line is
// discarded. Returns ok=false when s is not fenced or the fence never closes.
func stripCodeFence(s string) (inner string, ok bool) {
	trim := strings.TrimLeft(s, "\n\r\t ")
	var fence string
	switch {
	case strings.HasPrefix(trim, "```"):
		fence = "```"
	case strings.HasPrefix(trim, "~~~"):
		fence = "~~~"
	default:
		return "", false
	}

	rest := trim[len(fence):]
	nl := strings.IndexByte(rest, '\n')
	if nl == -1 {
		return "", false
	}
	rest = rest[nl+1:]

	if end := strings.Index(rest, fence); end != -1 {
		return rest[:end], true
	}
	return "", false
}

// balancedFrom extracts a balanced JSON value starting at startIdx, handling
// nested containers, string literals and escape sequences.
func balancedFrom(s string, startIdx int) (string, bool) {
	if startIdx < 0 || startIdx >= len(s) {
		return "", false
	}
	open := s[startIdx]
	if open != '{' && open != '[' {
		return "", false
	}

	var (
		stack    []byte
		inString bool
		escape   bool
	)
	stack = append(stack, open)

	for i := startIdx + 1; i < len(s); i++ {
		c := s[i]

		if inString {
			if escape {
				escape = false
				continue
			}
			switch c {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			top := stack[len(stack)-1]
			if (top == '{' && c != '}') || (top == '[' && c != ']') {
				return "", false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[startIdx : i+1], true
			}
		}
	}
	return "", false
}

func trimBOM(s string) string {
	if strings.HasPrefix(s, "\uFEFF") {
		return strings.TrimPrefix(s, "\uFEFF")
	}
	if len(s) >= 3 && s[0] == 0xEF && s[1] == 0xBB && s[2] == 0xBF && utf8.ValidString(s[3:]) {
		return s[3:]
	}
	return s
}
