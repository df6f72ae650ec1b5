package helpers

import (
	"errors"
	"testing"
)

func TestExtractJSONBare(t *testing.T) {
	out, err := ExtractJSON(`[{"a":1},{"a":2}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `[{"a":1},{"a":2}]` {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestExtractJSONBacktickFence(t *testing.T) {
	in := "```json\n[{\"a\": 1}]\n```"
	out, err := ExtractJSON(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `[{"a": 1}]` {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestExtractJSONTildeFence(t *testing.T) {
	in := "~~~\n{\"ok\": true}\n~~~"
	out, err := ExtractJSON(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"ok": true}` {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestExtractJSONSurroundingProse(t *testing.T) {
	in := "Here are your posts!\n[{\"caption\": \"hi\"}]\nEnjoy."
	out, err := ExtractJSON(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `[{"caption": "hi"}]` {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestExtractJSONIgnoresBracesInStrings(t *testing.T) {
	in := `{"caption": "a } tricky ] string", "n": [1, 2]}`
	out, err := ExtractJSON(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != in {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestExtractJSONBOM(t *testing.T) {
	out, err := ExtractJSON("\uFEFF{\"a\":1}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"a":1}` {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestExtractJSONNoJSON(t *testing.T) {
	if _, err := ExtractJSON("nothing structured here"); !errors.Is(err, ErrNoJSON) {
		t.Fatalf("expected ErrNoJSON, got %v", err)
	}
}

func TestExtractJSONUnbalanced(t *testing.T) {
	if _, err := ExtractJSON(`[{"a": 1}`); !errors.Is(err, ErrNoJSON) {
		t.Fatalf("expected ErrNoJSON, got %v", err)
	}
}
