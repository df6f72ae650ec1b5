package googlevision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func TestAnalyzeFiltersByConfidence(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key: %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"responses": []map[string]any{{
				"labelAnnotations": []map[string]any{
					{"description": "Swimming pool", "score": 0.96},
					{"description": "Resort", "score": 0.80},
					{"description": "Maybe a chair", "score": 0.50},
				},
				"localizedObjectAnnotations": []map[string]any{
					{"name": "Umbrella", "score": 0.70},
					{"name": "Person", "score": 0.30},
				},
				"textAnnotations": []map[string]any{
					{"description": "POOL BAR\nOPEN"},
					{"description": "POOL"},
					{"description": "BAR"},
					{"description": "TWO WORDS"},
				},
			}},
		})
	}))
	defer ts.Close()

	a := &Annotate{ApiKey: "test-key", Endpoint: ts.URL, Timeout: 5 * time.Second}
	out, err := a.Analyze(context.Background(), "https://cf.bstatic.com/xdata/images/hotel/a1.jpg")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if want := []string{"Swimming pool", "Resort"}; !reflect.DeepEqual(out.Labels, want) {
		t.Fatalf("labels: got %v, want %v", out.Labels, want)
	}
	if want := []string{"Umbrella"}; !reflect.DeepEqual(out.Objects, want) {
		t.Fatalf("objects: got %v, want %v", out.Objects, want)
	}
	// the full text block and multi-word annotations never become tags
	if want := []string{"POOL", "BAR"}; !reflect.DeepEqual(out.Text, want) {
		t.Fatalf("text: got %v, want %v", out.Text, want)
	}
}

func TestAnalyzeBackendError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"responses": []map[string]any{{
				"error": map[string]any{"message": "image not accessible"},
			}},
		})
	}))
	defer ts.Close()

	a := &Annotate{ApiKey: "test-key", Endpoint: ts.URL, Timeout: 5 * time.Second}
	if _, err := a.Analyze(context.Background(), "https://cf.bstatic.com/xdata/images/hotel/a1.jpg"); err == nil {
		t.Fatal("expected error")
	}
}

func TestAnalyzeHTTPFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	a := &Annotate{ApiKey: "bad-key", Endpoint: ts.URL, Timeout: 5 * time.Second}
	if _, err := a.Analyze(context.Background(), "https://cf.bstatic.com/xdata/images/hotel/a1.jpg"); err == nil {
		t.Fatal("expected error")
	}
}

func TestAnalyzeRejectsBlankURL(t *testing.T) {
	a := &Annotate{ApiKey: "test-key", Timeout: 5 * time.Second}
	if _, err := a.Analyze(context.Background(), "   "); err == nil {
		t.Fatal("expected error")
	}
}
