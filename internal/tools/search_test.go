package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ashutoshrp06/search-agent/pkg/models"
)

func TestSearchTool_Execute(t *testing.T) {
	var got searchRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"query": "nobel physics 2024",
			"answer": "John Hopfield and Geoffrey Hinton.",
			"results": [
				{"title": "Press release", "url": "https://nobelprize.org/a", "content": "`+strings.Repeat("x", 600)+`", "score": 0.9},
				{"title": "Coverage", "url": "https://example.com/b", "content": "short", "score": 0.5}
			]
		}`)
	}))
	defer srv.Close()

	tool := NewSearchTool(SearchConfig{APIKey: "tvly-test", BaseURL: srv.URL})
	d := newDispatcher(tool)

	result := d.Execute(context.Background(), models.ToolCall{
		ID:        "call_1",
		Name:      "web_search",
		Arguments: `{"query":"nobel physics 2024","time_range":"year"}`,
	})
	if !result.Success {
		t.Fatalf("expected success, got %s", result.Error)
	}

	if auth != "Bearer tvly-test" {
		t.Errorf("unexpected auth header %q", auth)
	}
	if got.Query != "nobel physics 2024" || got.MaxResults != 3 || got.TimeRange != "year" || got.IncludeAnswer != "advanced" {
		t.Errorf("unexpected request %+v", got)
	}

	out := result.Output
	for _, want := range []string{
		"Search: nobel physics 2024",
		"Answer: John Hopfield and Geoffrey Hinton.",
		"1. Press release",
		"URL: https://nobelprize.org/a",
		strings.Repeat("x", 500) + "...",
		"2. Coverage",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, strings.Repeat("x", 501)) {
		t.Error("expected content to be truncated to 500 characters")
	}
}

func TestSearchTool_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"query":"zzz","results":[]}`)
	}))
	defer srv.Close()

	tool := NewSearchTool(SearchConfig{APIKey: "k", BaseURL: srv.URL})
	out, err := tool.Execute(context.Background(), map[string]any{"query": "zzz"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "no results found for 'zzz'" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSearchTool_ClampsMaxResults(t *testing.T) {
	var got searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"results":[]}`)
	}))
	defer srv.Close()

	tool := NewSearchTool(SearchConfig{APIKey: "k", BaseURL: srv.URL})
	tool.Execute(context.Background(), map[string]any{"query": "q", "max_results": float64(50)})
	if got.MaxResults != maxSearchResults {
		t.Fatalf("expected max_results clamped to %d, got %d", maxSearchResults, got.MaxResults)
	}
}

func TestSearchTool_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":{"error":"Unauthorized: missing or invalid API key."}}`)
	}))
	defer srv.Close()

	d := newDispatcher(NewSearchTool(SearchConfig{APIKey: "bad", BaseURL: srv.URL}))
	result := d.Execute(context.Background(), models.ToolCall{Name: "web_search", Arguments: `{"query":"q"}`})

	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "tool web_search failed") || !strings.Contains(result.Error, "invalid API key") {
		t.Fatalf("unexpected error text %q", result.Error)
	}
}

func TestSearchTool_Schema(t *testing.T) {
	schema := Schema(NewSearchTool(SearchConfig{}))
	props := schema.Parameters["properties"].(map[string]any)
	for _, name := range []string{"query", "max_results", "time_range", "include_answer", "include_favicon"} {
		if _, ok := props[name]; !ok {
			t.Errorf("missing property %s", name)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		input    string
		n        int
		expected string
	}{
		{"hello", 10, "hello"},
		{"hello world", 5, "hello..."},
		{"", 5, ""},
		{"héllo", 2, "hé..."},
	}

	for _, tt := range tests {
		if got := truncateRunes(tt.input, tt.n); got != tt.expected {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.expected)
		}
	}
}
