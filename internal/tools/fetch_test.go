package tools

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ashutoshrp06/search-agent/pkg/models"
)

func TestFetchTool_HTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, `<html><head><style>body{color:red}</style><script>alert(1)</script></head>
<body><h1>Weather</h1><p>Sunny &amp; 25C   today.</p></body></html>`)
	}))
	defer srv.Close()

	out, err := NewFetchTool(0).Execute(context.Background(), map[string]any{"url": srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out, "Status: 200 OK") {
		t.Errorf("missing status in %q", out)
	}
	if !strings.Contains(out, "Weather Sunny & 25C today.") {
		t.Errorf("expected readable text, got %q", out)
	}
	if strings.Contains(out, "alert") || strings.Contains(out, "color:red") {
		t.Errorf("script or style leaked into %q", out)
	}
}

func TestFetchTool_Truncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, strings.Repeat("a", 100))
	}))
	defer srv.Close()

	out, err := NewFetchTool(0).Execute(context.Background(), map[string]any{"url": srv.URL, "max_chars": 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(out, strings.Repeat("a", 10)+"...") {
		t.Fatalf("expected truncated body, got %q", out)
	}
}

func TestFetchTool_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetchTool(0).Execute(context.Background(), map[string]any{"url": srv.URL})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain paragraph", `<p>Hello <b>world</b></p>`, "Hello world"},
		{"angle bracket in attribute", `<p title="a>b">Hello</p>`, "Hello"},
		{"comment", `<!-- <div>hidden comment</div> --><p>Visible</p>`, "Visible"},
		{"script and style", `<script>var x = "<p>no</p>";</script><style>p{}</style><p>yes</p>`, "yes"},
		{"noscript and template", `<noscript>enable js</noscript><template><p>tpl</p></template>ok`, "ok"},
		{"entities", `<p>Tom &amp; Jerry &lt;3</p>`, "Tom & Jerry <3"},
		{"unclosed tags", `<div><p>one<p>two`, "one two"},
		{"whitespace collapsed", "<p>a\n\n\t b</p>", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlToText(tt.in); got != tt.want {
				t.Errorf("htmlToText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFetchTool_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, strings.Repeat("x", 4096))
	}))
	defer srv.Close()

	tool := NewFetchTool(0)
	if tool.client.ResponseBodyLimit != maxFetchBytes {
		t.Fatalf("expected default body limit %d, got %d", maxFetchBytes, tool.client.ResponseBodyLimit)
	}
	tool.client.SetResponseBodyLimit(1024)

	_, err := tool.Execute(context.Background(), map[string]any{"url": srv.URL})
	if err == nil || !strings.Contains(err.Error(), "larger than 1024 bytes") {
		t.Fatalf("expected body limit error, got %v", err)
	}

	result := newDispatcher(tool).Execute(context.Background(), models.ToolCall{
		ID:        "call_1",
		Name:      "fetch_page",
		Arguments: `{"url":"` + srv.URL + `"}`,
	})
	if result.Success || !strings.Contains(result.Error, "tool fetch_page failed") {
		t.Fatalf("expected failed tool result, got %+v", result)
	}
}
