package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ashutoshrp06/search-agent/pkg/models"
)

// MockTool for testing the framework
type MockTool struct {
	name        string
	description string
	params      []Parameter
	execFunc    func(ctx context.Context, params map[string]any) (string, error)
}

func (m *MockTool) Name() string            { return m.name }
func (m *MockTool) Description() string     { return m.description }
func (m *MockTool) Parameters() []Parameter { return m.params }
func (m *MockTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, params)
	}
	return "mock output", nil
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()
	tool := &MockTool{name: "test-tool", description: "A test tool"}

	if err := registry.Register(tool); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := registry.Register(tool); err == nil {
		t.Fatal("expected error for duplicate registration")
	}
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(&MockTool{name: "a"})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	registry.MustRegister(&MockTool{name: "a"})
}

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&MockTool{name: "test-tool"})

	found, ok := registry.Get("test-tool")
	if !ok {
		t.Fatal("expected to find tool")
	}
	if found.Name() != "test-tool" {
		t.Fatalf("expected 'test-tool', got %s", found.Name())
	}

	if _, ok = registry.Get("nonexistent"); ok {
		t.Fatal("expected not to find nonexistent tool")
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&MockTool{name: "tool-b"})
	registry.Register(&MockTool{name: "tool-a"})

	names := registry.List()
	if len(names) != 2 || names[0] != "tool-a" || names[1] != "tool-b" {
		t.Fatalf("unexpected names %v", names)
	}
	if all := registry.All(); all[0].Name() != "tool-a" {
		t.Fatalf("expected All sorted by name")
	}
}

func TestSchema(t *testing.T) {
	tool := &MockTool{
		name:        "search",
		description: "find things",
		params: []Parameter{
			{Name: "query", Type: "string", Description: "what to find", Required: true},
			{Name: "range", Type: "string", Enum: []string{"day", "week"}},
			{Name: "limit", Type: "integer", Default: 3},
		},
	}

	schema := Schema(tool)
	if schema.Name != "search" || schema.Description != "find things" {
		t.Fatalf("unexpected header %+v", schema)
	}
	if schema.Parameters["type"] != "object" {
		t.Fatalf("expected object schema")
	}

	props := schema.Parameters["properties"].(map[string]any)
	if len(props) != 3 {
		t.Fatalf("expected 3 properties, got %d", len(props))
	}
	query := props["query"].(map[string]any)
	if query["type"] != "string" || query["description"] != "what to find" {
		t.Fatalf("unexpected query property %v", query)
	}
	if enum := props["range"].(map[string]any)["enum"].([]string); len(enum) != 2 {
		t.Fatalf("expected enum on range")
	}
	if props["limit"].(map[string]any)["default"] != 3 {
		t.Fatalf("expected default on limit")
	}

	required := schema.Parameters["required"].([]string)
	if len(required) != 1 || required[0] != "query" {
		t.Fatalf("unexpected required %v", required)
	}
}

func TestRegistry_Schemas(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&MockTool{name: "b"})
	registry.Register(&MockTool{name: "a"})

	schemas := registry.Schemas()
	if len(schemas) != 2 || schemas[0].Name != "a" {
		t.Fatalf("unexpected schemas %+v", schemas)
	}
}

func newDispatcher(tools ...Tool) *Dispatcher {
	registry := NewRegistry()
	for _, tool := range tools {
		registry.MustRegister(tool)
	}
	return NewDispatcher(registry)
}

func TestDispatcher_Success(t *testing.T) {
	d := newDispatcher(&MockTool{
		name:   "echo",
		params: []Parameter{{Name: "message", Type: "string", Required: true}},
		execFunc: func(ctx context.Context, params map[string]any) (string, error) {
			return "Echoed: " + StringParam(params, "message"), nil
		},
	})

	result := d.Execute(context.Background(), models.ToolCall{ID: "1", Name: "echo", Arguments: `{"message":"hello"}`})

	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	if result.Output != "Echoed: hello" || result.ToolName != "echo" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestDispatcher_Failures(t *testing.T) {
	d := newDispatcher(
		&MockTool{
			name: "strict",
			params: []Parameter{
				{Name: "query", Type: "string", Required: true},
				{Name: "level", Type: "string", Enum: []string{"low", "high"}},
				{Name: "count", Type: "integer"},
			},
		},
		&MockTool{
			name: "broken",
			execFunc: func(ctx context.Context, params map[string]any) (string, error) {
				return "", errors.New("upstream timeout")
			},
		},
		&MockTool{
			name: "panicky",
			execFunc: func(ctx context.Context, params map[string]any) (string, error) {
				panic("nil map write")
			},
		},
	)

	tests := []struct {
		name    string
		call    models.ToolCall
		wantErr string
	}{
		{"unknown tool", models.ToolCall{Name: "foo"}, "tool not found: foo"},
		{"invalid json", models.ToolCall{Name: "strict", Arguments: `{"query": `}, "invalid arguments for strict"},
		{"not an object", models.ToolCall{Name: "strict", Arguments: `["a"]`}, "invalid arguments for strict"},
		{"null arguments", models.ToolCall{Name: "strict", Arguments: `null`}, "must be a JSON object"},
		{"missing required", models.ToolCall{Name: "strict", Arguments: `{}`}, "missing required parameter: query"},
		{"wrong type", models.ToolCall{Name: "strict", Arguments: `{"query": 5}`}, "must be of type string"},
		{"bad enum", models.ToolCall{Name: "strict", Arguments: `{"query": "x", "level": "mid"}`}, "must be one of"},
		{"fractional integer", models.ToolCall{Name: "strict", Arguments: `{"query": "x", "count": 1.5}`}, "must be of type integer"},
		{"tool error", models.ToolCall{Name: "broken"}, "tool broken failed: upstream timeout"},
		{"tool panic", models.ToolCall{Name: "panicky"}, "tool panicky failed: panic: nil map write"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := d.Execute(context.Background(), tt.call)
			if result.Success {
				t.Fatal("expected failure")
			}
			if !strings.Contains(result.Error, tt.wantErr) {
				t.Fatalf("error %q does not contain %q", result.Error, tt.wantErr)
			}
			if result.Content() != result.Error {
				t.Fatalf("expected error text to be the content")
			}
		})
	}
}

func TestDispatcher_UnknownToolExactText(t *testing.T) {
	d := newDispatcher()
	result := d.Execute(context.Background(), models.ToolCall{ID: "c1", Name: "foo", Arguments: "{}"})
	if result.ToolName != "foo" || result.Content() != "tool not found: foo" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestDispatcher_AppliesDefaults(t *testing.T) {
	d := newDispatcher(&MockTool{
		name: "test",
		params: []Parameter{
			{Name: "optional", Type: "string", Default: "default_value"},
			{Name: "limit", Type: "integer", Default: 3},
		},
		execFunc: func(ctx context.Context, params map[string]any) (string, error) {
			return StringParam(params, "optional") + ":" + string(rune('0'+IntParam(params, "limit", 0))), nil
		},
	})

	result := d.Execute(context.Background(), models.ToolCall{Name: "test", Arguments: ""})
	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	if result.Output != "default_value:3" {
		t.Fatalf("expected 'default_value:3', got %s", result.Output)
	}
}

func TestDispatcher_PassesContext(t *testing.T) {
	d := newDispatcher(&MockTool{
		name: "wait",
		execFunc: func(ctx context.Context, params map[string]any) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := d.Execute(ctx, models.ToolCall{Name: "wait"})
	if result.Success || !strings.Contains(result.Error, "context canceled") {
		t.Fatalf("expected cancellation to surface as text, got %+v", result)
	}
}

func TestParamHelpers(t *testing.T) {
	params := map[string]any{"s": "x", "f": float64(4), "i": 2, "b": true}

	if StringParam(params, "s") != "x" || StringParam(params, "missing") != "" {
		t.Error("StringParam")
	}
	if IntParam(params, "f", 0) != 4 || IntParam(params, "i", 0) != 2 || IntParam(params, "missing", 9) != 9 {
		t.Error("IntParam")
	}
	if !BoolParam(params, "b") || BoolParam(params, "missing") {
		t.Error("BoolParam")
	}
}
