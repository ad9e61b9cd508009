package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ashutoshrp06/search-agent/pkg/models"
)

// Executor runs one tool call. Implementations never fail: every problem is
// reported in the returned result so the model can react to it.
type Executor interface {
	Execute(ctx context.Context, call models.ToolCall) models.ToolResult
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, call models.ToolCall) models.ToolResult

func (f ExecutorFunc) Execute(ctx context.Context, call models.ToolCall) models.ToolResult {
	return f(ctx, call)
}

// Dispatcher resolves tool calls against a registry and runs them.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Execute runs call. Unknown tools, malformed arguments, tool errors and
// panics all come back as unsuccessful results.
func (d *Dispatcher) Execute(ctx context.Context, call models.ToolCall) models.ToolResult {
	start := time.Now()
	fail := func(format string, args ...any) models.ToolResult {
		return models.ToolResult{
			ToolName: call.Name,
			Success:  false,
			Error:    fmt.Sprintf(format, args...),
			Duration: time.Since(start),
		}
	}

	tool, exists := d.registry.Get(call.Name)
	if !exists {
		return fail("tool not found: %s", call.Name)
	}

	params, err := parseArguments(call.Arguments)
	if err != nil {
		return fail("invalid arguments for %s: %v", call.Name, err)
	}

	if err := validateParams(tool, params); err != nil {
		return fail("invalid arguments for %s: %v", call.Name, err)
	}
	params = applyDefaults(tool, params)

	output, err := run(ctx, tool, params)
	if err != nil {
		return fail("tool %s failed: %v", call.Name, err)
	}

	return models.ToolResult{
		ToolName: call.Name,
		Success:  true,
		Output:   output,
		Duration: time.Since(start),
	}
}

func run(ctx context.Context, tool Tool, params map[string]any) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return tool.Execute(ctx, params)
}

func parseArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}

	var params map[string]any
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, fmt.Errorf("arguments must be a JSON object")
	}
	return params, nil
}

// validateParams checks required parameters, types and enum values.
func validateParams(tool Tool, params map[string]any) error {
	for _, def := range tool.Parameters() {
		value, exists := params[def.Name]
		if !exists || value == nil {
			if def.Required {
				return fmt.Errorf("missing required parameter: %s", def.Name)
			}
			continue
		}

		if !hasType(value, def.Type) {
			return fmt.Errorf("parameter %s must be of type %s", def.Name, def.Type)
		}

		if len(def.Enum) > 0 {
			s, _ := value.(string)
			valid := false
			for _, allowed := range def.Enum {
				if s == allowed {
					valid = true
					break
				}
			}
			if !valid {
				return fmt.Errorf("invalid value for %s: must be one of %v", def.Name, def.Enum)
			}
		}
	}
	return nil
}

func hasType(value any, typ string) bool {
	switch typ {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		_, ok := value.(float64)
		return ok
	case "integer":
		f, ok := value.(float64)
		return ok && f == math.Trunc(f)
	default:
		return true
	}
}

// applyDefaults fills in default values for missing optional parameters.
func applyDefaults(tool Tool, params map[string]any) map[string]any {
	result := make(map[string]any, len(params))
	for k, v := range params {
		result[k] = v
	}

	for _, def := range tool.Parameters() {
		if v, exists := result[def.Name]; (!exists || v == nil) && def.Default != nil {
			result[def.Name] = def.Default
		}
	}

	return result
}

// StringParam returns params[name] as a string.
func StringParam(params map[string]any, name string) string {
	s, _ := params[name].(string)
	return s
}

// IntParam returns params[name] as an int, or fallback if it is absent.
func IntParam(params map[string]any, name string, fallback int) int {
	switch v := params[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// BoolParam returns params[name] as a bool.
func BoolParam(params map[string]any, name string) bool {
	b, _ := params[name].(bool)
	return b
}
