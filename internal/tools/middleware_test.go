package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/ashutoshrp06/search-agent/pkg/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingExecutor struct {
	calls int
}

func (c *countingExecutor) Execute(ctx context.Context, call models.ToolCall) models.ToolResult {
	c.calls++
	return models.ToolResult{ToolName: call.Name, Success: true, Output: "ok"}
}

func TestCallLimiter(t *testing.T) {
	inner := &countingExecutor{}
	limiter := NewCallLimiter(inner, 2)

	for i := 0; i < 2; i++ {
		result := limiter.Execute(context.Background(), models.ToolCall{Name: "web_search", Arguments: `{"query":"q"}`})
		if !result.Success {
			t.Fatalf("call %d should pass: %s", i, result.Error)
		}
	}

	blocked := limiter.Execute(context.Background(), models.ToolCall{Name: "web_search"})
	if blocked.Success {
		t.Fatal("expected third call to be blocked")
	}
	if !strings.Contains(blocked.Error, "tool call limit reached (2)") {
		t.Fatalf("unexpected signal %q", blocked.Error)
	}

	if inner.calls != 2 {
		t.Fatalf("expected 2 forwarded calls, got %d", inner.calls)
	}
	if limiter.Count() != 2 || limiter.Blocked() != 1 {
		t.Fatalf("count=%d blocked=%d", limiter.Count(), limiter.Blocked())
	}

	records := limiter.Records()
	if len(records) != 2 || records[0].Tool != "web_search" || records[0].Arguments != `{"query":"q"}` {
		t.Fatalf("unexpected records %+v", records)
	}
	if records[0].Timestamp.IsZero() {
		t.Fatal("expected timestamp on record")
	}

	limiter.Reset()
	if limiter.Count() != 0 || limiter.Blocked() != 0 {
		t.Fatal("expected reset to clear counters")
	}
	if result := limiter.Execute(context.Background(), models.ToolCall{Name: "web_search"}); !result.Success {
		t.Fatal("expected call to pass after reset")
	}
}

func TestCallLimiter_Unlimited(t *testing.T) {
	inner := &countingExecutor{}
	limiter := NewCallLimiter(inner, 0)
	for i := 0; i < 20; i++ {
		limiter.Execute(context.Background(), models.ToolCall{Name: "x"})
	}
	if inner.calls != 20 {
		t.Fatalf("expected 20 calls, got %d", inner.calls)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Executor) Executor {
			return ExecutorFunc(func(ctx context.Context, call models.ToolCall) models.ToolResult {
				order = append(order, name)
				return next.Execute(ctx, call)
			})
		}
	}

	exec := Chain(&countingExecutor{}, mark("outer"), mark("inner"))
	exec.Execute(context.Background(), models.ToolCall{Name: "x"})

	if strings.Join(order, ",") != "outer,inner" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestLimit_ExposesLimiter(t *testing.T) {
	var limiter *CallLimiter
	exec := Chain(&countingExecutor{}, Limit(1, &limiter))

	exec.Execute(context.Background(), models.ToolCall{Name: "x"})
	if limiter == nil || limiter.Count() != 1 {
		t.Fatal("expected limiter to be stored and counting")
	}
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	exec := Chain(newDispatcher(&MockTool{name: "ok"}), Logging(zap.New(core)))

	exec.Execute(context.Background(), models.ToolCall{ID: "1", Name: "ok", Arguments: `{"secret":"x"}`})
	exec.Execute(context.Background(), models.ToolCall{ID: "2", Name: "missing"})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Message != "Tool executed" || entries[1].Message != "Tool failed" {
		t.Fatalf("unexpected messages %q, %q", entries[0].Message, entries[1].Message)
	}
	for _, f := range entries[0].Context {
		if f.Key == "arguments" {
			t.Fatal("raw arguments must not be logged")
		}
	}
}
