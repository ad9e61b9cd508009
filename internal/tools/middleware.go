package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ashutoshrp06/search-agent/pkg/models"
	"go.uber.org/zap"
)

// Middleware wraps an Executor with extra behavior.
type Middleware func(next Executor) Executor

// Chain wraps exec with mw. The first middleware is the outermost.
func Chain(exec Executor, mw ...Middleware) Executor {
	for i := len(mw) - 1; i >= 0; i-- {
		exec = mw[i](exec)
	}
	return exec
}

// CallRecord is one tool invocation seen by a CallLimiter.
type CallRecord struct {
	Tool      string        `json:"tool"`
	Arguments string        `json:"arguments"`
	Success   bool          `json:"success"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// CallLimiter counts tool invocations and stops forwarding once a limit is
// reached. Blocked calls get a result telling the model to answer with what
// it already has.
type CallLimiter struct {
	next  Executor
	limit int

	mu      sync.Mutex
	records []CallRecord
	blocked int
}

// NewCallLimiter wraps next. A limit of zero or less means unlimited.
func NewCallLimiter(next Executor, limit int) *CallLimiter {
	return &CallLimiter{next: next, limit: limit}
}

// Limit returns a Middleware that installs a fresh CallLimiter and stores it
// in *out.
func Limit(limit int, out **CallLimiter) Middleware {
	return func(next Executor) Executor {
		l := NewCallLimiter(next, limit)
		if out != nil {
			*out = l
		}
		return l
	}
}

func (l *CallLimiter) Execute(ctx context.Context, call models.ToolCall) models.ToolResult {
	l.mu.Lock()
	if l.limit > 0 && len(l.records) >= l.limit {
		l.blocked++
		l.mu.Unlock()
		return models.ToolResult{
			ToolName: call.Name,
			Success:  false,
			Error:    fmt.Sprintf("tool call limit reached (%d); answer with the information gathered so far", l.limit),
		}
	}
	l.mu.Unlock()

	result := l.next.Execute(ctx, call)

	l.mu.Lock()
	l.records = append(l.records, CallRecord{
		Tool:      call.Name,
		Arguments: call.Arguments,
		Success:   result.Success,
		Duration:  result.Duration,
		Timestamp: time.Now(),
	})
	l.mu.Unlock()

	return result
}

// Count returns how many calls were forwarded.
func (l *CallLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Blocked returns how many calls were refused because of the limit.
func (l *CallLimiter) Blocked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.blocked
}

// Records returns a copy of the forwarded calls in order.
func (l *CallLimiter) Records() []CallRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]CallRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Reset clears the count so the limit applies afresh.
func (l *CallLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
	l.blocked = 0
}

// Logging logs every call with its outcome. Arguments are logged by size only.
func Logging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Executor) Executor {
		return ExecutorFunc(func(ctx context.Context, call models.ToolCall) models.ToolResult {
			result := next.Execute(ctx, call)

			fields := []zap.Field{
				zap.String("tool", call.Name),
				zap.String("call_id", call.ID),
				zap.Int("args_bytes", len(call.Arguments)),
				zap.Bool("success", result.Success),
				zap.Duration("duration", result.Duration),
				zap.Int("output_bytes", len(result.Content())),
			}
			if result.Success {
				logger.Info("Tool executed", fields...)
			} else {
				logger.Warn("Tool failed", append(fields, zap.String("error", result.Error))...)
			}
			return result
		})
	}
}
