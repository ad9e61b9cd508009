// Package agent runs conversation turns against a model, executing the tool
// calls it requests until it produces an answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ctxmgr "github.com/ashutoshrp06/search-agent/internal/context"
	"github.com/ashutoshrp06/search-agent/internal/delta"
	"github.com/ashutoshrp06/search-agent/internal/llm"
	"github.com/ashutoshrp06/search-agent/internal/tools"
	"github.com/ashutoshrp06/search-agent/pkg/models"
	"go.uber.org/zap"
)

// DefaultMaxRounds is the round ceiling used when none is configured.
const DefaultMaxRounds = 5

// Agent owns one conversation: its message log, model settings and the round
// counter of the turn in progress. Turns must not run concurrently on the
// same Agent.
type Agent struct {
	invoker      llm.Invoker
	settings     llm.Settings
	log          *ctxmgr.Manager
	maxRounds    int
	systemPrompt string
	round        int
	logger       *zap.Logger
}

// Config holds agent configuration.
type Config struct {
	Invoker      llm.Invoker
	Settings     llm.Settings
	SystemPrompt string
	MaxRounds    int
	Logger       *zap.Logger
}

// TurnOptions parameterize a single turn. Tools are only offered when both
// Tools and Executor are set.
type TurnOptions struct {
	Tools     []models.ToolSchema
	Executor  tools.Executor
	Overrides llm.Overrides
	// MaxRounds caps tool rounds for this turn; zero uses the agent default.
	MaxRounds int
}

// New creates an agent with an empty log, seeded with the system prompt if
// one is configured.
func New(cfg Config) (*Agent, error) {
	if cfg.Invoker == nil {
		return nil, errors.New("agent: invoker is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Settings.Model == "" {
		cfg.Settings = llm.DefaultSettings()
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}

	a := &Agent{
		invoker:      cfg.Invoker,
		settings:     cfg.Settings,
		log:          ctxmgr.NewManager(),
		maxRounds:    cfg.MaxRounds,
		systemPrompt: cfg.SystemPrompt,
		logger:       cfg.Logger,
	}
	if err := a.Reset(cfg.SystemPrompt); err != nil {
		return nil, err
	}
	return a, nil
}

// Run executes one turn and returns the final answer.
func (a *Agent) Run(ctx context.Context, input string, opts TurnOptions) (string, error) {
	return a.turn(ctx, input, opts, nil)
}

// RunStream executes one turn in the background. The channel yields progress
// events and then exactly one DoneEvent or ErrorEvent before it is closed.
// Callers must drain it or cancel ctx. After cancellation, buffered progress
// events may be discarded to make room for the terminal event.
func (a *Agent) RunStream(ctx context.Context, input string, opts TurnOptions) <-chan models.Event {
	ch := make(chan models.Event, 16)

	go func() {
		defer close(ch)

		emit := func(ev models.Event) {
			select {
			case ch <- ev:
			case <-ctx.Done():
			}
		}

		answer, err := a.turn(ctx, input, opts, emit)

		var final models.Event = models.DoneEvent{Text: answer}
		if err != nil {
			final = models.ErrorEvent{Err: err}
		}
		select {
		case ch <- final:
		case <-ctx.Done():
			models.PushTerminal(ch, final)
		}
	}()

	return ch
}

// turn is the round loop shared by both variants. emit is nil for blocking
// turns.
func (a *Agent) turn(ctx context.Context, input string, opts TurnOptions, emit func(models.Event)) (string, error) {
	if err := a.log.Append(models.UserMessage(input)); err != nil {
		return "", err
	}

	ceiling := opts.MaxRounds
	if ceiling <= 0 {
		ceiling = a.maxRounds
	}
	offerTools := len(opts.Tools) > 0 && opts.Executor != nil
	streaming := emit != nil
	start := time.Now()
	a.round = 0

	a.logger.Info("Turn started",
		zap.String("input", truncate(input, 100)),
		zap.Bool("tools", offerTools),
		zap.Bool("stream", streaming),
		zap.Int("max_rounds", ceiling))

	for {
		schema := opts.Tools
		forced := false
		if !offerTools {
			schema = nil
		} else if a.round >= ceiling {
			schema = nil
			forced = true
			if err := a.log.Append(models.UserMessage(llm.SummaryInstruction)); err != nil {
				return "", err
			}
			a.logger.Info("Round ceiling reached, forcing summary", zap.Int("rounds", a.round))
			if emit != nil {
				emit(models.CeilingReachedEvent{Rounds: a.round})
			}
		}

		req := llm.BuildRequest(a.settings, a.log.Snapshot(), schema, opts.Overrides, streaming)
		content, calls, err := a.invoke(ctx, req, emit)
		if err != nil {
			a.rollback(forced)
			a.logger.Warn("Model invocation failed", zap.Int("round", a.round), zap.Error(err))
			return "", err
		}

		if forced || !offerTools || len(calls) == 0 {
			if len(calls) > 0 {
				a.logger.Warn("Ignoring tool calls in a tool-free round", zap.Int("calls", len(calls)))
			}
			if strings.TrimSpace(content) == "" {
				content = llm.FallbackAnswer
			}
			if err := a.log.Append(models.AssistantMessage(content)); err != nil {
				return "", err
			}
			a.logger.Info("Turn finished",
				zap.Int("rounds", a.round),
				zap.Bool("forced_summary", forced),
				zap.Duration("duration", time.Since(start)))
			return content, nil
		}

		calls = assignIDs(calls, a.round)
		if err := a.log.Append(models.AssistantMessage(content, calls...)); err != nil {
			return "", err
		}

		if emit != nil {
			emit(models.ToolStartEvent{Round: a.round + 1, Calls: calls})
		}
		for _, call := range calls {
			if emit != nil {
				emit(models.ToolExecutingEvent{Call: call})
			}

			result := opts.Executor.Execute(ctx, call)
			if err := a.log.Append(models.ToolMessage(result.Content(), call.ID)); err != nil {
				return "", err
			}

			if emit != nil {
				if result.Success {
					emit(models.ToolResultEvent{Call: call, Result: result})
				} else {
					emit(models.ToolErrorEvent{Call: call, Result: result})
				}
			}
		}

		a.round++
		a.logger.Debug("Round finished", zap.Int("round", a.round), zap.Int("tool_calls", len(calls)))
	}
}

// invoke performs one model call and returns the complete response. In
// streaming mode intermediate events go to emit as they arrive.
func (a *Agent) invoke(ctx context.Context, req llm.Request, emit func(models.Event)) (string, []models.ToolCall, error) {
	if emit == nil {
		resp, err := a.invoker.Complete(ctx, req)
		if err != nil {
			return "", nil, llm.WrapInvocation("complete", err)
		}
		return resp.Content, resp.ToolCalls, nil
	}

	stream, err := a.invoker.Stream(ctx, req)
	if err != nil {
		return "", nil, llm.WrapInvocation("stream", err)
	}
	defer stream.Close()

	done, err := delta.Consume(ctx, stream, emit)
	if err != nil {
		return "", nil, llm.WrapInvocation("stream", err)
	}
	return done.Text, done.ToolCalls, nil
}

// rollback undoes what the failed round appended. A failure in the first
// round also removes the user message so the whole turn can be retried.
func (a *Agent) rollback(forced bool) {
	n := 0
	if forced {
		n++
	}
	if a.round == 0 {
		n++
	}
	a.log.PopLast(n)
}

// assignIDs gives every call a unique, non-empty id. Providers that omit ids
// get synthetic ones derived from the round and position.
func assignIDs(calls []models.ToolCall, round int) []models.ToolCall {
	out := make([]models.ToolCall, len(calls))
	seen := make(map[string]struct{}, len(calls))
	for i, call := range calls {
		if _, dup := seen[call.ID]; call.ID == "" || dup {
			call.ID = fmt.Sprintf("call_%d_%d", round, i)
		}
		seen[call.ID] = struct{}{}
		out[i] = call
	}
	return out
}

// History returns a copy of the conversation log.
func (a *Agent) History() []models.Message {
	return a.log.Snapshot()
}

// Reset clears the log and seeds it with systemPrompt when it is non-empty.
func (a *Agent) Reset(systemPrompt string) error {
	a.log.Clear()
	a.round = 0
	if strings.TrimSpace(systemPrompt) == "" {
		return nil
	}
	if err := a.log.Append(models.SystemMessage(systemPrompt)); err != nil {
		return fmt.Errorf("seed system prompt: %w", err)
	}
	return nil
}

// SystemPrompt returns the prompt the agent was created with.
func (a *Agent) SystemPrompt() string { return a.systemPrompt }

// Round returns the number of tool rounds used by the current or last turn.
func (a *Agent) Round() int { return a.round }

// Model returns the configured model name.
func (a *Agent) Model() string { return a.settings.Model }

// Ping checks that the model is reachable without touching the conversation.
func (a *Agent) Ping(ctx context.Context) error {
	maxTokens := 4
	req := llm.BuildRequest(a.settings, []models.Message{models.UserMessage("Respond with OK")}, nil,
		llm.Overrides{MaxTokens: &maxTokens}, false)
	if _, err := a.invoker.Complete(ctx, req); err != nil {
		return fmt.Errorf("LLM not reachable: %w", err)
	}
	return nil
}

// truncate shortens s to maxLen runes for log previews.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
