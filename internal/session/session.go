// Package session applies per-conversation policy on top of the agent: when
// tools are offered, how many rounds a turn may use and whether answers are
// streamed.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ashutoshrp06/search-agent/internal/agent"
	"github.com/ashutoshrp06/search-agent/internal/llm"
	"github.com/ashutoshrp06/search-agent/internal/tools"
	"github.com/ashutoshrp06/search-agent/internal/validator"
	"github.com/ashutoshrp06/search-agent/pkg/models"
	"go.uber.org/zap"
)

// Mode controls tool usage.
type Mode string

const (
	// ModeNever never offers tools.
	ModeNever Mode = "never"
	// ModeAuto lets the model decide.
	ModeAuto Mode = "auto"
	// ModeAlways requires a tool call every round until the ceiling.
	ModeAlways Mode = "always"
)

// ParseMode converts a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeNever, ModeAuto, ModeAlways:
		return m, nil
	}
	return "", fmt.Errorf("unknown tool mode %q (want never, auto or always)", s)
}

// Policy is the set of knobs applied to every turn of a session.
type Policy struct {
	Mode      Mode
	MaxRounds int
	Stream    bool
}

// DefaultPolicy returns auto mode with the default ceiling, non-streaming.
func DefaultPolicy() Policy {
	return Policy{Mode: ModeAuto, MaxRounds: agent.DefaultMaxRounds}
}

// Validate checks the policy values.
func (p Policy) Validate() error {
	if _, err := ParseMode(string(p.Mode)); err != nil {
		return err
	}
	if p.MaxRounds < 1 {
		return fmt.Errorf("max rounds must be at least 1, got %d", p.MaxRounds)
	}
	return nil
}

// ErrClosed is returned for turns on a deleted session.
var ErrClosed = errors.New("session closed")

// Options configure a new Session.
type Options struct {
	ID           string
	Invoker      llm.Invoker
	Settings     llm.Settings
	SystemPrompt string
	// Registry is shared read-only between sessions; nil disables tools.
	Registry *tools.Registry
	Policy   Policy
	// MaxToolCalls caps tool executions per turn; zero means unlimited.
	MaxToolCalls int
	Logger       *zap.Logger
}

// Info is a point-in-time summary of a session. BlockedCalls counts tool
// calls refused by the per-turn budget.
type Info struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActive   time.Time `json:"last_active"`
	Turns        int       `json:"turns"`
	ToolCalls    int       `json:"tool_calls"`
	BlockedCalls int       `json:"blocked_calls"`
	Messages     int       `json:"messages"`
	Mode         Mode      `json:"mode"`
	MaxRounds    int       `json:"max_rounds"`
	Stream       bool      `json:"stream"`
}

// Session is one conversation with its own log and policy.
type Session struct {
	id        string
	agent     *agent.Agent
	registry  *tools.Registry
	executor  tools.Executor
	limiter   *tools.CallLimiter
	validator *validator.InputValidator
	logger    *zap.Logger

	// turnMu serializes turns.
	turnMu sync.Mutex

	mu         sync.RWMutex
	policy     Policy
	createdAt  time.Time
	lastActive time.Time
	turns      int
	records    []tools.CallRecord
	blocked    int
	closed     bool
}

// New creates a session.
func New(opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Policy == (Policy{}) {
		opts.Policy = DefaultPolicy()
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger.With(zap.String("session", opts.ID))
	a, err := agent.New(agent.Config{
		Invoker:      opts.Invoker,
		Settings:     opts.Settings,
		SystemPrompt: opts.SystemPrompt,
		MaxRounds:    opts.Policy.MaxRounds,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	now := time.Now()
	s := &Session{
		id:         opts.ID,
		agent:      a,
		registry:   opts.Registry,
		validator:  validator.NewInputValidator(),
		logger:     logger,
		policy:     opts.Policy,
		createdAt:  now,
		lastActive: now,
	}
	if opts.Registry != nil {
		s.executor = tools.Chain(tools.NewDispatcher(opts.Registry),
			tools.Limit(opts.MaxToolCalls, &s.limiter),
			tools.Logging(logger),
		)
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Policy returns the current policy.
func (s *Session) Policy() Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// SetMode changes the tool mode from the next turn on.
func (s *Session) SetMode(mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	s.mu.Lock()
	s.policy.Mode = mode
	s.mu.Unlock()
	return nil
}

// SetMaxRounds changes the round ceiling from the next turn on.
func (s *Session) SetMaxRounds(n int) error {
	if n < 1 {
		return fmt.Errorf("max rounds must be at least 1, got %d", n)
	}
	s.mu.Lock()
	s.policy.MaxRounds = n
	s.mu.Unlock()
	return nil
}

// SetStream selects the streaming variant from the next turn on.
func (s *Session) SetStream(stream bool) {
	s.mu.Lock()
	s.policy.Stream = stream
	s.mu.Unlock()
}

// Send runs one turn under the current policy. With streaming enabled the
// channel carries every progress event; otherwise only the terminal one.
// Either way it ends with exactly one DoneEvent or ErrorEvent and is then
// closed, even when ctx is cancelled with the buffer full. Send blocks while a
// previous turn of this session is in progress.
func (s *Session) Send(ctx context.Context, input string) <-chan models.Event {
	out := make(chan models.Event, 16)

	query, err := s.prepare(input)
	if err != nil {
		out <- models.ErrorEvent{Err: err}
		close(out)
		return out
	}

	s.turnMu.Lock()
	policy := s.beginTurn()
	opts := s.turnOptions(policy)

	go func() {
		defer close(out)
		defer s.turnMu.Unlock()
		defer s.endTurn()

		if !policy.Stream {
			answer, err := s.agent.Run(ctx, query, opts)
			if err != nil {
				out <- models.ErrorEvent{Err: err}
				return
			}
			out <- models.DoneEvent{Text: answer}
			return
		}

		for ev := range s.agent.RunStream(ctx, query, opts) {
			select {
			case out <- ev:
			case <-ctx.Done():
				if isTerminal(ev) {
					models.PushTerminal(out, ev)
				}
			}
		}
	}()

	return out
}

func isTerminal(ev models.Event) bool {
	t := ev.Type()
	return t == models.EventDone || t == models.EventError
}

// Ask runs one non-streaming turn regardless of policy and returns the answer.
func (s *Session) Ask(ctx context.Context, input string) (string, error) {
	query, err := s.prepare(input)
	if err != nil {
		return "", err
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	policy := s.beginTurn()
	defer s.endTurn()

	return s.agent.Run(ctx, query, s.turnOptions(policy))
}

func (s *Session) prepare(input string) (string, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return "", ErrClosed
	}
	query, err := s.validator.Clean(input)
	if err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	return query, nil
}

// beginTurn snapshots the policy and resets the per-turn call budget.
// Callers hold turnMu.
func (s *Session) beginTurn() Policy {
	if s.limiter != nil {
		s.limiter.Reset()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns++
	s.lastActive = time.Now()
	return s.policy
}

func (s *Session) endTurn() {
	var (
		records []tools.CallRecord
		blocked int
	)
	if s.limiter != nil {
		records = s.limiter.Records()
		blocked = s.limiter.Blocked()
	}
	if blocked > 0 {
		s.logger.Warn("Tool call budget exhausted", zap.Int("blocked", blocked))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	s.blocked += blocked
	s.lastActive = time.Now()
}

// turnOptions maps the policy onto agent options.
func (s *Session) turnOptions(p Policy) agent.TurnOptions {
	opts := agent.TurnOptions{MaxRounds: p.MaxRounds}
	if p.Mode == ModeNever || s.executor == nil {
		return opts
	}

	opts.Tools = s.registry.Schemas()
	opts.Executor = s.executor
	if p.Mode == ModeAlways {
		opts.Overrides.ToolChoice = llm.ToolChoiceRequired
	} else {
		opts.Overrides.ToolChoice = llm.ToolChoiceAuto
	}
	return opts
}

// History returns a copy of the conversation log.
func (s *Session) History() []models.Message {
	return s.agent.History()
}

// CallRecords returns every tool call executed in this session.
func (s *Session) CallRecords() []tools.CallRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]tools.CallRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Reset clears the conversation and counters but keeps the policy.
func (s *Session) Reset() error {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	if err := s.agent.Reset(s.agent.SystemPrompt()); err != nil {
		return err
	}
	if s.limiter != nil {
		s.limiter.Reset()
	}

	s.mu.Lock()
	s.turns = 0
	s.records = nil
	s.blocked = 0
	s.lastActive = time.Now()
	s.mu.Unlock()

	s.logger.Info("Session reset")
	return nil
}

// Info returns session metadata.
func (s *Session) Info() Info {
	messages := len(s.agent.History())

	s.mu.RLock()
	defer s.mu.RUnlock()
	return Info{
		ID:           s.id,
		CreatedAt:    s.createdAt,
		LastActive:   s.lastActive,
		Turns:        s.turns,
		ToolCalls:    len(s.records),
		BlockedCalls: s.blocked,
		Messages:     messages,
		Mode:         s.policy.Mode,
		MaxRounds:    s.policy.MaxRounds,
		Stream:       s.policy.Stream,
	}
}

// Model returns the model name used by this session.
func (s *Session) Model() string { return s.agent.Model() }

// Ping checks that the model endpoint is reachable.
func (s *Session) Ping(ctx context.Context) error { return s.agent.Ping(ctx) }

func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
