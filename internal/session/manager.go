package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ashutoshrp06/search-agent/internal/llm"
	"github.com/ashutoshrp06/search-agent/internal/tools"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Defaults are applied to every session a Manager creates.
type Defaults struct {
	Invoker      llm.Invoker
	Settings     llm.Settings
	SystemPrompt string
	Registry     *tools.Registry
	Policy       Policy
	MaxToolCalls int
}

// Manager owns a set of independent sessions keyed by id.
type Manager struct {
	defaults Defaults
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty manager.
func NewManager(defaults Defaults, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		defaults: defaults,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session. An empty id gets a random UUID.
func (m *Manager) Create(id string) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; exists {
		return nil, fmt.Errorf("session %s already exists", id)
	}

	s, err := New(Options{
		ID:           id,
		Invoker:      m.defaults.Invoker,
		Settings:     m.defaults.Settings,
		SystemPrompt: m.defaults.SystemPrompt,
		Registry:     m.defaults.Registry,
		Policy:       m.defaults.Policy,
		MaxToolCalls: m.defaults.MaxToolCalls,
		Logger:       m.logger,
	})
	if err != nil {
		return nil, err
	}

	m.sessions[id] = s
	m.logger.Info("Session created", zap.String("session", id))
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// List returns session metadata ordered by creation time.
func (m *Manager) List() []Info {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	infos := make([]Info, len(sessions))
	for i, s := range sessions {
		infos[i] = s.Info()
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Delete removes a session. Later turns on it fail with ErrClosed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.close()
		m.logger.Info("Session deleted", zap.String("session", id))
	}
	return ok
}

// Reset clears the conversation of a session.
func (m *Manager) Reset(id string) error {
	s, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}
	return s.Reset()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
