// Package context holds the conversation message log.
package context

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ashutoshrp06/search-agent/pkg/models"
)

// ErrValidation is matched by every error returned from Append.
var ErrValidation = errors.New("invalid message")

// ValidationError describes why a message was rejected.
type ValidationError struct {
	Role   models.Role
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s message: %s", e.Role, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Manager is the ordered conversation log. It is the only place messages are
// stored; readers get copies through Snapshot.
type Manager struct {
	messages []models.Message
	// ids of the nearest assistant tool calls that have no tool message yet
	pending map[string]struct{}
	mu      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		messages: make([]models.Message, 0),
		pending:  make(map[string]struct{}),
	}
}

// Append validates msg and adds it to the end of the log. A rejected message
// leaves the log unchanged.
func (m *Manager) Append(msg models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validate(msg); err != nil {
		return err
	}

	msg = msg.Clone()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	switch msg.Role {
	case models.RoleAssistant:
		m.pending = make(map[string]struct{}, len(msg.ToolCalls))
		for _, call := range msg.ToolCalls {
			m.pending[call.ID] = struct{}{}
		}
	case models.RoleTool:
		delete(m.pending, msg.ToolCallID)
	}

	m.messages = append(m.messages, msg)
	return nil
}

func (m *Manager) validate(msg models.Message) error {
	invalid := func(format string, args ...any) error {
		return &ValidationError{Role: msg.Role, Reason: fmt.Sprintf(format, args...)}
	}

	switch msg.Role {
	case models.RoleSystem, models.RoleUser:
		if strings.TrimSpace(msg.Content) == "" {
			return invalid("content is required")
		}
		if len(msg.ToolCalls) > 0 || msg.ToolCallID != "" {
			return invalid("tool fields are not allowed")
		}

	case models.RoleAssistant:
		if strings.TrimSpace(msg.Content) == "" && len(msg.ToolCalls) == 0 {
			return invalid("content or tool calls are required")
		}
		seen := make(map[string]struct{}, len(msg.ToolCalls))
		for i, call := range msg.ToolCalls {
			if call.ID == "" {
				return invalid("tool call %d has no id", i)
			}
			if _, dup := seen[call.ID]; dup {
				return invalid("duplicate tool call id %q", call.ID)
			}
			seen[call.ID] = struct{}{}
		}

	case models.RoleTool:
		if msg.ToolCallID == "" {
			return invalid("tool_call_id is required")
		}
		if _, ok := m.pending[msg.ToolCallID]; !ok {
			return invalid("tool_call_id %q does not match an unresolved tool call", msg.ToolCallID)
		}

	default:
		return invalid("unknown role")
	}

	return nil
}

// Snapshot returns a copy of the log that shares no memory with it.
func (m *Manager) Snapshot() []models.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.Message, len(m.messages))
	for i, msg := range m.messages {
		result[i] = msg.Clone()
	}
	return result
}

// Len returns the number of messages in the log.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// PopLast removes up to n messages from the end of the log and returns how
// many were removed.
func (m *Manager) PopLast(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n <= 0 {
		return 0
	}
	if n > len(m.messages) {
		n = len(m.messages)
	}
	m.messages = m.messages[:len(m.messages)-n]
	m.rebuildPending()
	return n
}

// pendingIDs returns the tool call ids still waiting for a tool message.
func (m *Manager) pendingIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.pending))
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role != models.RoleAssistant {
			continue
		}
		for _, call := range m.messages[i].ToolCalls {
			if _, ok := m.pending[call.ID]; ok {
				ids = append(ids, call.ID)
			}
		}
		break
	}
	return ids
}

func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = make([]models.Message, 0)
	m.pending = make(map[string]struct{})
}

func (m *Manager) rebuildPending() {
	m.pending = make(map[string]struct{})
	last := -1
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role == models.RoleAssistant {
			last = i
			break
		}
	}
	if last < 0 {
		return
	}
	for _, call := range m.messages[last].ToolCalls {
		m.pending[call.ID] = struct{}{}
	}
	for _, msg := range m.messages[last+1:] {
		if msg.Role == models.RoleTool {
			delete(m.pending, msg.ToolCallID)
		}
	}
}
