package session

import (
	"sync"
	"time"

	"github.com/luacell/luacell"
)

// ContextFactory builds the evaluation context for a new session.
type ContextFactory func() (*luacell.Context, error)

// Manager manages all sessions.
type Manager struct {
	factory ContextFactory
	timeout time.Duration

	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewManager creates a session manager. A zero timeout disables idle expiry.
func NewManager(factory ContextFactory, timeout time.Duration) *Manager {
	return &Manager{
		factory:  factory,
		timeout:  timeout,
		sessions: make(map[string]*Session),
	}
}

// Create builds a fresh context and registers a session for it.
func (m *Manager) Create() (*Session, error) {
	ctx, err := m.factory()
	if err != nil {
		return nil, err
	}
	s := newSession(ctx)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Get retrieves a session by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Destroy removes a session and closes its context.
func (m *Manager) Destroy(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Context.Close()
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupInactive destroys sessions with no activity past the timeout and
// reports how many were removed.
func (m *Manager) CleanupInactive() int {
	if m.timeout == 0 {
		return 0
	}

	cutoff := time.Now().Add(-m.timeout)
	m.mu.RLock()
	var expired []string
	for id, s := range m.sessions {
		if s.LastActivity().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		m.Destroy(id)
	}
	return len(expired)
}

// CloseAll destroys every session. Used at shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Context.Close()
	}
}
