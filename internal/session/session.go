// Package session tracks live evaluation contexts: one session per attached
// client, created on attach and reaped when idle past the timeout.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/luacell/luacell"
)

// Session binds one evaluation context to an identity and an activity clock.
type Session struct {
	ID      string
	Context *luacell.Context

	createdAt    time.Time
	lastActivity time.Time
	mu           sync.RWMutex
}

func newSession(ctx *luacell.Context) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.NewString(),
		Context:      ctx,
		createdAt:    now,
		lastActivity: now,
	}
}

// Touch records activity, deferring idle expiry.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// LastActivity returns the time of the most recent Touch.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}
