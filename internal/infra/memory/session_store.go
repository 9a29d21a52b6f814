package memory

import (
	"context"
	"sync"
	"time"

	"quiz-schema-service/internal/app"
	"quiz-schema-service/internal/domain"
)

// DefaultIdleTimeout is how long a session may go without an action before it is evicted.
const DefaultIdleTimeout = 30 * time.Minute

// SessionStore is an in-memory implementation of app.SessionRepository.
// Sessions idle for longer than the idle timeout are dropped lazily on Get and swept on Save.
type SessionStore struct {
	idle time.Duration
	now  func() time.Time

	mu        sync.RWMutex
	sessions  map[string]*app.Session
	lastSweep time.Time
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithIdleTimeout sets the eviction window. Zero or negative disables eviction.
func WithIdleTimeout(d time.Duration) SessionOption {
	return func(s *SessionStore) { s.idle = d }
}

// WithSessionClock overrides the clock used for eviction.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) { s.now = now }
}

func NewSessionStore(opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		idle:     DefaultIdleTimeout,
		now:      time.Now,
		sessions: make(map[string]*app.Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastSweep = s.now()
	return s
}

func (s *SessionStore) Save(_ context.Context, session *app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	s.sweepLocked()
	return nil
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (*app.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if s.expired(session, s.now()) {
		s.mu.Lock()
		if s.sessions[sessionID] == session {
			delete(s.sessions, sessionID)
		}
		s.mu.Unlock()
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(session *app.Session, now time.Time) bool {
	return s.idle > 0 && now.Sub(session.Snapshot().UpdatedAt) > s.idle
}

// sweepLocked runs at most once per idle window.
func (s *SessionStore) sweepLocked() {
	if s.idle <= 0 {
		return
	}
	now := s.now()
	if now.Sub(s.lastSweep) < s.idle {
		return
	}
	s.lastSweep = now
	for id, session := range s.sessions {
		if s.expired(session, now) {
			delete(s.sessions, id)
		}
	}
}
