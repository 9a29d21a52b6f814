package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-schema-service/internal/app"
	"quiz-schema-service/internal/domain"
)

// SessionStore is a Redis-backed implementation of app.SessionRepository.
// Notes:
//   - Live sessions stay in a local map so the per-session lock keeps working.
//   - Every save writes a snapshot through to Redis with a sliding TTL, so a session
//     survives a restart and can be resumed by another instance. Reads slide the TTL too.
//   - Redis is authoritative for liveness: once the key has expired the local entry is
//     dropped on the next Get, and idle local entries are swept on Save.
//   - Two instances resuming the same session concurrently are not coordinated.
type SessionStore struct {
	client  *redis.Client
	quizzes app.QuizRepository
	ttl     time.Duration

	mu        sync.RWMutex
	sessions  map[string]*app.Session
	lastSweep time.Time
}

func NewSessionStore(client *redis.Client, quizzes app.QuizRepository, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		quizzes:  quizzes,
		ttl:      ttl,
		sessions:  make(map[string]*app.Session),
		lastSweep: time.Now(),
	}
}

func (s *SessionStore) Save(ctx context.Context, session *app.Session) error {
	payload, err := json.Marshal(session.Snapshot())
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID(), err)
	}
	if err := s.client.Set(ctx, s.key(session.ID()), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("write session %s: %w", session.ID(), err)
	}

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.sweepLocked(time.Now())
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (*app.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		alive, err := s.touch(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("refresh session %s: %w", sessionID, err)
		}
		if !alive {
			s.mu.Lock()
			if s.sessions[sessionID] == session {
				delete(s.sessions, sessionID)
			}
			s.mu.Unlock()
			return nil, domain.ErrSessionNotFound
		}
		return session, nil
	}

	raw, err := s.read(ctx, sessionID)
	if isMiss(err) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	q, err := s.quizzes.GetQuiz(ctx, snap.QuizID)
	if err != nil {
		return nil, err
	}
	restored, err := app.RestoreSession(snap, &q.Definition)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", sessionID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[sessionID]; ok {
		return existing, nil
	}
	s.sessions[sessionID] = restored
	return restored, nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	_, local := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	n, err := s.client.Del(ctx, s.key(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	if n == 0 && !local {
		return domain.ErrSessionNotFound
	}
	return nil
}

// touch slides the TTL of a live key and reports whether it still exists.
func (s *SessionStore) touch(ctx context.Context, sessionID string) (bool, error) {
	if s.ttl <= 0 {
		n, err := s.client.Exists(ctx, s.key(sessionID)).Result()
		return n == 1, err
	}
	return s.client.Expire(ctx, s.key(sessionID), s.ttl).Result()
}

func (s *SessionStore) read(ctx context.Context, sessionID string) ([]byte, error) {
	if s.ttl <= 0 {
		return s.client.Get(ctx, s.key(sessionID)).Bytes()
	}
	return s.client.GetEx(ctx, s.key(sessionID), s.ttl).Bytes()
}

// sweepLocked drops local entries with no action for longer than the TTL. One whose key is
// still alive is restored from Redis on its next Get.
func (s *SessionStore) sweepLocked(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.lastSweep = now
	for id, session := range s.sessions {
		if now.Sub(session.Snapshot().UpdatedAt) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
