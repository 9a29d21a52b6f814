package app

import (
	"errors"
	"sync"
	"time"

	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/quiz"
)

// Session is one attempt at a quiz. Actions on a session are serialized by its mutex, which
// makes each session a single-writer resource regardless of how many connections reach it.
type Session struct {
	id     string
	quizID string
	now    func() time.Time

	mu        sync.Mutex
	runtime   *quiz.Runtime
	updatedAt time.Time
	version   uint64
}

// Snapshot is the persisted form of a session.
type Snapshot struct {
	ID        string     `json:"id"`
	QuizID    string     `json:"quizId"`
	State     quiz.State `json:"state"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id, quizID string, def *domain.Definition) *Session {
	return newSessionWithClock(id, quizID, quiz.New(def), time.Now)
}

// RestoreSession rebuilds a session from a snapshot against its definition.
func RestoreSession(snap Snapshot, def *domain.Definition) (*Session, error) {
	rt, err := quiz.Restore(def, snap.State)
	if err != nil {
		return nil, err
	}
	s := newSessionWithClock(snap.ID, snap.QuizID, rt, time.Now)
	s.updatedAt = snap.UpdatedAt
	return s, nil
}

// newSessionWithClock allows deterministic timestamps in tests.
func newSessionWithClock(id, quizID string, rt *quiz.Runtime, now func() time.Time) *Session {
	return &Session{
		id:        id,
		quizID:    quizID,
		now:       now,
		runtime:   rt,
		updatedAt: now(),
	}
}

func (s *Session) ID() string     { return s.id }
func (s *Session) QuizID() string { return s.quizID }

// View returns the derived view of the session.
func (s *Session) View() quiz.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runtime.View()
}

// Snapshot captures the session state for persistence.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{ID: s.id, QuizID: s.quizID, State: s.runtime.State(), UpdatedAt: s.updatedAt}
}

type applyResult struct {
	view     quiz.View
	snapshot Snapshot
	rejected error
	event    *domain.CompletionEvent
	version  uint64
	prev     Snapshot
}

func (s *Session) apply(a quiz.Action) (applyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snapshotLocked()
	err := s.runtime.Apply(a)
	switch {
	case errors.Is(err, domain.ErrActionRejected):
		return applyResult{view: s.runtime.View(), snapshot: s.snapshotLocked(), rejected: err}, nil
	case err != nil:
		return applyResult{}, err
	}

	now := s.now()
	s.updatedAt = now
	s.version++
	res := applyResult{view: s.runtime.View(), snapshot: s.snapshotLocked(), version: s.version, prev: prev}
	if a.Type == quiz.ActionFinishQuiz {
		st := s.runtime.State()
		res.event = &domain.CompletionEvent{
			QuizID:      s.quizID,
			SessionID:   s.id,
			Score:       st.Score,
			Total:       len(st.Answers),
			Percent:     s.runtime.Percent(),
			Tier:        s.runtime.ResultTier(),
			Passed:      s.runtime.Passed(),
			CompletedAt: now,
		}
	}
	return res, nil
}

// revert puts back the state captured before the action that produced res. It is a no-op once
// a later action has been applied, so a failed save never clobbers newer state.
func (s *Session) revert(res applyResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != res.version {
		return nil
	}
	rt, err := quiz.Restore(s.runtime.Definition(), res.prev.State)
	if err != nil {
		return err
	}
	s.runtime = rt
	s.updatedAt = res.prev.UpdatedAt
	s.version++
	return nil
}
