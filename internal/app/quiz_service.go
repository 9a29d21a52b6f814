package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/quiz"
	"quiz-schema-service/internal/schema"
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizStore is the backing store for quiz records.
type QuizStore interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	SaveQuiz(ctx context.Context, q domain.Quiz) error
}

// ResultPublisher receives completion events. Publishing is best effort.
type ResultPublisher interface {
	PublishCompletion(ctx context.Context, event domain.CompletionEvent) error
}

// SessionView is what view bindings receive after every call.
type SessionView struct {
	SessionID string    `json:"sessionId"`
	QuizID    string    `json:"quizId"`
	View      quiz.View `json:"view"`
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	results  ResultPublisher
	log      *slog.Logger
	newID    func() string
}

// Option configures a QuizService.
type Option func(*QuizService)

func WithResultPublisher(p ResultPublisher) Option {
	return func(s *QuizService) { s.results = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *QuizService) { s.log = l }
}

func NewQuizService(store SessionRepository, quizzes QuizRepository, opts ...Option) *QuizService {
	s := &QuizService{
		sessions: store,
		quizzes:  quizzes,
		log:      slog.Default(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Quiz returns the stored quiz record.
func (s *QuizService) Quiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// Start mounts a fresh session for quizID.
func (s *QuizService) Start(ctx context.Context, quizID string) (SessionView, error) {
	q, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return SessionView{}, err
	}
	session := NewSession(s.newID(), quizID, &q.Definition)
	if err := s.sessions.Save(ctx, session); err != nil {
		return SessionView{}, fmt.Errorf("save session: %w", err)
	}
	s.log.Debug("session started", "quiz_id", quizID, "session_id", session.ID())
	return SessionView{SessionID: session.ID(), QuizID: quizID, View: session.View()}, nil
}

// Resume returns the current view of an existing session.
func (s *QuizService) Resume(ctx context.Context, sessionID string) (SessionView, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return SessionView{SessionID: session.ID(), QuizID: session.QuizID(), View: session.View()}, nil
}

// Dispatch applies one user action. Rejected actions leave the session untouched and are not
// reported to the caller; unknown action types are. When the session cannot be saved the
// action is rolled back, so callers never observe state that was not persisted.
func (s *QuizService) Dispatch(ctx context.Context, sessionID string, action quiz.Action) (SessionView, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	res, err := session.apply(action)
	if err != nil {
		return SessionView{}, err
	}
	out := SessionView{SessionID: session.ID(), QuizID: session.QuizID(), View: res.view}
	if res.rejected != nil {
		s.log.Debug("action ignored", "session_id", sessionID, "action", action.Type, "reason", res.rejected)
		return out, nil
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		if rerr := session.revert(res); rerr != nil {
			s.log.Error("revert session failed", "session_id", sessionID, "error", rerr)
		}
		return SessionView{}, fmt.Errorf("save session: %w", err)
	}
	if res.event != nil && s.results != nil {
		if err := s.results.PublishCompletion(ctx, *res.event); err != nil {
			s.log.Warn("publish completion failed", "session_id", sessionID, "error", err)
		}
	}
	return out, nil
}

// End discards a session, as when its view unmounts.
func (s *QuizService) End(ctx context.Context, sessionID string) error {
	err := s.sessions.Delete(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	return err
}

// StructuredData returns the Schema.org document for a stored quiz.
func (s *QuizService) StructuredData(ctx context.Context, quizID string, sc schema.Context) (schema.Quiz, error) {
	q, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return schema.Quiz{}, err
	}
	if sc.PublishedDate == "" && q.Definition.DatePublished == "" && !q.CreatedAt.IsZero() {
		sc.PublishedDate = q.CreatedAt.UTC().Format(time.RFC3339)
	}
	return schema.ToStructuredData(q.Definition, sc), nil
}
