package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/quiz"
)

// QuizStore keeps quiz records in Postgres, with the definition as JSONB.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		q   domain.Quiz
		raw []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, body, data, created_at FROM quizzes WHERE id=$1`, quizID,
	).Scan(&q.ID, &q.Title, &q.Body, &raw, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	// stored rows go through the loader again so older rows pick up new defaults
	def, err := quiz.LoadJSON(raw)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("decode quiz %s: %w", quizID, err)
	}
	q.Definition = def
	return q, nil
}

func (s *QuizStore) SaveQuiz(ctx context.Context, q domain.Quiz) error {
	raw, err := json.Marshal(q.Definition)
	if err != nil {
		return fmt.Errorf("encode quiz %s: %w", q.ID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quizzes (id, title, body, data, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, body = EXCLUDED.body, data = EXCLUDED.data`,
		q.ID, q.Title, q.Body, raw, q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save quiz %s: %w", q.ID, err)
	}
	return nil
}
