package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // driver: sqlite

	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/quiz"
)

const defaultDSN = "file:quizzes.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"

const schema = `
CREATE TABLE IF NOT EXISTS quizzes (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  body TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
`

// Open opens a SQLite database and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

// QuizStore keeps quiz records in a local SQLite file for offline use.
type QuizStore struct {
	db *sql.DB
}

func NewQuizStore(db *sql.DB) *QuizStore {
	return &QuizStore{db: db}
}

func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		q       domain.Quiz
		raw     string
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, body, data, created_at FROM quizzes WHERE id = ?`, quizID,
	).Scan(&q.ID, &q.Title, &q.Body, &raw, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	def, err := quiz.LoadJSON([]byte(raw))
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("decode quiz %s: %w", quizID, err)
	}
	q.Definition = def
	q.CreatedAt = time.Unix(created, 0).UTC()
	return q, nil
}

func (s *QuizStore) SaveQuiz(ctx context.Context, q domain.Quiz) error {
	raw, err := json.Marshal(q.Definition)
	if err != nil {
		return fmt.Errorf("encode quiz %s: %w", q.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO quizzes (id, title, body, data, created_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET title = excluded.title, body = excluded.body, data = excluded.data`,
		q.ID, q.Title, q.Body, string(raw), q.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save quiz %s: %w", q.ID, err)
	}
	return nil
}
