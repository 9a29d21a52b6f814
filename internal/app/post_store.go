package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/publish"
)

// PostStore adapts a QuizStore into the publish handler's post creator: every published post
// becomes a quiz record served by this service.
type PostStore struct {
	store     QuizStore
	publicURL string
	now       func() time.Time
	newID     func() string
}

func NewPostStore(store QuizStore, publicURL string) *PostStore {
	return &PostStore{
		store:     store,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (p *PostStore) CreatePost(ctx context.Context, post publish.Post) (publish.Created, error) {
	id := p.newID()
	q := domain.Quiz{
		ID:         id,
		Title:      post.Title,
		Body:       post.Body,
		Definition: post.Definition,
		CreatedAt:  p.now().UTC(),
	}
	if err := p.store.SaveQuiz(ctx, q); err != nil {
		return publish.Created{}, fmt.Errorf("save quiz %s: %w", id, err)
	}
	base := p.publicURL + "/quizzes/" + id
	return publish.Created{ID: id, URL: base, EditURL: base + "/definition"}, nil
}
