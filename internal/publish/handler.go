// Package publish turns pipeline tool-call parameters into a quiz post.
package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/sanitize"
)

// HandlerName identifies the handler to the pipeline.
const HandlerName = "wordpress_quiz_publish"

var (
	ErrTitleRequired  = errors.New("quiz post title is required")
	ErrMissingSetting = errors.New("missing required handler setting")
)

// Post is what the handler asks the post creator to store.
type Post struct {
	Title      string
	Body       string // sanitized article content without the quiz block
	Content    string
	Status     string
	Author     string
	Type       string
	Definition domain.Definition
}

// Created identifies a stored post.
type Created struct {
	ID      string
	URL     string
	EditURL string
}

// PostCreator is the host publishing API.
type PostCreator interface {
	CreatePost(ctx context.Context, post Post) (Created, error)
}

// Config is the handler configuration set by the pipeline operator.
type Config struct {
	PostType   string `yaml:"post_type"`
	PostStatus string `yaml:"post_status"`
	PostAuthor string `yaml:"post_author"`
	AuthorName string `yaml:"author_name"`
	AuthorURL  string `yaml:"author_url"`
}

// Result is returned to the pipeline on success.
type Result struct {
	PostID    string `json:"post_id"`
	PostTitle string `json:"post_title"`
	PostURL   string `json:"post_url"`
	EditURL   string `json:"edit_url"`
}

// Handler publishes quiz posts.
type Handler struct {
	creator PostCreator
	cfg     Config
	now     func() time.Time
}

func NewHandler(creator PostCreator, cfg Config) *Handler {
	if cfg.PostType == "" {
		cfg.PostType = "post"
	}
	return &Handler{creator: creator, cfg: cfg, now: time.Now}
}

// Publish validates p, builds the quiz block and creates the post.
func (h *Handler) Publish(ctx context.Context, p Params) (Result, error) {
	title := sanitize.Text(p.PostTitle)
	if title == "" {
		return Result{}, ErrTitleRequired
	}
	for name, v := range map[string]string{
		"post_type":   h.cfg.PostType,
		"post_status": h.cfg.PostStatus,
		"post_author": h.cfg.PostAuthor,
	} {
		if strings.TrimSpace(v) == "" {
			return Result{}, fmt.Errorf("%w: %s", ErrMissingSetting, name)
		}
	}

	def, err := p.Definition()
	if err != nil {
		return Result{}, fmt.Errorf("failed to create quiz block: %w", err)
	}
	if h.cfg.AuthorName != "" {
		def.Author = domain.Author{Name: sanitize.Text(h.cfg.AuthorName), URL: sanitize.URL(h.cfg.AuthorURL)}
	}
	if def.DatePublished == "" {
		def.DatePublished = h.now().UTC().Format(time.RFC3339)
	}

	block, err := BlockMarkup(def)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create quiz block: %w", err)
	}
	body := sanitize.HTML(p.PostContent)
	content := block
	if body != "" {
		content = body + "\n\n" + block
	}

	created, err := h.creator.CreatePost(ctx, Post{
		Title:      title,
		Body:       body,
		Content:    content,
		Status:     h.cfg.PostStatus,
		Author:     h.cfg.PostAuthor,
		Type:       h.cfg.PostType,
		Definition: def,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to create post: %w", err)
	}
	return Result{
		PostID:    created.ID,
		PostTitle: title,
		PostURL:   created.URL,
		EditURL:   created.EditURL,
	}, nil
}
