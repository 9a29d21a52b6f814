package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"quiz-schema-service/internal/app"
	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/publish"
	"quiz-schema-service/internal/quiz"
	"quiz-schema-service/internal/schema"
)

const maxBodyBytes = 1 << 20

// API serves the JSON and HTML endpoints.
type API struct {
	service   *app.QuizService
	publisher *publish.Handler
	publicURL string
	log       *slog.Logger
}

type startRequest struct {
	QuizID string `json:"quizId"`
}

// StartSession mounts a new session for the requested quiz.
func (a *API) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil || req.QuizID == "" {
		writeError(w, http.StatusBadRequest, "quizId is required")
		return
	}
	view, err := a.service.Start(r.Context(), req.QuizID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (a *API) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := a.service.Resume(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DispatchAction applies one action and returns the resulting view. Actions the
// runtime rejects still answer 200 with the unchanged view.
func (a *API) DispatchAction(w http.ResponseWriter, r *http.Request) {
	var action quiz.Action
	if err := decodeJSON(r, &action); err != nil {
		writeError(w, http.StatusBadRequest, "invalid action payload")
		return
	}
	view, err := a.service.Dispatch(r.Context(), chi.URLParam(r, "sessionID"), action)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := a.service.End(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QuizSchema returns the Schema.org Quiz document as JSON-LD.
func (a *API) QuizSchema(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	doc, err := a.service.StructuredData(r.Context(), quizID, schema.Context{PageURL: a.quizURL(quizID)})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/ld+json")
	_ = json.NewEncoder(w).Encode(doc)
}

func (a *API) QuizDefinition(w http.ResponseWriter, r *http.Request) {
	q, err := a.service.Quiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q.Definition)
}

// Publish runs the publish handler on a tool-call payload.
func (a *API) Publish(w http.ResponseWriter, r *http.Request) {
	if a.publisher == nil {
		writeError(w, http.StatusNotFound, "publishing is not enabled")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	params, err := publish.DecodeParams(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := a.publisher.Publish(r.Context(), params)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (a *API) PublishTool(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":       publish.HandlerName,
		"parameters": publish.ToolParameters(),
	})
}

func (a *API) quizURL(quizID string) string {
	if a.publicURL == "" {
		return ""
	}
	return a.publicURL + "/quizzes/" + quizID
}

func (a *API) schemaContext(q domain.Quiz) schema.Context {
	sc := schema.Context{PageURL: a.quizURL(q.ID)}
	if q.Definition.DatePublished == "" && !q.CreatedAt.IsZero() {
		sc.PublishedDate = q.CreatedAt.UTC().Format(time.RFC3339)
	}
	return sc
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidDefinition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, publish.ErrTitleRequired), errors.Is(err, quiz.ErrUnknownAction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
