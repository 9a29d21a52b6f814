package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"quiz-schema-service/internal/app"
	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/quiz"
	"quiz-schema-service/internal/render"
)

// The HTML pages are bound through plain form posts: every control submits
// action=<type>[:question[:option]], the handler dispatches it and redirects back to the
// session page, which renders the new view.

var errBadFormAction = errors.New("invalid action")

// QuizPage renders the stored post with the quiz block in its initial state. The first
// action posted from it starts a session.
func (a *API) QuizPage(w http.ResponseWriter, r *http.Request) {
	q, err := a.service.Quiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.renderPage(w, q, quiz.New(&q.Definition).View(), playPath(q.ID, ""))
}

// PlayStart starts a session from the initial page and applies the posted action to it.
func (a *API) PlayStart(w http.ResponseWriter, r *http.Request) {
	action, err := formAction(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	started, err := a.service.Start(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if _, err := a.service.Dispatch(r.Context(), started.SessionID, action); err != nil {
		a.fail(w, r, err)
		return
	}
	http.Redirect(w, r, playPath(started.QuizID, started.SessionID), http.StatusSeeOther)
}

// PlayPage renders the quiz page in the state of an existing session.
func (a *API) PlayPage(w http.ResponseWriter, r *http.Request) {
	quizID, sessionID := chi.URLParam(r, "quizID"), chi.URLParam(r, "sessionID")
	view, err := a.sessionOf(r, quizID, sessionID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	q, err := a.service.Quiz(r.Context(), quizID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.renderPage(w, q, view.View, playPath(quizID, sessionID))
}

// PlayAction applies a posted action to the session and redirects to its page. An expired
// session sends the visitor back to a fresh quiz page.
func (a *API) PlayAction(w http.ResponseWriter, r *http.Request) {
	quizID, sessionID := chi.URLParam(r, "quizID"), chi.URLParam(r, "sessionID")
	action, err := formAction(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	_, err = a.sessionOf(r, quizID, sessionID)
	if err == nil {
		_, err = a.service.Dispatch(r.Context(), sessionID, action)
	}
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		http.Redirect(w, r, "/quizzes/"+url.PathEscape(quizID), http.StatusSeeOther)
	case err != nil:
		a.fail(w, r, err)
	default:
		http.Redirect(w, r, playPath(quizID, sessionID), http.StatusSeeOther)
	}
}

// sessionOf resumes sessionID and checks it belongs to quizID.
func (a *API) sessionOf(r *http.Request, quizID, sessionID string) (app.SessionView, error) {
	view, err := a.service.Resume(r.Context(), sessionID)
	if err != nil {
		return app.SessionView{}, err
	}
	if view.QuizID != quizID {
		return app.SessionView{}, domain.ErrSessionNotFound
	}
	return view, nil
}

func (a *API) renderPage(w http.ResponseWriter, q domain.Quiz, view quiz.View, actionURL string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.Page(w, q, view, a.schemaContext(q), actionURL); err != nil {
		a.log.Error("render quiz page", "quiz_id", q.ID, "error", err)
	}
}

func playPath(quizID, sessionID string) string {
	p := "/quizzes/" + url.PathEscape(quizID) + "/play"
	if sessionID != "" {
		p += "/" + url.PathEscape(sessionID)
	}
	return p
}

// formAction decodes the action field posted by a quiz block control.
func formAction(w http.ResponseWriter, r *http.Request) (quiz.Action, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return quiz.Action{}, fmt.Errorf("%w: %v", errBadFormAction, err)
	}
	return parseFormAction(r.PostForm.Get("action"))
}

func parseFormAction(v string) (quiz.Action, error) {
	parts := strings.Split(v, ":")
	action := quiz.Action{Type: quiz.ActionType(parts[0])}
	want := 1
	switch action.Type {
	case quiz.ActionSelectAnswer:
		want = 3
	case quiz.ActionCheckAnswer:
		want = 2
	case quiz.ActionPrevQuestion, quiz.ActionNextQuestion, quiz.ActionFinishQuiz, quiz.ActionResetQuiz:
	default:
		return quiz.Action{}, fmt.Errorf("%w %q", errBadFormAction, v)
	}
	if len(parts) != want {
		return quiz.Action{}, fmt.Errorf("%w %q", errBadFormAction, v)
	}
	var err error
	if want > 1 {
		if action.Question, err = strconv.Atoi(parts[1]); err != nil {
			return quiz.Action{}, fmt.Errorf("%w %q", errBadFormAction, v)
		}
	}
	if want > 2 {
		if action.Option, err = strconv.Atoi(parts[2]); err != nil {
			return quiz.Action{}, fmt.Errorf("%w %q", errBadFormAction, v)
		}
	}
	return action, nil
}
