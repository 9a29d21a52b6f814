package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quiz-schema-service/internal/app"
	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/infra/memory"
	"quiz-schema-service/internal/quiz"
)

func TestWebSocketActionFlow(t *testing.T) {
	sessions := memory.NewSessionStore()
	service := newService(sessions)
	wsHandler := NewWSHandler(service, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=quiz-1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	// Expect the initial state first.
	mounted := readState(conn, t)
	if mounted.SessionID == "" || mounted.View.CurrentQuestion != 0 {
		t.Fatalf("unexpected initial state %+v", mounted)
	}

	send := func(a quiz.Action) {
		t.Helper()
		if err := conn.WriteJSON(map[string]any{"type": "action", "payload": a}); err != nil {
			t.Fatalf("write action: %v", err)
		}
	}

	send(quiz.Action{Type: quiz.ActionSelectAnswer, Question: 0, Option: 1})
	st := readState(conn, t)
	if st.View.Questions[0].Options[1].State != domain.OptionSelected {
		t.Fatalf("expected selected option, got %+v", st.View.Questions[0].Options)
	}

	send(quiz.Action{Type: quiz.ActionCheckAnswer, Question: 0})
	st = readState(conn, t)
	if st.View.Questions[0].Options[1].State != domain.OptionCorrect {
		t.Fatalf("expected correct option after check")
	}

	send(quiz.Action{Type: quiz.ActionFinishQuiz})
	st = readState(conn, t)
	if st.View.Result == nil || st.View.Result.ScoreLabel != "1/1 (100%)" {
		t.Fatalf("unexpected result %+v", st.View.Result)
	}

	// Closing the socket unmounts the session.
	conn.Close()
	deadline := time.Now().Add(5 * time.Second)
	for sessions.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("session not discarded after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketUnmountsWhenClientStopsReading(t *testing.T) {
	sessions := memory.NewSessionStore()
	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(newService(sessions), nil).ServeWS))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"?quizId=quiz-1", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	mountBy := time.Now().Add(5 * time.Second)
	for sessions.Len() != 1 {
		if time.Now().After(mountBy) {
			t.Fatalf("session never mounted")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Queue far more replies than the send buffer holds, then go away without reading any.
	for i := 0; i < 10*sendBuffer; i++ {
		if err := conn.WriteJSON(map[string]any{"type": "action", "payload": quiz.Action{Type: quiz.ActionSelectAnswer, Question: 0, Option: i % 3}}); err != nil {
			break
		}
	}
	conn.Close()

	deadline := time.Now().Add(writeWait + 5*time.Second)
	for sessions.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("handler stuck after client went away")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketRejectsUnknownMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(newService(memory.NewSessionStore()), nil).ServeWS))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"?quizId=quiz-1", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readState(conn, t)

	if err := conn.WriteJSON(map[string]any{"type": "answer"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	typ, _ := readNext(conn, t)
	if typ != "error" {
		t.Fatalf("expected error, got %s", typ)
	}
}

func TestWebSocketRequiresQuizOrSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(newService(memory.NewSessionStore()), nil).ServeWS))
	defer server.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):], nil)
	if err == nil {
		t.Fatalf("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", resp)
	}
}

func readNext(conn *websocket.Conn, t *testing.T) (string, json.RawMessage) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}

func readState(conn *websocket.Conn, t *testing.T) app.SessionView {
	t.Helper()
	typ, payload := readNext(conn, t)
	if typ != "state" {
		t.Fatalf("expected state, got %s (%s)", typ, payload)
	}
	var view app.SessionView
	if err := json.Unmarshal(payload, &view); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return view
}

func newService(sessions app.SessionRepository) *app.QuizService {
	quizRepo := memory.NewQuizRepository(memory.NewQuizStore(sampleQuiz()), time.Minute)
	return app.NewQuizService(sessions, quizRepo)
}

func sampleQuiz() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:        "quiz-1",
			Title:     "Arithmetic",
			Body:      "<p>Warm up first.</p><script>alert(1)</script>",
			CreatedAt: time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC),
			Definition: domain.Definition{
				Title:            "Arithmetic",
				QuizType:         domain.QuizTypeMultipleChoice,
				PassingScore:     70,
				ShowExplanations: true,
				ResultTiers:      quiz.DefaultResultTiers,
				Questions: []domain.Question{
					{Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectOptionIndex: 1, Explanation: "Two pairs."},
				},
			},
		},
	}
}
