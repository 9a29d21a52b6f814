package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"quiz-schema-service/internal/app"
	"quiz-schema-service/internal/quiz"
)

const (
	// writeWait bounds each write so a peer that stops reading cannot stall the connection.
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
	sendBuffer     = 16
)

// WSHandler is the websocket view binding: each connection drives one session and receives
// the full view after every action.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewWSHandler(service *app.QuizService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		log:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and mounts a session. With ?quizId= a fresh session is started
// and discarded when the socket closes; with ?sessionId= an existing session is resumed and
// left in place.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	sessionID := r.URL.Query().Get("sessionId")
	if quizID == "" && sessionID == "" {
		http.Error(w, "missing quizId or sessionId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	ctx := r.Context()

	var mounted app.SessionView
	owned := sessionID == ""
	if owned {
		mounted, err = h.service.Start(ctx, quizID)
	} else {
		mounted, err = h.service.Resume(ctx, sessionID)
	}
	if err != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	sessionID = mounted.SessionID
	if owned {
		defer func() {
			endCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := h.service.End(endCtx, sessionID); err != nil {
				h.log.Warn("end session failed", "session_id", sessionID, "error", err)
			}
		}()
	}

	send := make(chan outboundMessage, sendBuffer)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", "session_id", sessionID, "error", err)
				// unblocks the read loop
				_ = conn.Close()
				return
			}
		}
	}()

	// push hands msg to the writer and reports false once the writer has stopped.
	push := func(msg outboundMessage) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	ok := push(outboundMessage{Type: "state", Payload: mounted})
	for ok {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "action":
			var action quiz.Action
			if err := json.Unmarshal(inbound.Payload, &action); err != nil {
				ok = push(outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid action payload"}})
				continue
			}
			view, err := h.service.Dispatch(ctx, sessionID, action)
			if err != nil {
				ok = push(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			ok = push(outboundMessage{Type: "state", Payload: view})
		default:
			ok = push(outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(send)
	<-writerDone
}
