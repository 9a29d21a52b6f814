package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"quiz-schema-service/internal/app"
	"quiz-schema-service/internal/publish"
)

// RouterConfig carries what the HTTP surface needs besides the quiz service.
type RouterConfig struct {
	PublicURL   string
	CORSOrigins []string
	Publisher   *publish.Handler
	Logger      *slog.Logger
}

// NewRouter mounts the REST API, the HTML pages and the websocket binding.
func NewRouter(service *app.QuizService, cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	api := &API{
		service:   service,
		publisher: cfg.Publisher,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		log:       cfg.Logger,
	}
	ws := NewWSHandler(service, cfg.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", api.StartSession)
			r.Get("/{sessionID}", api.GetSession)
			r.Post("/{sessionID}/actions", api.DispatchAction)
			r.Delete("/{sessionID}", api.EndSession)
		})
		r.Route("/quizzes/{quizID}", func(r chi.Router) {
			r.Get("/", api.QuizPage)
			r.Post("/play", api.PlayStart)
			r.Get("/play/{sessionID}", api.PlayPage)
			r.Post("/play/{sessionID}", api.PlayAction)
			r.Get("/schema", api.QuizSchema)
			r.Get("/definition", api.QuizDefinition)
		})
		r.Post("/publish", api.Publish)
		r.Get("/publish/tool", api.PublishTool)
	})
	return r
}
