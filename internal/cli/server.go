package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-schema-service/internal/app"
	"quiz-schema-service/internal/config"
	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/infra/events"
	"quiz-schema-service/internal/infra/memory"
	pgstore "quiz-schema-service/internal/infra/postgres"
	rediscache "quiz-schema-service/internal/infra/redis"
	"quiz-schema-service/internal/infra/sqlite"
	"quiz-schema-service/internal/publish"
	"quiz-schema-service/internal/quiz"
	transport "quiz-schema-service/internal/transport/http"
	"quiz-schema-service/internal/transport/telegram"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log.Level, cfg.Log.Format)

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}
	publicURL := cfg.Server.PublicURL
	if publicURL == "" {
		publicURL = "http://localhost:" + finalPort
	}

	store, closeStore, err := openQuizStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := seedQuiz(ctx, cfg, store, log); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = rediscache.NewQuizRepository(redisClient, store, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(store, quizTTL)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = rediscache.NewSessionStore(redisClient, quizRepo, sessionTTL)
	} else {
		sessions = memory.NewSessionStore(memory.WithIdleTimeout(sessionTTL))
	}

	opts := []app.Option{app.WithLogger(log)}
	if cfg.AMQP.URL != "" {
		publisher, closePublisher, err := events.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		defer closePublisher()
		opts = append(opts, app.WithResultPublisher(publisher))
	}
	service := app.NewQuizService(sessions, quizRepo, opts...)

	handler := publish.NewHandler(app.NewPostStore(store, publicURL), cfg.Publish)
	router := transport.NewRouter(service, transport.RouterConfig{
		PublicURL:   publicURL,
		CORSOrigins: cfg.Server.CORSOrigins,
		Publisher:   handler,
		Logger:      log,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	if cfg.Telegram.Token != "" {
		if err := startTelegram(runCtx, cfg, service, log); err != nil {
			return err
		}
	}

	go func() {
		log.Info("starting quiz service", "port", finalPort, "public_url", publicURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "error", err)
			cancelRun()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-runCtx.Done():
		log.Info("context canceled, shutting down server")
	}
	cancelRun()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openQuizStore picks the backing store: Postgres, then SQLite, then the in-memory demo store.
func openQuizStore(ctx context.Context, cfg config.Config, log *slog.Logger) (app.QuizStore, func(), error) {
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using postgres quiz store")
		return pgstore.NewQuizStore(pool), pool.Close, nil
	case cfg.SQLite.Path != "":
		db, err := sqlite.Open(ctx, "file:"+cfg.SQLite.Path+"?cache=shared&mode=rwc&_pragma=busy_timeout(5000)")
		if err != nil {
			return nil, nil, err
		}
		log.Info("using sqlite quiz store", "path", cfg.SQLite.Path)
		return sqlite.NewQuizStore(db), func() { db.Close() }, nil
	default:
		log.Warn("no database configured, serving the demo quiz from memory")
		return memory.NewQuizStore(sampleQuizzes()), func() {}, nil
	}
}

// seedQuiz stores the configured definition file under its seed id, replacing any previous copy.
func seedQuiz(ctx context.Context, cfg config.Config, store app.QuizStore, log *slog.Logger) error {
	if cfg.Quiz.SeedFile == "" {
		return nil
	}
	def, err := loadDefinitionFile(cfg.Quiz.SeedFile)
	if err != nil {
		return err
	}
	id := cfg.Quiz.SeedID
	if id == "" {
		id = "quiz-1"
	}
	q := domain.Quiz{ID: id, Title: def.Title, Definition: def, CreatedAt: time.Now().UTC()}
	if err := store.SaveQuiz(ctx, q); err != nil {
		return err
	}
	log.Info("seeded quiz", "quiz_id", id, "questions", def.QuestionCount())
	return nil
}

func startTelegram(ctx context.Context, cfg config.Config, service *app.QuizService, log *slog.Logger) error {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return err
	}
	quizID := cfg.Telegram.QuizID
	if quizID == "" {
		quizID = "quiz-1"
	}
	log.Info("telegram bot authorised", "account", api.Self.UserName, "quiz_id", quizID)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	bot := telegram.NewBot(api, service, quizID, log)
	go func() {
		bot.Run(ctx, updates)
		api.StopReceivingUpdates()
	}()
	return nil
}

// sampleQuizzes provides a demo quiz for running without a database.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:        "quiz-1",
			Title:     "Solar System Basics",
			Body:      "<p>How well do you know our neighbourhood?</p>",
			CreatedAt: time.Date(2024, 11, 22, 0, 0, 0, 0, time.UTC),
			Definition: domain.Definition{
				Title:            "Solar System Basics",
				Description:      "A short warm-up about the planets.",
				QuizType:         domain.QuizTypeMultipleChoice,
				PassingScore:     quiz.DefaultPassingScore,
				ShowExplanations: true,
				ResultTiers:      quiz.DefaultResultTiers,
				Questions: []domain.Question{
					{
						Text:               "Which planet is closest to the Sun?",
						Options:            []string{"Venus", "Mercury", "Mars"},
						CorrectOptionIndex: 1,
						Explanation:        "Mercury orbits at about 0.39 AU.",
					},
					{
						Text:               "Which planet is the largest?",
						Options:            []string{"Saturn", "Neptune", "Jupiter", "Earth"},
						CorrectOptionIndex: 2,
						Explanation:        "Jupiter is more than twice as massive as all other planets combined.",
					},
					{
						Text:               "Pluto is classified as a planet.",
						Options:            []string{"True", "False"},
						CorrectOptionIndex: 1,
						Explanation:        "It was reclassified as a dwarf planet in 2006.",
					},
				},
			},
		},
	}
}
