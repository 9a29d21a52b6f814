package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-schema-service/internal/app"
	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/infra/events"
	pgstore "quiz-schema-service/internal/infra/postgres"
	pgmigrations "quiz-schema-service/internal/infra/postgres/migrations"
	infraredis "quiz-schema-service/internal/infra/redis"
	"quiz-schema-service/internal/publish"
	"quiz-schema-service/internal/quiz"
	"quiz-schema-service/internal/schema"
)

func TestPublishAndPlayEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()
	amqpURL, amqpCleanup := startRabbit(t, ctx)
	defer amqpCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	store := pgstore.NewQuizStore(pool)

	// Publish a quiz post straight into Postgres.
	handler := publish.NewHandler(app.NewPostStore(store, "https://quiz.example.com"), publish.Config{
		PostStatus: "publish",
		PostAuthor: "1",
		AuthorName: "Quiz Desk",
	})
	res, err := handler.Publish(ctx, publish.Params{
		PostTitle:   "Arithmetic",
		PostContent: "<p>Warm up.</p>",
		QuizTitle:   "Arithmetic",
		Questions: []publish.QuestionParams{
			{Question: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: 1},
			{Question: "What is 3 - 3?", Options: []string{"0", "1"}, CorrectAnswer: 0},
		},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	quizRepo := infraredis.NewQuizRepository(redisClient, store, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, quizRepo, 5*time.Minute)

	publisher, closePublisher, err := events.Dial(amqpURL, "")
	if err != nil {
		t.Fatalf("dial rabbit: %v", err)
	}
	defer closePublisher()
	deliveries := consumeCompletions(t, amqpURL)

	service := app.NewQuizService(sessionStore, quizRepo, app.WithResultPublisher(publisher))

	started, err := service.Start(ctx, res.PostID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, a := range []quiz.Action{
		{Type: quiz.ActionSelectAnswer, Question: 0, Option: 1},
		{Type: quiz.ActionCheckAnswer, Question: 0},
		{Type: quiz.ActionNextQuestion},
		{Type: quiz.ActionSelectAnswer, Question: 1, Option: 0},
	} {
		if _, err := service.Dispatch(ctx, started.SessionID, a); err != nil {
			t.Fatalf("dispatch %s: %v", a.Type, err)
		}
	}

	// Another instance picks the session up from Redis and finishes it.
	other := app.NewQuizService(infraredis.NewSessionStore(redisClient, quizRepo, 5*time.Minute), quizRepo,
		app.WithResultPublisher(publisher))
	view, err := other.Dispatch(ctx, started.SessionID, quiz.Action{Type: quiz.ActionFinishQuiz})
	if err != nil {
		t.Fatalf("finish on other instance: %v", err)
	}
	if view.View.Result == nil || view.View.Result.ScoreLabel != "2/2 (100%)" || view.View.Result.Tier != domain.TierExcellent {
		t.Fatalf("unexpected result %+v", view.View.Result)
	}

	select {
	case d := <-deliveries:
		var ev domain.CompletionEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if ev.QuizID != res.PostID || ev.Score != 2 || !ev.Passed {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("no completion event received")
	}

	doc, err := service.StructuredData(ctx, res.PostID, schema.Context{PageURL: res.PostURL})
	if err != nil {
		t.Fatalf("structured data: %v", err)
	}
	if doc.Author == nil || doc.Author.Name != "Quiz Desk" || len(doc.HasPart) != 2 {
		t.Fatalf("unexpected structured data %+v", doc)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container := startContainer(t, ctx, req)
	host, port := endpoint(t, ctx, container, "5432/tcp")
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port)
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container := startContainer(t, ctx, req)
	host, port := endpoint(t, ctx, container, "6379/tcp")
	url := fmt.Sprintf("redis://%s:%s", host, port)
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func startRabbit(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "rabbitmq:3-alpine",
		ExposedPorts: []string{"5672/tcp"},
		WaitingFor:   wait.ForLog("Server startup complete").WithStartupTimeout(90 * time.Second),
	}
	container := startContainer(t, ctx, req)
	host, port := endpoint(t, ctx, container, "5672/tcp")
	url := fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port)
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest) tc.Container {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	return container
}

func endpoint(t *testing.T, ctx context.Context, container tc.Container, port string) (string, string) {
	t.Helper()
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return host, mapped.Port()
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

// consumeCompletions binds an exclusive queue to the completion routing key.
func consumeCompletions(t *testing.T, url string) <-chan amqp.Delivery {
	t.Helper()
	conn, err := amqp.Dial(url)
	if err != nil {
		t.Fatalf("dial rabbit consumer: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	ch, err := conn.Channel()
	if err != nil {
		t.Fatalf("consumer channel: %v", err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		t.Fatalf("declare queue: %v", err)
	}
	if err := ch.QueueBind(q.Name, events.CompletedRoutingKey, events.DefaultExchange, false, nil); err != nil {
		t.Fatalf("bind queue: %v", err)
	}
	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	return msgs
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
