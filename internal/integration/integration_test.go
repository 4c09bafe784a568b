package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-scoring-service/internal/app"
	"quiz-scoring-service/internal/domain"
	"quiz-scoring-service/internal/infra/postgres"
	pgmigrations "quiz-scoring-service/internal/infra/postgres/migrations"
	infraredis "quiz-scoring-service/internal/infra/redis"
)

func TestScoringEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	repo := postgres.NewRepository(db)
	stats := postgres.NewStatsReader(pool)
	questions := infraredis.NewQuestionCache(redisClient, repo, 5*time.Minute)

	quiz := app.NewQuizService(questions, repo, repo)
	report := app.NewStatsService(questions, stats)

	q1, err := quiz.CreateQuestion(ctx, sampleQuestion("geography", 1))
	if err != nil {
		t.Fatalf("create q1: %v", err)
	}
	q2, err := quiz.CreateQuestion(ctx, sampleQuestion("science", 2))
	if err != nil {
		t.Fatalf("create q2: %v", err)
	}

	session, err := quiz.StartSession(ctx, "alice")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	seconds := 4
	answer, err := quiz.SubmitAnswer(ctx, session.ID, q1.ID, 1, &seconds)
	if err != nil {
		t.Fatalf("submit q1: %v", err)
	}
	if !answer.Correct {
		t.Fatalf("expected correct answer, got %+v", answer)
	}

	// Duplicate pair must lose against the unique constraint.
	if _, err := quiz.SubmitAnswer(ctx, session.ID, q1.ID, 0, nil); !errors.Is(err, domain.ErrDuplicateAnswer) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	if _, err := quiz.SubmitAnswer(ctx, session.ID, q2.ID, 0, nil); err != nil {
		t.Fatalf("submit q2: %v", err)
	}

	total := 30
	completed, err := quiz.CompleteSession(ctx, session.ID, &total)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Score != 10 || completed.Answered != 2 || completed.Correct != 1 {
		t.Fatalf("unexpected completed session: %+v", completed)
	}
	if completed.State != domain.SessionCompleted || completed.EndedAt == nil {
		t.Fatalf("expected completed stamp, got %+v", completed)
	}

	score, err := quiz.SessionScore(ctx, session.ID)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score.AccuracyPct != 50.0 || score.AvgResponseSeconds != 4.0 {
		t.Fatalf("unexpected score summary: %+v", score)
	}

	summary, err := report.Global(ctx)
	if err != nil {
		t.Fatalf("global: %v", err)
	}
	if summary.ActiveQuestions != 2 || summary.CompletedSessions != 1 {
		t.Fatalf("unexpected global summary: %+v", summary)
	}
	if summary.OverallAccuracyPct != 50.0 {
		t.Fatalf("expected 50%% overall accuracy, got %v", summary.OverallAccuracyPct)
	}
	if len(summary.HardestCategories) == 0 || summary.HardestCategories[0].Category != "science" {
		t.Fatalf("expected science hardest, got %+v", summary.HardestCategories)
	}

	difficult, err := report.DifficultQuestions(ctx, 10)
	if err != nil {
		t.Fatalf("difficult: %v", err)
	}
	if len(difficult) != 2 || difficult[0].QuestionID != q2.ID {
		t.Fatalf("expected q2 hardest, got %+v", difficult)
	}

	again, err := questions.GetQuestion(ctx, q1.ID)
	if err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if again.Prompt != q1.Prompt {
		t.Fatalf("cached question differs: %+v", again)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, cleanup := startPostgres(t, ctx)
	defer cleanup()

	db := openBun(t, ctx, pgURL)
	defer db.Close()

	repo := postgres.NewRepository(db)
	quiz := app.NewQuizService(repo, repo, repo)

	question, err := quiz.CreateQuestion(ctx, sampleQuestion("history", 0))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	session, err := quiz.StartSession(ctx, "bob")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	answer, err := quiz.SubmitAnswer(ctx, session.ID, question.ID, 0, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := quiz.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetAnswer(ctx, answer.ID); !errors.Is(err, domain.ErrAnswerNotFound) {
		t.Fatalf("expected answer cascaded, got %v", err)
	}
	if _, err := quiz.GetSession(ctx, session.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session gone, got %v", err)
	}
}

func sampleQuestion(category string, correct int) domain.Question {
	return domain.Question{
		Prompt:       fmt.Sprintf("Pick option %d", correct),
		Options:      []string{"A", "B", "C"},
		CorrectIndex: correct,
		Category:     category,
		Difficulty:   domain.DifficultyEasy,
	}
}

func openBun(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
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
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
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
