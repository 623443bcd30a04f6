package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"eduquiz-service/internal/app"
	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/infra/postgres"
	pgmigrations "eduquiz-service/internal/infra/postgres/migrations"
	infraredis "eduquiz-service/internal/infra/redis"
	"eduquiz-service/internal/session"
	"eduquiz-service/internal/store"
	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	testingclock "k8s.io/utils/clock/testing"
)

func TestPlayEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

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

	st := store.New(postgres.NewBlob(pool, ""))
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	fake := testingclock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	auth := app.NewAuthService(st, nil)
	catalog := app.NewCatalogService(st)
	play := app.NewPlayService(st, sessions, session.WithClock(fake))

	quizID := seedQuiz(t, ctx, catalog)

	bob, err := auth.LoginStudent(ctx, "Bob")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := play.Start(ctx, bob, quizID); err != nil {
		t.Fatalf("start: %v", err)
	}
	markerKey := "eduquiz:session:" + bob.ID
	if live, err := redisClient.Get(ctx, markerKey).Result(); err != nil || live != quizID {
		t.Fatalf("expected live session marker for %s, got %q %v", quizID, live, err)
	}

	fake.Step(2 * time.Second)
	rec, err := play.Answer(ctx, bob.ID, domain.OptionAnswer(1))
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !rec.Correct || rec.TimeTaken != 2 {
		t.Fatalf("expected correct answer in 2s, got %+v", rec)
	}
	if _, err := play.Continue(ctx, bob.ID); err != nil {
		t.Fatalf("continue: %v", err)
	}
	outcome, err := play.Finish(ctx, bob)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if outcome.Percent != 100 || outcome.Result.UserName != "Bob" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if n, _ := redisClient.Exists(ctx, markerKey).Result(); n != 0 {
		t.Fatalf("expected live session key removed after finish")
	}

	// A fresh store reads back what the first one wrote.
	reloaded, err := store.New(postgres.NewBlob(pool, "")).Snapshot(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.Results) != 1 || reloaded.Results[0].ID != outcome.Result.ID {
		t.Fatalf("expected stored result, got %+v", reloaded.Results)
	}
	if _, ok := reloaded.FindStudent("bob"); !ok {
		t.Fatalf("expected student persisted, got %+v", reloaded.Users)
	}
}

func seedQuiz(t *testing.T, ctx context.Context, catalog *app.CatalogService) string {
	t.Helper()
	theme, err := catalog.CreateTheme(ctx, domain.Theme{Name: "Math"})
	if err != nil {
		t.Fatalf("create theme: %v", err)
	}
	quiz, err := catalog.CreateQuiz(ctx, domain.Quiz{ThemeID: theme.ID, Title: "Sums"})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	_, err = catalog.CreateQuestion(ctx, domain.Question{
		QuizID:             quiz.ID,
		Type:               domain.QuestionMultiple,
		Text:               "What is 2 + 2?",
		Options:            []string{"3", "4", "5"},
		CorrectAnswerIndex: 1,
		TimeLimit:          10,
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	return quiz.ID
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

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "eduquiz", "POSTGRES_PASSWORD": "eduquiz", "POSTGRES_DB": "eduquiz"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container := startContainer(t, ctx, req)
	endpoint := mappedEndpoint(t, ctx, container, "5432/tcp")
	dsn := fmt.Sprintf("postgres://eduquiz:eduquiz@%s/eduquiz?sslmode=disable", endpoint)
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
	endpoint := mappedEndpoint(t, ctx, container, "6379/tcp")
	return "redis://" + endpoint, func() {
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

func mappedEndpoint(t *testing.T, ctx context.Context, container tc.Container, port string) string {
	t.Helper()
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
