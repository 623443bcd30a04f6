package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"eduquiz-service/internal/app"
	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/infra/memory"
	"eduquiz-service/internal/session"
	"eduquiz-service/internal/store"
	testingclock "k8s.io/utils/clock/testing"
)

func TestPlayThroughRecordsResult(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ana := env.student(t, "Ana")

	sess, err := env.play.Start(ctx, ana, "quiz-1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if view := sess.Current(); view.Total != 2 || view.Index != 0 || view.Phase != session.PhasePresenting {
		t.Fatalf("unexpected first view %+v", sess.Current())
	}

	env.clock.Step(3 * time.Second)
	rec, err := env.play.Answer(ctx, ana.ID, domain.OptionAnswer(1))
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if !rec.Correct || rec.TimeTaken != 3 {
		t.Fatalf("expected correct answer in 3s, got %+v", rec)
	}
	if _, err := env.play.Continue(ctx, ana.ID); err != nil {
		t.Fatalf("continue failed: %v", err)
	}

	env.clock.Step(4 * time.Second)
	if _, err := env.play.Answer(ctx, ana.ID, domain.TextAnswer("  lisboa ")); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if _, err := env.play.Continue(ctx, ana.ID); err != nil {
		t.Fatalf("continue failed: %v", err)
	}

	out, err := env.play.Finish(ctx, ana)
	if err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if out.Result.Score != 2 || out.Result.TimeSpent != 7 || out.Result.AverageResponseTime != 3.5 {
		t.Fatalf("unexpected result %+v", out.Result)
	}
	if out.Result.ID == "" || out.Result.UserName != "Ana" || out.Result.ThemeID != "theme-1" {
		t.Fatalf("result not stamped: %+v", out.Result)
	}
	if out.Percent != 100 || out.Feedback.Title != "Perfect!" || len(out.History) != 2 {
		t.Fatalf("unexpected outcome %+v", out)
	}

	data, err := env.store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(data.Results) != 1 || data.Results[0].ID != out.Result.ID {
		t.Fatalf("expected result stored, got %+v", data.Results)
	}
	if _, err := env.play.Current(ctx, ana.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session dropped after finish, got %v", err)
	}
}

func TestFinishBeforeCompleteKeepsSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ana := env.student(t, "Ana")

	if _, err := env.play.Start(ctx, ana, "quiz-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := env.play.Finish(ctx, ana); !errors.Is(err, domain.ErrSessionNotComplete) {
		t.Fatalf("expected not complete, got %v", err)
	}
	if _, err := env.play.Current(ctx, ana.ID); err != nil {
		t.Fatalf("session must survive a rejected finish: %v", err)
	}
	data, _ := env.store.Snapshot(ctx)
	if len(data.Results) != 0 {
		t.Fatalf("expected no result, got %d", len(data.Results))
	}
}

func TestStartRejectsUnknownAndEmptyQuiz(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ana := env.student(t, "Ana")

	if _, err := env.play.Start(ctx, ana, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	if _, err := env.play.Start(ctx, ana, "quiz-empty"); !errors.Is(err, domain.ErrQuizEmpty) {
		t.Fatalf("expected empty quiz, got %v", err)
	}
}

func TestStartReplacesPreviousAttempt(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ana := env.student(t, "Ana")

	if _, err := env.play.Start(ctx, ana, "quiz-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	ch, cancel, err := env.play.Subscribe(ctx, ana.ID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	if _, err := env.play.Start(ctx, ana, "quiz-1"); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	for range ch {
		// drained until the replaced session closes the channel
	}
	view, err := env.play.Current(ctx, ana.ID)
	if err != nil || view.Index != 0 {
		t.Fatalf("expected fresh attempt, got %+v err=%v", view, err)
	}
}

func TestAnswerRequiresSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if _, err := env.play.Answer(ctx, "nobody", domain.OptionAnswer(0)); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session error, got %v", err)
	}
	if _, _, err := env.play.Subscribe(ctx, "nobody"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session error, got %v", err)
	}
	env.play.Abandon(ctx, "nobody")
}

func TestReleaseLeavesNewerAttempt(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ana := env.student(t, "Ana")

	old, err := env.play.Start(ctx, ana, "quiz-1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := env.play.Start(ctx, ana, "quiz-1"); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	env.play.Release(ctx, ana.ID, old)
	if _, err := env.play.Current(ctx, ana.ID); err != nil {
		t.Fatalf("newer attempt must survive: %v", err)
	}
	if _, err := old.Submit(domain.OptionAnswer(1)); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected replaced session closed, got %v", err)
	}
}

func TestAbandonDropsAttempt(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ana := env.student(t, "Ana")

	if _, err := env.play.Start(ctx, ana, "quiz-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	env.play.Abandon(ctx, ana.ID)
	if _, err := env.play.Current(ctx, ana.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session removed, got %v", err)
	}
}

type testEnv struct {
	store *store.Store
	auth  *app.AuthService
	play  *app.PlayService
	clock *testingclock.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	data := domain.DefaultAppData()
	data.Themes = []domain.Theme{{ID: "theme-1", Name: "Geography"}}
	data.Quizzes = []domain.Quiz{
		{ID: "quiz-1", ThemeID: "theme-1", Title: "Capitals"},
		{ID: "quiz-empty", ThemeID: "theme-1", Title: "Nothing yet"},
	}
	data.Questions = []domain.Question{
		{
			ID:                 "q1",
			QuizID:             "quiz-1",
			Type:               domain.QuestionMultiple,
			Text:               "Capital of Brazil?",
			Options:            []string{"Rio", "Brasília", "Salvador"},
			CorrectAnswerIndex: 1,
			TimeLimit:          10,
		},
		{
			ID:                "q2",
			QuizID:            "quiz-1",
			Type:              domain.QuestionShortAnswer,
			Text:              "Capital of Portugal?",
			CorrectAnswerText: "Lisboa",
			TimeLimit:         10,
		},
	}

	st := store.New(memory.NewBlob())
	if err := st.Replace(context.Background(), data); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	clk := testingclock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	return &testEnv{
		store: st,
		auth:  app.NewAuthService(st, memory.NewTokenStore()),
		play:  app.NewPlayService(st, memory.NewSessionStore(), session.WithClock(clk)),
		clock: clk,
	}
}

func (e *testEnv) student(t *testing.T, name string) domain.User {
	t.Helper()
	u, err := e.auth.LoginStudent(context.Background(), name)
	if err != nil {
		t.Fatalf("login %s: %v", name, err)
	}
	return u
}
