package memory

import (
	"testing"

	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/session"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	first := newSession(t)
	if prev := store.Swap("u1", first); prev != nil {
		t.Fatalf("expected no previous session, got %v", prev)
	}
	if got, ok := store.Get("u1"); !ok || got != first {
		t.Fatalf("expected session present")
	}

	second := newSession(t)
	if prev := store.Swap("u1", second); prev != first {
		t.Fatalf("expected swap to return the replaced session")
	}

	// A stale delete must not drop the newer session.
	store.Delete("u1", first)
	if _, ok := store.Get("u1"); !ok {
		t.Fatalf("expected newer session to survive stale delete")
	}

	store.Delete("u1", second)
	if _, ok := store.Get("u1"); ok {
		t.Fatalf("expected session removed")
	}
}

func newSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.New(domain.Quiz{ID: "quiz-1"}, []domain.Question{{
		ID:                 "q1",
		Type:               domain.QuestionBoolean,
		Options:            []string{"True", "False"},
		CorrectAnswerIndex: 0,
		TimeLimit:          10,
	}})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}
