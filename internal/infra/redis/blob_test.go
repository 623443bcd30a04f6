package redis

import (
	"context"
	"errors"
	"testing"

	"eduquiz-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestBlobRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	blob := NewBlob(newClient(mr), "")

	if _, err := blob.Load(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found before first save, got %v", err)
	}
	if err := blob.Save(ctx, []byte(`{"users":[]}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := mr.Get(DefaultDataKey)
	if err != nil || got != `{"users":[]}` {
		t.Fatalf("expected blob under default key, got %q err=%v", got, err)
	}
	raw, err := blob.Load(ctx)
	if err != nil || string(raw) != `{"users":[]}` {
		t.Fatalf("load: %q err=%v", raw, err)
	}
}

func TestTokenStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	tokens := NewTokenStore(newClient(mr), "eduquiz")
	if _, ok, err := tokens.Load(ctx); ok || err != nil {
		t.Fatalf("expected nobody logged in, ok=%v err=%v", ok, err)
	}
	if err := tokens.Save(ctx, domain.User{ID: "u1", Name: "Ana", Role: domain.RoleUser}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("eduquiz:current-user") {
		t.Fatalf("expected current user key")
	}
	user, ok, err := tokens.Load(ctx)
	if err != nil || !ok || user.ID != "u1" {
		t.Fatalf("expected u1, got %+v ok=%v err=%v", user, ok, err)
	}
	if err := tokens.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := tokens.Load(ctx); ok {
		t.Fatalf("expected token cleared")
	}
}
