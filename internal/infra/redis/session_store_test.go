package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"bantay-bayan/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr), time.Minute)

	token, err := store.Create(ctx, domain.CallerIdentity{UserID: "admin", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("quiz:session:" + token) {
		t.Fatalf("expected redis key to be set")
	}
	identity, err := store.Resolve(ctx, token)
	if err != nil || !identity.IsAdmin() {
		t.Fatalf("resolve: %+v %v", identity, err)
	}

	_ = store.Revoke(ctx, token)
	if mr.Exists("quiz:session:" + token) {
		t.Fatalf("expected redis key to be removed")
	}
	if _, err := store.Resolve(ctx, token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionStoreExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr), time.Minute)
	_ = store.Put(ctx, "t1", domain.CallerIdentity{UserID: "u1", Role: domain.RoleUser})

	mr.FastForward(2 * time.Minute)
	if _, err := store.Resolve(ctx, "t1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}
