package kv

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryGetSetDel(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("unexpected get %q %v", got, err)
	}
	if err := store.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryTTLExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	store := NewMemory().WithClock(func() time.Time { return now })

	if err := store.Set(ctx, "session", "token", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	now = now.Add(59 * time.Second)
	if _, err := store.Get(ctx, "session"); err != nil {
		t.Fatalf("expected live key, got %v", err)
	}
	now = now.Add(time.Second)
	if _, err := store.Get(ctx, "session"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestMemoryIncrWithTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	store := NewMemory().WithClock(func() time.Time { return now })

	for want := int64(1); want <= 3; want++ {
		got, err := store.IncrWithTTL(ctx, "rl", time.Minute)
		if err != nil {
			t.Fatalf("incr: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d got %d", want, got)
		}
	}

	now = now.Add(time.Minute)
	got, err := store.IncrWithTTL(ctx, "rl", time.Minute)
	if err != nil {
		t.Fatalf("incr: %v", err)
	}
	if got != 1 {
		t.Fatalf("window should reset after ttl, got %d", got)
	}
}

func TestKeySkipsEmptyParts(t *testing.T) {
	if got := Key("session", "", "access", "abc"); got != "portal:session:access:abc" {
		t.Fatalf("unexpected key %s", got)
	}
	if got := Key(); got != "portal" {
		t.Fatalf("unexpected bare key %s", got)
	}
}
