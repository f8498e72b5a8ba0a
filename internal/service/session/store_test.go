package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parentpass/adminchat/backend/internal/model/chat"
)

func TestStoreCreateGet(t *testing.T) {
	store := NewStore(DefaultTTL)
	ctx := context.Background()

	created, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected non-empty session id")
	}
	if len(created.Messages) != 0 {
		t.Fatalf("new session should have no messages, got %d", len(created.Messages))
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, created.ID)
	}
}

func TestStoreGetNotFound(t *testing.T) {
	store := NewStore(DefaultTTL)

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreDeleteIdempotent(t *testing.T) {
	store := NewStore(DefaultTTL)
	ctx := context.Background()

	created, _ := store.Create(ctx)

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("first Delete err: %v", err)
	}
	if err := store.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete: expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Delete: expected ErrNotFound, got %v", err)
	}
}

func TestStoreExpiryIsAbsolute(t *testing.T) {
	store := NewStore(DefaultTTL)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	created, _ := store.Create(ctx)

	// Activity just before the deadline does not slide the lifetime.
	store.now = func() time.Time { return base.Add(DefaultTTL - time.Minute) }
	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get before expiry err: %v", err)
	}
	if _, err := store.Commit(ctx, got); err != nil {
		t.Fatalf("Commit before expiry err: %v", err)
	}

	store.now = func() time.Time { return base.Add(DefaultTTL) }
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired Get: expected ErrNotFound, got %v", err)
	}
	if _, err := store.Commit(ctx, got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired Commit: expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired Delete: expected ErrNotFound, got %v", err)
	}
}

func TestStoreGetIsPassive(t *testing.T) {
	store := NewStore(DefaultTTL)
	ctx := context.Background()

	created, _ := store.Create(ctx)

	got, _ := store.Get(ctx, created.ID)
	if !got.LastAccessedAt.Equal(created.LastAccessedAt) {
		t.Fatal("Get must not touch LastAccessedAt")
	}

	committed, err := store.Commit(ctx, got)
	if err != nil {
		t.Fatalf("Commit err: %v", err)
	}
	if committed.LastAccessedAt.Before(created.LastAccessedAt) {
		t.Fatal("Commit should refresh LastAccessedAt")
	}
}

func TestStoreCommitConflict(t *testing.T) {
	store := NewStore(DefaultTTL)
	ctx := context.Background()

	created, _ := store.Create(ctx)

	first, _ := store.Get(ctx, created.ID)
	second, _ := store.Get(ctx, created.ID)

	first.Append(chat.NewTurn(chat.RoleUser, "hello from A"))
	if _, err := store.Commit(ctx, first); err != nil {
		t.Fatalf("first Commit err: %v", err)
	}

	second.Append(chat.NewTurn(chat.RoleUser, "hello from B"))
	if _, err := store.Commit(ctx, second); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale Commit: expected ErrConflict, got %v", err)
	}

	// The loser re-reads and succeeds against the new version.
	retry, _ := store.Get(ctx, created.ID)
	retry.Append(chat.NewTurn(chat.RoleUser, "hello from B"))
	if _, err := store.Commit(ctx, retry); err != nil {
		t.Fatalf("retried Commit err: %v", err)
	}

	final, _ := store.Get(ctx, created.ID)
	if len(final.Messages) != 2 {
		t.Fatalf("expected 2 messages after both commits, got %d", len(final.Messages))
	}
}

func TestStoreCommitDoesNotShareBackingArray(t *testing.T) {
	store := NewStore(DefaultTTL)
	ctx := context.Background()

	created, _ := store.Create(ctx)
	snapshot, _ := store.Get(ctx, created.ID)
	snapshot.Append(chat.NewTurn(chat.RoleUser, "original"))
	if _, err := store.Commit(ctx, snapshot); err != nil {
		t.Fatalf("Commit err: %v", err)
	}

	snapshot.Messages[0].Content = "mutated after commit"

	got, _ := store.Get(ctx, created.ID)
	if got.Messages[0].Content != "original" {
		t.Fatal("stored state must not alias caller-owned slices")
	}
}

func TestStoreReap(t *testing.T) {
	store := NewStore(time.Hour)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	old, _ := store.Create(ctx)

	store.now = func() time.Time { return base.Add(30 * time.Minute) }
	fresh, _ := store.Create(ctx)

	store.now = func() time.Time { return base.Add(70 * time.Minute) }
	if reaped := store.reap(); reaped != 1 {
		t.Fatalf("expected 1 reaped session, got %d", reaped)
	}
	if _, err := store.Get(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Fatal("old session should be gone")
	}
	if _, err := store.Get(ctx, fresh.ID); err != nil {
		t.Fatalf("fresh session should survive, got %v", err)
	}
}
