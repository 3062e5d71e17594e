package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/feldspar-io/authcore"
)

func TestMemoryStoreCreateAndFind(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.Create(ctx, &authcore.Identity{
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected an assigned ID")
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("expected creation time to be set")
	}

	byEmail, err := store.FindByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("expected ID %s, got %s", created.ID, byEmail.ID)
	}

	byID, err := store.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Fatalf("unexpected email %q", byID.Email)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := store.FindByID(ctx, "missing"); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestMemoryStoreDuplicateEmail(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, &authcore.Identity{Email: "alice@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(ctx, &authcore.Identity{Email: "alice@example.com"}); !errors.Is(err, authcore.ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.Create(ctx, &authcore.Identity{Email: "alice@example.com", Name: "Alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Name = "Mallory"

	fetched, err := store.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.Name != "Alice" {
		t.Fatalf("expected stored identity to be unaffected, got name %q", fetched.Name)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.Create(ctx, &authcore.Identity{Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	store.Delete(created.ID)
	store.Delete(created.ID)

	if _, err := store.FindByID(ctx, created.ID); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}
	if _, err := store.FindByEmail(ctx, "alice@example.com"); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("expected email index to be cleared, got %v", err)
	}
}
