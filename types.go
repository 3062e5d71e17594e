package authcore

import (
	"context"
	"time"

	"github.com/feldspar-io/authcore/token"
)

// Identity is a registered account as held by the durable store. The
// PasswordHash field is an opaque encoded hash and never leaves the
// package through Coordinator return values.
type Identity struct {
	ID           string
	Email        string
	Name         string
	IsAdmin      bool
	PasswordHash string
	CreatedAt    time.Time
}

// RegisterInput carries the caller-supplied fields for a new account.
type RegisterInput struct {
	Email  string
	Name   string
	Secret string
	Admin  bool
}

// LoginResult is a freshly issued token and the claims embedded in it.
type LoginResult struct {
	Token  string
	Claims *token.Claims
}

// Claims re-exports the signed claim set for callers that never import
// the token package directly.
type Claims = token.Claims

// IdentityStore is the durable, authoritative record of accounts. The
// cache only ever holds hints derived from it.
//
// Implementations return [ErrUserNotFound] for absent identities and
// [ErrDuplicateUser] for email collisions on Create.
type IdentityStore interface {
	// FindByEmail looks up an identity by its normalized email.
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	// FindByID looks up an identity by its stable ID.
	FindByID(ctx context.Context, id string) (*Identity, error)
	// Create persists a new identity and returns it with its assigned ID.
	Create(ctx context.Context, identity *Identity) (*Identity, error)
}

// identityHint is the cached projection of an Identity used for the
// registration fast path. It deliberately excludes the password hash.
type identityHint struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"admin"`
}
