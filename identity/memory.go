package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/feldspar-io/authcore"
)

// MemoryStore is an in-process authcore.IdentityStore for tests and
// examples. It enforces the same email uniqueness as the Postgres store.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*authcore.Identity
	byEmail map[string]*authcore.Identity
}

// NewMemoryStore returns an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*authcore.Identity),
		byEmail: make(map[string]*authcore.Identity),
	}
}

// FindByEmail returns the identity registered under email, or
// authcore.ErrUserNotFound.
func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*authcore.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.byEmail[email]
	if !ok {
		return nil, authcore.ErrUserNotFound
	}
	copied := *identity
	return &copied, nil
}

// FindByID returns the identity with the given ID, or
// authcore.ErrUserNotFound.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*authcore.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.byID[id]
	if !ok {
		return nil, authcore.ErrUserNotFound
	}
	copied := *identity
	return &copied, nil
}

// Create stores a new identity, assigning its ID and creation time. An
// email collision returns authcore.ErrDuplicateUser.
func (s *MemoryStore) Create(ctx context.Context, identity *authcore.Identity) (*authcore.Identity, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[identity.Email]; exists {
		return nil, authcore.ErrDuplicateUser
	}

	created := *identity
	created.ID = id.String()
	created.CreatedAt = time.Now().UTC()

	s.byID[created.ID] = &created
	s.byEmail[created.Email] = &created

	copied := created
	return &copied, nil
}

// Delete removes an identity, primarily to exercise user-gone paths in
// tests. Deleting an absent identity is not an error.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byEmail, identity.Email)
	delete(s.byID, id)
}
