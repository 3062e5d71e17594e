package session

import (
	"context"
	"errors"
	"time"

	"github.com/feldspar-io/authcore/cache"
)

// ErrNotFound is returned by Get when no session exists for the token.
var ErrNotFound = errors.New("session not found")

const (
	// KeyPrefix is the stable cache namespace for session records.
	KeyPrefix = "session:"
	// UserIndexPrefix is the namespace for the per-user token index.
	UserIndexPrefix = "session_user:"
)

// Record is the wire format of a session value. The JSON field names are
// stable across deployments and must not change.
type Record struct {
	UserID    string `json:"userId"`
	CreatedAt int64  `json:"createdAt"`
}

// Store tracks server-visible session state for issued tokens. Sessions
// are a visibility layer on top of self-verifying tokens: they enable
// active-login listing and forced logout, but a token's validity never
// depends on them unless the caller opts in.
type Store struct {
	cache *cache.Client
}

// NewStore creates a session [Store] backed by the given cache client.
func NewStore(c *cache.Client) *Store {
	return &Store{cache: c}
}

func (s *Store) key(tokenID string) string {
	return KeyPrefix + tokenID
}

func (s *Store) userKey(subjectID string) string {
	return UserIndexPrefix + subjectID
}

// Create writes a session record for tokenID. The effective TTL is clamped
// to tokenRemaining so a session can never outlive the token that created
// it. A token with no remaining lifetime cannot get a session.
func (s *Store) Create(ctx context.Context, tokenID, subjectID string, ttl, tokenRemaining time.Duration) error {
	if tokenRemaining <= 0 {
		return errors.New("token has no remaining lifetime")
	}
	if ttl <= 0 || ttl > tokenRemaining {
		ttl = tokenRemaining
	}

	record := Record{
		UserID:    subjectID,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.cache.SetJSON(ctx, s.key(tokenID), record, ttl); err != nil {
		return err
	}

	// Best effort: a stale index entry is pruned on read or bulk delete.
	if err := s.cache.SetAdd(ctx, s.userKey(subjectID), tokenID); err != nil {
		return err
	}
	return nil
}

// Get returns the session for tokenID, or [ErrNotFound].
func (s *Store) Get(ctx context.Context, tokenID string) (*Record, error) {
	var record Record
	if err := s.cache.GetJSON(ctx, s.key(tokenID), &record); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Exists reports whether a session is present for tokenID.
func (s *Store) Exists(ctx context.Context, tokenID string) (bool, error) {
	return s.cache.Exists(ctx, s.key(tokenID))
}

// Delete removes the session for tokenID and its index entry. Deleting an
// absent session is not an error.
func (s *Store) Delete(ctx context.Context, tokenID string) error {
	record, err := s.Get(ctx, tokenID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.cache.SetRemove(ctx, s.userKey(record.UserID), tokenID); err != nil {
		return err
	}
	return s.cache.Delete(ctx, s.key(tokenID))
}

// ActiveTokenIDs returns the token IDs with a live session for subjectID.
// Index entries whose session expired naturally are pruned as a side
// effect.
func (s *Store) ActiveTokenIDs(ctx context.Context, subjectID string) ([]string, error) {
	tracked, err := s.cache.SetMembers(ctx, s.userKey(subjectID))
	if err != nil {
		return nil, err
	}

	active := make([]string, 0, len(tracked))
	var stale []string
	for _, tokenID := range tracked {
		ok, err := s.cache.Exists(ctx, s.key(tokenID))
		if err != nil {
			return nil, err
		}
		if ok {
			active = append(active, tokenID)
		} else {
			stale = append(stale, tokenID)
		}
	}

	if len(stale) > 0 {
		if err := s.cache.SetRemove(ctx, s.userKey(subjectID), stale...); err != nil {
			return nil, err
		}
	}
	return active, nil
}

// DeleteAllForUser removes every tracked session for subjectID and clears
// the index, returning the number of session records removed. A session
// created concurrently with this call may survive; it expires naturally.
func (s *Store) DeleteAllForUser(ctx context.Context, subjectID string) (int, error) {
	tracked, err := s.cache.SetMembers(ctx, s.userKey(subjectID))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, tokenID := range tracked {
		ok, err := s.cache.Exists(ctx, s.key(tokenID))
		if err != nil {
			return removed, err
		}
		if ok {
			if err := s.cache.Delete(ctx, s.key(tokenID)); err != nil {
				return removed, err
			}
			removed++
		}
	}

	if err := s.cache.Delete(ctx, s.userKey(subjectID)); err != nil {
		return removed, err
	}
	return removed, nil
}
