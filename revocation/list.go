package revocation

import (
	"context"
	"time"

	"github.com/feldspar-io/authcore/cache"
)

// KeyPrefix is the stable cache namespace for revocation markers.
const KeyPrefix = "blacklist:"

// Presence of the key is the entire signal; the value is a placeholder.
const sentinel = "1"

// List tracks explicitly invalidated tokens. Each marker carries a TTL
// equal to the token's remaining lifetime at revocation time, so the set
// only ever holds currently-valid-but-revoked tokens and needs no cleanup.
type List struct {
	cache *cache.Client
}

// NewList creates a revocation [List] backed by the given cache client.
func NewList(c *cache.Client) *List {
	return &List{cache: c}
}

func (l *List) key(tokenID string) string {
	return KeyPrefix + tokenID
}

// Revoke inserts a marker for tokenID that self-expires after remaining.
// A token with no remaining lifetime is already unusable; revoking it is a
// no-op.
func (l *List) Revoke(ctx context.Context, tokenID string, remaining time.Duration) error {
	if remaining <= 0 {
		return nil
	}
	return l.cache.Set(ctx, l.key(tokenID), sentinel, remaining)
}

// IsRevoked reports whether tokenID has been revoked. Cache failures
// propagate to the caller, which must treat them as "cannot authenticate",
// never as "not revoked".
func (l *List) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return l.cache.Exists(ctx, l.key(tokenID))
}
