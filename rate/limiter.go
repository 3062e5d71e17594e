package rate

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/feldspar-io/authcore/cache"
)

// KeyPrefix is the stable cache namespace for rate counters.
const KeyPrefix = "ratelimit:"

// Result is the outcome of a single counted request.
type Result struct {
	// Count is the request's position within the current window (1-based).
	Count int64
	// Allowed is Count <= limit. The limiter reports; callers enforce.
	Allowed bool
}

// Limiter counts requests per identifier in fixed windows backed by the
// shared cache. The increment is atomic on the server, so concurrent
// requests across processes never need client-side locking.
type Limiter struct {
	cache *cache.Client
}

// NewLimiter creates a [Limiter] backed by the given cache client.
func NewLimiter(c *cache.Client) *Limiter {
	return &Limiter{cache: c}
}

func (l *Limiter) key(identifier string) string {
	return KeyPrefix + identifier
}

// Check counts one request for identifier against limit within a fixed
// window. The first increment of a window attaches the window TTL; the
// counter then grows monotonically until the window expires and a fresh
// one begins at zero. Cache failures propagate; a throttling decision is
// never invented client-side.
func (l *Limiter) Check(ctx context.Context, identifier string, window time.Duration, limit int64) (Result, error) {
	key := l.key(identifier)

	count, err := l.cache.Increment(ctx, key)
	if err != nil {
		return Result{}, err
	}

	// Fixed-window semantics: only the first hit starts the clock.
	if count == 1 {
		if err := l.cache.Expire(ctx, key, window); err != nil {
			return Result{}, err
		}
	}

	return Result{Count: count, Allowed: count <= limit}, nil
}

// Count returns the current window counter without incrementing. A missing
// key reads as zero.
func (l *Limiter) Count(ctx context.Context, identifier string) (int64, error) {
	val, err := l.cache.Get(ctx, l.key(identifier))
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return 0, nil
		}
		return 0, err
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil || count < 0 {
		return 0, nil
	}
	return count, nil
}

// Reset clears the window for identifier.
func (l *Limiter) Reset(ctx context.Context, identifier string) error {
	return l.cache.Delete(ctx, l.key(identifier))
}
