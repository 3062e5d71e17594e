package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned by every operation while the client is not
// connected, and wraps the underlying cause when a command fails.
var ErrUnavailable = errors.New("cache unavailable")

// ErrMiss is returned by read operations when the key does not exist.
var ErrMiss = errors.New("cache miss")

// State is the connection lifecycle state of a [Client].
type State int32

const (
	// StateDisconnected is the initial state, and the terminal state after
	// the reconnect budget is exhausted.
	StateDisconnected State = iota
	// StateConnecting is the state during the initial Connect.
	StateConnecting
	// StateReady means operations are being accepted.
	StateReady
	// StateReconnecting means a transient failure was observed and a
	// background reconnect is in flight. Operations fail fast meanwhile.
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// Config holds cache connection parameters.
type Config struct {
	Addr                 string
	Password             string
	DB                   int
	MaxReconnectAttempts int
	ReconnectBackoff     time.Duration
	MaxReconnectBackoff  time.Duration
	OpTimeout            time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = 10
	}
	if c.ReconnectBackoff <= 0 {
		c.ReconnectBackoff = 250 * time.Millisecond
	}
	if c.MaxReconnectBackoff <= 0 {
		c.MaxReconnectBackoff = 10 * time.Second
	}
	if c.OpTimeout <= 0 {
		c.OpTimeout = 2 * time.Second
	}
	return c
}

// Client wraps a shared Redis connection handle with an explicit lifecycle:
// Disconnected -> Connecting -> Ready, and Ready -> Reconnecting ->
// Ready|Disconnected on transient failures. All operations fail fast with
// [ErrUnavailable] unless the client is Ready; they never silently succeed
// against a stale handle. The handle is safe for unbounded concurrent use.
type Client struct {
	rdb    redis.UniversalClient
	config Config
	log    *slog.Logger

	state        atomic.Int32
	reconnectMu  sync.Mutex
	reconnecting bool
}

// New creates an unconnected [Client]. Call [Client.Connect] before use.
// A nil logger discards log output.
func New(cfg Config, log *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			// The client owns retry policy; disable the driver's own.
			MaxRetries: -1,
		}),
		config: cfg,
		log:    log,
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Connect pings the server, retrying with bounded exponential backoff up to
// the configured attempt budget. On success the client becomes Ready; on
// failure it stays Disconnected and the last error is returned.
func (c *Client) Connect(ctx context.Context) error {
	c.state.Store(int32(StateConnecting))

	var lastErr error
	backoff := c.config.ReconnectBackoff
	for attempt := 1; attempt <= c.config.MaxReconnectAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, c.config.OpTimeout)
		lastErr = c.rdb.Ping(pingCtx).Err()
		cancel()
		if lastErr == nil {
			c.state.Store(int32(StateReady))
			c.log.Info("cache connected", "addr", c.config.Addr)
			return nil
		}

		select {
		case <-ctx.Done():
			c.state.Store(int32(StateDisconnected))
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = minDuration(backoff*2, c.config.MaxReconnectBackoff)
	}

	c.state.Store(int32(StateDisconnected))
	c.log.Error("cache connect failed", "addr", c.config.Addr, "attempts", c.config.MaxReconnectAttempts)
	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// Close releases the underlying connection and moves to Disconnected.
func (c *Client) Close() error {
	c.state.Store(int32(StateDisconnected))
	return c.rdb.Close()
}

// Ping reports point-in-time availability.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	ctx, cancel := c.opContext(ctx)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return c.fail(ctx, err)
	}
	return nil
}

// Get returns the string value at key, or [ErrMiss].
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	val, err := c.rdb.Get(opCtx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", c.fail(ctx, err)
	}
	return val, nil
}

// Set writes a value with the given TTL. A zero TTL means no expiry.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.ready(); err != nil {
		return err
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	if err := c.rdb.Set(opCtx, key, value, ttl).Err(); err != nil {
		return c.fail(ctx, err)
	}
	return nil
}

// GetJSON reads the value at key and decodes it into dest.
func (c *Client) GetJSON(ctx context.Context, key string, dest any) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("decode cached value at %q: %w", key, err)
	}
	return nil
}

// SetJSON encodes value as JSON and writes it with the given TTL.
func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for %q: %w", key, err)
	}
	return c.Set(ctx, key, string(encoded), ttl)
}

// Delete removes the given keys. Deleting absent keys is not an error.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.ready(); err != nil {
		return err
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	if err := c.rdb.Del(opCtx, keys...).Err(); err != nil {
		return c.fail(ctx, err)
	}
	return nil
}

// DeleteByPattern scans for keys matching pattern and deletes them,
// returning the number removed. This is O(keyspace) and intended for
// namespace-scoped bulk invalidation, not request hot paths.
func (c *Client) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}

	var (
		cursor  uint64
		deleted int
	)
	for {
		opCtx, cancel := c.opContext(ctx)
		keys, next, err := c.rdb.Scan(opCtx, cursor, pattern, 500).Result()
		cancel()
		if err != nil {
			return deleted, c.fail(ctx, err)
		}

		if len(keys) > 0 {
			opCtx, cancel := c.opContext(ctx)
			n, err := c.rdb.Del(opCtx, keys...).Result()
			cancel()
			if err != nil {
				return deleted, c.fail(ctx, err)
			}
			deleted += int(n)
		}

		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// Exists reports whether key is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	n, err := c.rdb.Exists(opCtx, key).Result()
	if err != nil {
		return false, c.fail(ctx, err)
	}
	return n > 0, nil
}

// Increment atomically increments the integer at key and returns the new
// value. Concurrent increments are serialized by the server, never by
// client-side locking.
func (c *Client) Increment(ctx context.Context, key string) (int64, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	count, err := c.rdb.Incr(opCtx, key).Result()
	if err != nil {
		return 0, c.fail(ctx, err)
	}
	return count, nil
}

// Expire attaches a TTL to an existing key.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.ready(); err != nil {
		return err
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	if err := c.rdb.Expire(opCtx, key, ttl).Err(); err != nil {
		return c.fail(ctx, err)
	}
	return nil
}

// TTL returns the remaining lifetime of key. Keys without an expiry return
// a negative duration, matching the server convention.
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	ttl, err := c.rdb.TTL(opCtx, key).Result()
	if err != nil {
		return 0, c.fail(ctx, err)
	}
	return ttl, nil
}

// SetAdd adds members to the set at key.
func (c *Client) SetAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	if err := c.ready(); err != nil {
		return err
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := c.rdb.SAdd(opCtx, key, args...).Err(); err != nil {
		return c.fail(ctx, err)
	}
	return nil
}

// SetRemove removes members from the set at key. Absent members are ignored.
func (c *Client) SetRemove(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	if err := c.ready(); err != nil {
		return err
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := c.rdb.SRem(opCtx, key, args...).Err(); err != nil {
		return c.fail(ctx, err)
	}
	return nil
}

// SetMembers returns all members of the set at key. An absent set is an
// empty slice, not an error.
func (c *Client) SetMembers(ctx context.Context, key string) ([]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	members, err := c.rdb.SMembers(opCtx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, c.fail(ctx, err)
	}
	return members, nil
}

func (c *Client) ready() error {
	if c.State() != StateReady {
		return fmt.Errorf("%w: connection state %s", ErrUnavailable, c.State())
	}
	return nil
}

func (c *Client) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.config.OpTimeout)
}

// fail wraps a command error and, for server-side failures, kicks off a
// background reconnect. Caller cancellation is surfaced as-is: an abandoned
// call is not evidence that the server is down.
func (c *Client) fail(parent context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	c.noteFailure()
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (c *Client) noteFailure() {
	if !c.state.CompareAndSwap(int32(StateReady), int32(StateReconnecting)) {
		return
	}

	c.reconnectMu.Lock()
	if c.reconnecting {
		c.reconnectMu.Unlock()
		return
	}
	c.reconnecting = true
	c.reconnectMu.Unlock()

	c.log.Warn("cache connection lost, reconnecting", "addr", c.config.Addr)
	go c.reconnect()
}

func (c *Client) reconnect() {
	defer func() {
		c.reconnectMu.Lock()
		c.reconnecting = false
		c.reconnectMu.Unlock()
	}()

	backoff := c.config.ReconnectBackoff
	for attempt := 1; attempt <= c.config.MaxReconnectAttempts; attempt++ {
		time.Sleep(backoff)
		backoff = minDuration(backoff*2, c.config.MaxReconnectBackoff)

		ctx, cancel := context.WithTimeout(context.Background(), c.config.OpTimeout)
		err := c.rdb.Ping(ctx).Err()
		cancel()
		if err == nil {
			c.state.Store(int32(StateReady))
			c.log.Info("cache reconnected", "addr", c.config.Addr, "attempt", attempt)
			return
		}
		if c.State() == StateDisconnected {
			// Closed while we were retrying.
			return
		}
	}

	// Terminal: operations keep failing fast until the process restarts.
	c.state.Store(int32(StateDisconnected))
	c.log.Error("cache reconnect budget exhausted", "addr", c.config.Addr, "attempts", c.config.MaxReconnectAttempts)
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
