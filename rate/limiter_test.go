package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/feldspar-io/authcore/cache"
)

func newLimiterTest(t *testing.T) (*Limiter, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	client := cache.New(cache.Config{Addr: mr.Addr()}, nil)
	if err := client.Connect(context.Background()); err != nil {
		mr.Close()
		t.Fatalf("cache connect: %v", err)
	}
	return NewLimiter(client), mr, func() {
		client.Close()
		mr.Close()
	}
}

func TestFixedWindowCounting(t *testing.T) {
	limiter, _, done := newLimiterTest(t)
	defer done()
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		result, err := limiter.Check(ctx, "client-1", time.Minute, 5)
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if result.Count != i || !result.Allowed {
			t.Fatalf("request %d: got count=%d allowed=%v", i, result.Count, result.Allowed)
		}
	}

	result, err := limiter.Check(ctx, "client-1", time.Minute, 5)
	if err != nil {
		t.Fatalf("check over limit: %v", err)
	}
	if result.Count != 6 || result.Allowed {
		t.Fatalf("expected count=6 allowed=false, got count=%d allowed=%v", result.Count, result.Allowed)
	}
}

func TestWindowResets(t *testing.T) {
	limiter, mr, done := newLimiterTest(t)
	defer done()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := limiter.Check(ctx, "client-1", time.Minute, 2); err != nil {
			t.Fatalf("check: %v", err)
		}
	}

	mr.FastForward(2 * time.Minute)

	result, err := limiter.Check(ctx, "client-1", time.Minute, 2)
	if err != nil {
		t.Fatalf("check after window: %v", err)
	}
	if result.Count != 1 || !result.Allowed {
		t.Fatalf("expected fresh window count=1 allowed=true, got count=%d allowed=%v", result.Count, result.Allowed)
	}
}

func TestIdentifiersAreIndependent(t *testing.T) {
	limiter, _, done := newLimiterTest(t)
	defer done()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := limiter.Check(ctx, "client-1", time.Minute, 2); err != nil {
			t.Fatalf("check client-1: %v", err)
		}
	}

	result, err := limiter.Check(ctx, "client-2", time.Minute, 2)
	if err != nil {
		t.Fatalf("check client-2: %v", err)
	}
	if result.Count != 1 || !result.Allowed {
		t.Fatalf("expected independent window, got count=%d allowed=%v", result.Count, result.Allowed)
	}
}

func TestCountAndReset(t *testing.T) {
	limiter, _, done := newLimiterTest(t)
	defer done()
	ctx := context.Background()

	count, err := limiter.Count(ctx, "client-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected zero count for absent key, got %d", count)
	}

	if _, err := limiter.Check(ctx, "client-1", time.Minute, 5); err != nil {
		t.Fatalf("check: %v", err)
	}
	count, err = limiter.Count(ctx, "client-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}

	if err := limiter.Reset(ctx, "client-1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	count, err = limiter.Count(ctx, "client-1")
	if err != nil {
		t.Fatalf("count after reset: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected count 0 after reset, got %d", count)
	}
}

func TestCheckFailsWhenCacheDown(t *testing.T) {
	client := cache.New(cache.Config{Addr: "localhost:0"}, nil)
	limiter := NewLimiter(client)

	if _, err := limiter.Check(context.Background(), "client-1", time.Minute, 5); !errors.Is(err, cache.ErrUnavailable) {
		t.Fatalf("expected cache.ErrUnavailable, got %v", err)
	}
}
