package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisLimiter(t *testing.T, limit int) (*FixedWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter, err := NewRedisFixedWindowLimiter(client, "test:ratelimit", limit, time.Minute)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	fixed := time.Date(2024, 1, 1, 10, 0, 30, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }
	return limiter, srv
}

func TestFixedWindowLimiterRedis(t *testing.T) {
	limiter, _ := newRedisLimiter(t, 2)
	ctx := context.Background()
	if !limiter.Allow(ctx, "/login|ip-1") {
		t.Fatalf("first request should pass")
	}
	if !limiter.Allow(ctx, "/login|ip-1") {
		t.Fatalf("second request should pass")
	}
	if limiter.Allow(ctx, "/login|ip-1") {
		t.Fatalf("third request should be blocked")
	}
	if !limiter.Allow(ctx, "/login|ip-2") {
		t.Fatalf("other keys keep their own quota")
	}
}

func TestFixedWindowLimiterResetsNextWindow(t *testing.T) {
	limiter, _ := newRedisLimiter(t, 1)
	ctx := context.Background()
	if !limiter.Allow(ctx, "k") || limiter.Allow(ctx, "k") {
		t.Fatalf("expected one request per window")
	}
	next := limiter.now().Add(time.Minute)
	limiter.now = func() time.Time { return next }
	if !limiter.Allow(ctx, "k") {
		t.Fatalf("new window should allow again")
	}
}

func TestFixedWindowLimiterRedisFailClosed(t *testing.T) {
	limiter, srv := newRedisLimiter(t, 1)
	srv.Close()
	if limiter.Allow(context.Background(), "ip-1") {
		t.Fatalf("limiter should fail closed on redis errors")
	}
}

func TestFixedWindowLimiterRequiresClient(t *testing.T) {
	limiter, err := NewRedisFixedWindowLimiter(nil, "test:ratelimit", 1, time.Second)
	if err == nil || limiter != nil {
		t.Fatalf("expected constructor error for nil client")
	}
}

func TestLocalLimiter(t *testing.T) {
	limiter, err := NewLocalLimiter(2, time.Minute)
	if err != nil {
		t.Fatalf("new local limiter: %v", err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	if !limiter.Allow(ctx, "a") || !limiter.Allow(ctx, "a") {
		t.Fatalf("burst of two should pass")
	}
	if limiter.Allow(ctx, "a") {
		t.Fatalf("third request should be blocked")
	}
	now = now.Add(30 * time.Second)
	if !limiter.Allow(ctx, "a") {
		t.Fatalf("one token should refill after half a window")
	}
	if _, err := NewLocalLimiter(0, time.Minute); err == nil {
		t.Fatalf("expected error for zero limit")
	}
}
