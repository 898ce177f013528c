//go:build !integration

package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeCounterClient struct {
	mu       sync.Mutex
	counts   map[string]int64
	expiries map[string]time.Duration
	incrErr  error
}

func newFakeCounterClient() *fakeCounterClient {
	return &fakeCounterClient{counts: map[string]int64{}, expiries: map[string]time.Duration{}}
}

func (f *fakeCounterClient) Ping(ctx context.Context) error { return nil }
func (f *fakeCounterClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (f *fakeCounterClient) Get(ctx context.Context, key string) (string, error) { return "", Nil }
func (f *fakeCounterClient) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	f.counts[key]++
	return f.counts[key], nil
}
func (f *fakeCounterClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expiries[key] = expiration
	return nil
}
func (f *fakeCounterClient) Del(ctx context.Context, keys ...string) error { return nil }
func (f *fakeCounterClient) Close() error                                  { return nil }

func TestRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("should allow up to the limit and reject afterwards", func(t *testing.T) {
		cli := newFakeCounterClient()
		rl := NewRateLimiter(cli)
		key := UserRouteKey("user-1", "create-order")

		for i := 0; i < 3; i++ {
			ok, err := rl.Allow(ctx, key, 3, time.Minute)
			if err != nil || !ok {
				t.Fatalf("hit %d: expected allowed, got ok=%v err=%v", i+1, ok, err)
			}
		}
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ok {
			t.Error("expected fourth hit to be rejected")
		}
		if cli.expiries[key] != time.Minute {
			t.Errorf("expected window set on first hit, got %v", cli.expiries[key])
		}
	})

	t.Run("should surface client errors", func(t *testing.T) {
		cli := newFakeCounterClient()
		cli.incrErr = errors.New("down")
		if _, err := NewRateLimiter(cli).Allow(ctx, "k", 1, time.Minute); err == nil {
			t.Error("expected error from client")
		}
	})
}
