package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/driftline/driftline/pkg/logging"
	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel"
)

// setUpCache connects to the Redis instance named by REDIS_ADDR, or a
// local default. Tests using it are integration tests and honor -short.
func setUpCache(ctx context.Context, t *testing.T) Cache {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	c, err := MakeCache(addr, "", 0, logging.NullLogger{}, otel.Tracer("cache-test"))
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping cache at %s: %v", addr, err)
	}

	t.Cleanup(func() {
		c.Close()
	})
	return c
}

func TestCache_GetOrLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping cache integration test")
	}

	ctx := context.Background()
	c := setUpCache(ctx, t)

	t.Run("Test if miss invokes the loader and populates the key", func(t *testing.T) {
		key := ItemKey("get-or-load-miss")
		c.client.Del(ctx, key)

		var loads int
		loader := func(context.Context) ([]byte, error) {
			loads++
			return []byte(`{"id":"get-or-load-miss"}`), nil
		}

		got, err := c.GetOrLoad(ctx, key, time.Minute, loader)
		if err != nil {
			t.Fatalf("GetOrLoad() error = %v", err)
		}
		if !cmp.Equal(got, []byte(`{"id":"get-or-load-miss"}`)) {
			t.Errorf("GetOrLoad() = %s, want loaded value", got)
		}

		// Second read must be a hit.
		if _, err := c.GetOrLoad(ctx, key, time.Minute, loader); err != nil {
			t.Fatalf("GetOrLoad() error = %v", err)
		}
		if loads != 1 {
			t.Errorf("Loader invocations = %d, want 1", loads)
		}
	})

	t.Run("Test if loader error is returned and nothing is cached", func(t *testing.T) {
		key := ItemKey("get-or-load-err")
		c.client.Del(ctx, key)

		wantErr := errors.New("primary store down")
		_, err := c.GetOrLoad(ctx, key, time.Minute, func(context.Context) ([]byte, error) {
			return nil, wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Errorf("GetOrLoad() error = %v, want %v", err, wantErr)
		}

		if exists := c.client.Exists(ctx, key).Val(); exists != 0 {
			t.Errorf("Key %q was cached after a loader error", key)
		}
	})
}

func TestCache_Invalidate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping cache integration test")
	}

	ctx := context.Background()
	c := setUpCache(ctx, t)

	id := "invalidate-me"
	keys := []string{
		ItemKey(id),
		ListKey(1, 10),
		ListKey(2, 25),
	}
	for _, key := range keys {
		if err := c.client.Set(ctx, key, "cached", time.Minute).Err(); err != nil {
			t.Fatalf("Failed to seed key %q: %v", key, err)
		}
	}

	if err := c.Invalidate(ctx, id); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}

	for _, key := range keys {
		if exists := c.client.Exists(ctx, key).Val(); exists != 0 {
			t.Errorf("Key %q survived invalidation", key)
		}
	}
}
