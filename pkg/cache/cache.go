// Package cache implements a read-through, write-invalidate cache in
// front of the primary content store. The cache is purely a latency
// optimization: every error falls through to the loader and is logged,
// never surfaced to the caller of a read.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/driftline/driftline/pkg/logging"
	"github.com/driftline/driftline/pkg/metrics"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

type Cache struct {
	client *redis.Client
	logger logging.Logger
	tracer trace.Tracer
}

func MakeCache(addr, password string, db int, logger logging.Logger, tracer trace.Tracer) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return Cache{}, err
	}

	return Cache{
		client: client,
		logger: logger,
		tracer: tracer,
	}, nil
}

func (c Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c Cache) Close() error {
	return c.client.Close()
}

// Loader fetches the authoritative value from the primary store on a
// cache miss.
type Loader func(ctx context.Context) ([]byte, error)

// GetOrLoad returns the cached value under key, or invokes the loader,
// stores the result with the given TTL and returns it. Concurrent misses
// for the same key may each invoke the loader. Cache failures never fail
// the read; the loader's error is the only one returned.
func (c Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader Loader) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "cache.GetOrLoad")
	defer span.End()

	cached, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		return cached, nil
	case errors.Is(err, redis.Nil):
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	default:
		metrics.CacheRequests.WithLabelValues("error").Inc()
		c.logger.Log("Cache read failed, falling through to primary store", "key", key, "err", err)
	}

	value, err := loader(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Log("Failed to populate cache", "key", key, "err", err)
	}

	return value, nil
}

// Invalidate deletes the entity's singular key and every collection key.
// Deliberately coarse: correctness over hit rate. Runs synchronously in
// the mutating request so a client re-reading after its own write never
// sees pre-write cached state.
func (c Cache) Invalidate(ctx context.Context, id string) error {
	ctx, span := c.tracer.Start(ctx, "cache.Invalidate")
	defer span.End()

	if err := c.client.Del(ctx, ItemKey(id)).Err(); err != nil {
		return err
	}

	// SCAN instead of KEYS so invalidation never blocks the keyspace.
	iter := c.client.Scan(ctx, 0, listPattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
