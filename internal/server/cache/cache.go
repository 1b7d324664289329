// Package cache defines the key-value cache contract used for short-lived
// secrets and rate-limit counters, plus its Redis implementation.
package cache

import (
	"context"
	"time"
)

// Cache is a TTL-aware string cache. Get returns common.ErrNotFound for a
// missing or expired key so callers can distinguish a miss from an outage.
type Cache interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	// Increment adds 1 to the integer at key (creating it as 1) and returns
	// the new value. Used for fixed-window rate-limit counters.
	Increment(ctx context.Context, key string) (int64, error)

	// Expire sets the TTL of an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	Ping(ctx context.Context) error
	Close() error
}
