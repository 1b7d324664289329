// Package ratelimit implements a fixed-window request limiter over the cache.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/dmaltsev/tasklist/internal/common"
	"github.com/dmaltsev/tasklist/internal/server/cache"
)

const keyPrefix = "rate_limit:"

type Limiter struct {
	cache       cache.Cache
	maxRequests int64
	window      time.Duration
}

func NewLimiter(c cache.Cache, maxRequests int64, window time.Duration) *Limiter {
	return &Limiter{cache: c, maxRequests: maxRequests, window: window}
}

// Allow counts one request for the client and returns
// common.ErrTooManyRequests once the window's quota is exceeded.
// The window starts on the first request and is never extended by
// later ones.
func (l *Limiter) Allow(ctx context.Context, clientID string) error {
	key := fmt.Sprintf("%s%s", keyPrefix, clientID)

	count, err := l.cache.Increment(ctx, key)
	if err != nil {
		return fmt.Errorf("ratelimit: %w", err)
	}

	if count == 1 {
		if err := l.cache.Expire(ctx, key, l.window); err != nil {
			return fmt.Errorf("ratelimit: %w", err)
		}
	}

	if count > l.maxRequests {
		return common.ErrTooManyRequests
	}

	return nil
}
