// Package ratelimit provides a fixed-window request counter with a Redis
// backend for multi-instance deployments and an in-process fallback.
package ratelimit

import (
	"context"
	"time"
)

// Store counts hits per key. The window TTL starts on the first hit.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Close() error
}

// Limiter answers allow/deny for one logical limit.
type Limiter struct {
	store  Store
	max    int64
	window time.Duration
}

// NewLimiter builds a limiter allowing max hits per window. A max of
// zero or below disables the limit.
func NewLimiter(store Store, max int, window time.Duration) *Limiter {
	return &Limiter{store: store, max: int64(max), window: window}
}

// Allow reports whether key may proceed. Store failures never block a
// request.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.max <= 0 {
		return true
	}
	n, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		return true
	}
	return n <= l.max
}
