// Package cache provides the response-cache abstraction used by read
// handlers. The cache is injected by the calling layer rather than held
// as a process-wide singleton, so tests can substitute a no-op cache
// and deployments can pick the in-memory or Redis backend.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads under string keys with a TTL.
// A miss is (nil, false); implementations never return errors to
// callers, cache failures degrade to misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context)
}

// Noop is a Cache that stores nothing. Used in tests and as a safe
// fallback when no cache backend is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (Noop) Set(context.Context, string, []byte, time.Duration) {}
func (Noop) Delete(context.Context, string)                     {}
func (Noop) Clear(context.Context)                              {}
