package cachemanager

import (
	"context"
	"time"
)

// CacheManager stores computed values by key with a per-entry TTL.
type CacheManager[K ~string, V any] interface {
	// GetWithRefresh returns a value and, on a hit, restarts its ttl.
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Flush(ctx context.Context) error
}
