// Package cachemanager provides a small in-process caching layer used to
// memoize marker reads within a single pipeline run. Disk stays the source of
// truth; this layer only avoids re-reading the same marker file on every
// dependency check.
package cachemanager

import (
	"context"
	"time"
)

type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}
