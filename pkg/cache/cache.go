// Package cache stores ordered-page results between runs.
//
// # Backends
//
// All backends implement [Cache], a byte-oriented key/value store with
// per-entry TTL:
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [MemoryCache]: a capacity-bounded LRU in process memory
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [NullCache]: caching disabled
//
// # Keys
//
// A [Keyer] derives keys from content hashes and options, so a page is
// recomputed whenever its detections or the layout thresholds change:
//
//	key := keyer.PageKey(cache.Hash(pageJSON), cache.PageKeyOpts{Layout: cfg})
//
// [ScopedKeyer] prefixes every key, which keeps several workspaces apart in
// one Redis database.
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	TTLPage  = 30 * 24 * time.Hour
	TTLGraph = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A ttl of zero means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by backends that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}
