package cache

import (
	"context"
	"time"
)

// FixedTTL overrides the lifetime callers pass to Set. The CLI wraps its
// backend in one when cache.ttl is configured.
type FixedTTL struct {
	Cache
	TTL time.Duration
}

// WithTTL wraps c so that every entry lives for ttl. A ttl of zero returns c
// unchanged.
func WithTTL(c Cache, ttl time.Duration) Cache {
	if ttl <= 0 {
		return c
	}
	return &FixedTTL{Cache: c, TTL: ttl}
}

// Set stores data with the fixed lifetime.
func (c *FixedTTL) Set(ctx context.Context, key string, data []byte, _ time.Duration) error {
	return c.Cache.Set(ctx, key, data, c.TTL)
}

// Clear forwards to the wrapped backend when it supports clearing.
func (c *FixedTTL) Clear(ctx context.Context) error {
	if cl, ok := c.Cache.(Clearer); ok {
		return cl.Clear(ctx)
	}
	return nil
}

var _ Clearer = (*FixedTTL)(nil)
