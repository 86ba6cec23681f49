package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is the LRU size used when none is configured.
const DefaultCapacity = 6

// NewLRU returns a thread-safe LRU holding at most capacity entries. A
// capacity below one uses [DefaultCapacity]. onEvict, when non-nil, runs for
// every entry that leaves the LRU, whether pushed out by Add or dropped by
// Remove and Purge.
func NewLRU[K comparable, V any](capacity int, onEvict func(K, V)) *lru.Cache[K, V] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	// NewWithEvict only fails for a non-positive size.
	c, err := lru.NewWithEvict[K, V](capacity, onEvict)
	if err != nil {
		panic(err)
	}
	return c
}
