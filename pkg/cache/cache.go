// Package cache provides the caching layers used by reqcheck.
//
// Two distinct concerns live here:
//
//   - [Memo] is the in-process memoization table of the resolution engine. It
//     maps an operation identity plus its arguments to a previously computed
//     result so that checking N files in one run reads every declaration
//     source once, not N times. It lives for one engine and can be reset.
//
//   - [Cache] is a byte-oriented persistent store used for results that are
//     expensive to recompute across runs, most notably the index built by
//     scanning the host's site-packages directories. [FileCache] serves the
//     CLI, [RedisCache] lets several service replicas share one index, and
//     [NullCache] disables persistence.
package cache

import (
	"context"
	"time"
)

// Cache is a persistent key/value store with optional expiration.
type Cache interface {
	// Get returns the stored value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the backend.
	Close() error
}

// NullCache stores nothing. It backs --cache=none and hosts without a
// usable cache directory.
type NullCache struct{}

// NewNullCache returns a cache that always misses.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }
