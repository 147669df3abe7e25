package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/reqcheck/pkg/observability"
)

// Memo memoizes the results of engine operations keyed by operation identity
// and arguments. Entries live until Reset is called. Errors are never stored,
// so a failing operation is retried by the next caller.
//
// Memo is safe for concurrent use; concurrent callers asking for the same key
// share one computation.
type Memo struct {
	mu      sync.RWMutex
	entries map[string]any
	gen     uint64
	group   singleflight.Group
}

// NewMemo creates an empty memoization table.
func NewMemo() *Memo {
	return &Memo{entries: make(map[string]any)}
}

// Reset drops every memoized result. Computations already in flight finish
// but do not store their result.
func (m *Memo) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]any)
	m.gen++
}

// Len returns the number of memoized results.
func (m *Memo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memo) lookup(key string) (any, uint64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, m.gen, ok
}

func (m *Memo) store(key string, gen uint64, v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen == gen {
		m.entries[key] = v
	}
}

// Do returns the memoized result of op(args...) or computes it with fn.
func Do[T any](ctx context.Context, m *Memo, op string, fn func() (T, error), args ...any) (T, error) {
	key := hashKey(op, args...)
	if v, _, ok := m.lookup(key); ok {
		observability.Cache().OnCacheHit(ctx, op)
		res, _ := v.(T)
		return res, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		cached, gen, ok := m.lookup(key)
		if ok {
			return cached, nil
		}
		observability.Cache().OnCacheMiss(ctx, op)
		res, err := fn()
		if err != nil {
			return nil, err
		}
		m.store(key, gen, res)
		return res, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	res, _ := v.(T)
	return res, nil
}
