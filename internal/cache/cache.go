// Package cache memoizes completed search evaluations keyed by the full
// request identity, so page navigation re-reads a finished result set
// instead of re-running the search.
package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxEntries bounds the cache when no limit is configured.
const DefaultMaxEntries = 64

// Signature identifies one search evaluation. Two requests with the same
// signature are answered from the same complete result set; page and page
// size are deliberately excluded.
type Signature struct {
	Query          string
	Threshold      int
	Sort           string
	ConversationID int64
}

func (s Signature) key() string {
	return fmt.Sprintf("%s|%d|%s|%d", s.Query, s.Threshold, s.Sort, s.ConversationID)
}

// Cache is a bounded LRU of completed evaluations with request coalescing:
// concurrent misses on the same signature run the producer once and share
// its result.
type Cache[V any] struct {
	entries *lru.Cache[Signature, V]
	group   singleflight.Group
}

// New returns a cache holding at most maxEntries evaluations. A
// non-positive maxEntries falls back to DefaultMaxEntries.
func New[V any](maxEntries int) (*Cache[V], error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	entries, err := lru.New[Signature, V](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Cache[V]{entries: entries}, nil
}

// Evaluate returns the cached value for sig, or runs produce once and caches
// its result. Failed productions are not cached, so a transient error does
// not poison the signature. hit reports whether the value came from cache
// without running produce in this call.
func (c *Cache[V]) Evaluate(ctx context.Context, sig Signature, produce func(context.Context) (V, error)) (value V, hit bool, err error) {
	if v, ok := c.entries.Get(sig); ok {
		return v, true, nil
	}

	cached := false
	v, err, joined := c.group.Do(sig.key(), func() (interface{}, error) {
		if v, ok := c.entries.Get(sig); ok {
			cached = true
			return v, nil
		}
		v, err := produce(ctx)
		if err != nil {
			return nil, err
		}
		c.entries.Add(sig, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return v.(V), cached || joined, nil
}

// Clear discards every cached evaluation.
func (c *Cache[V]) Clear() {
	c.entries.Purge()
}

// Len returns the number of cached evaluations.
func (c *Cache[V]) Len() int {
	return c.entries.Len()
}
