package query

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/orvull/omnisia-admin-console/internal/models"
)

const (
	DefaultFreshFor = 30 * time.Second
	DefaultEvictAt  = 5 * time.Minute
)

// Fetcher loads one page for key.
type Fetcher[T any] func(ctx context.Context, key Key) (models.Page[T], error)

type entry[T any] struct {
	page      models.Page[T]
	fetchedAt time.Time
	usedAt    time.Time
	stale     bool
}

// Cache holds pages by key. Entries younger than freshFor are served
// without a request; entries unused for evictAt are dropped. Concurrent
// loads of the same key share one request.
type Cache[T any] struct {
	mu       sync.Mutex
	entries  map[Key]*entry[T]
	gens     map[string]uint64
	group    singleflight.Group
	freshFor time.Duration
	evictAt  time.Duration
	now      func() time.Time
}

func NewCache[T any](freshFor, evictAt time.Duration) *Cache[T] {
	if freshFor <= 0 {
		freshFor = DefaultFreshFor
	}
	if evictAt <= 0 {
		evictAt = DefaultEvictAt
	}
	return &Cache[T]{
		entries:  make(map[Key]*entry[T]),
		gens:     make(map[string]uint64),
		freshFor: freshFor,
		evictAt:  evictAt,
		now:      time.Now,
	}
}

// Peek returns the cached page for key, fresh or not.
func (c *Cache[T]) Peek(key Key) (models.Page[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return models.Page[T]{}, false
	}
	e.usedAt = c.now()
	return e.page, true
}

func (c *Cache[T]) fresh(key Key) (models.Page[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep()
	e, ok := c.entries[key]
	if !ok || e.stale || c.now().Sub(e.fetchedAt) >= c.freshFor {
		return models.Page[T]{}, false
	}
	e.usedAt = c.now()
	return e.page, true
}

// Fetch returns a fresh cached page or loads it. The load is detached
// from ctx so that other callers waiting on the same key are not failed
// by one caller's cancellation.
func (c *Cache[T]) Fetch(ctx context.Context, key Key, fetch Fetcher[T]) (models.Page[T], error) {
	if p, ok := c.fresh(key); ok {
		return p, nil
	}
	c.mu.Lock()
	gen := c.gens[key.Resource]
	c.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key.String(), func() (any, error) {
		p, err := fetch(detached, key)
		if err != nil {
			return nil, err
		}
		c.store(key, p, gen)
		return p, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return models.Page[T]{}, res.Err
		}
		return res.Val.(models.Page[T]), nil
	case <-ctx.Done():
		return models.Page[T]{}, ctx.Err()
	}
}

// store keeps p; a page whose load began before an invalidation of its
// resource is kept as stale.
func (c *Cache[T]) store(key Key, p models.Page[T], gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.entries[key] = &entry[T]{
		page:      p,
		fetchedAt: now,
		usedAt:    now,
		stale:     c.gens[key.Resource] != gen,
	}
}

// Invalidate marks every entry of resource stale.
func (c *Cache[T]) Invalidate(resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[resource]++
	for k, e := range c.entries {
		if k.Resource == resource {
			e.stale = true
		}
	}
}

func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// sweep must be called with c.mu held.
func (c *Cache[T]) sweep() {
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.usedAt) >= c.evictAt {
			delete(c.entries, k)
		}
	}
}
