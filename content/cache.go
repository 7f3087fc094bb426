package content

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is an opt-in TTL cache in front of a Source's listing. Detail
// lookups always go to the underlying source. Concurrent misses share one
// upstream fetch.
type Cache struct {
	src Source
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	posts   []PostSummary
	fetched time.Time
	loaded  bool

	group singleflight.Group
}

// NewCache wraps src. The listing is refetched once it is older than ttl.
func NewCache(src Source, ttl time.Duration) *Cache {
	return &Cache{src: src, ttl: ttl, now: time.Now}
}

func (c *Cache) valid() bool {
	return c.loaded && c.now().Sub(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.loaded = false
	c.mu.Unlock()
}

// ListPosts returns the cached listing, refreshing it when stale.
// A failed refresh is returned to the caller and nothing is cached.
func (c *Cache) ListPosts(ctx context.Context) ([]PostSummary, error) {
	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	// The shared fetch outlives any single caller; each caller still stops
	// waiting when its own context ends.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("list", func() (any, error) {
		posts, err := c.src.ListPosts(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.posts = posts
		c.fetched = c.now()
		c.loaded = true
		c.mu.Unlock()
		return posts, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]PostSummary), nil
	}
}

// GetPost delegates to the underlying source.
func (c *Cache) GetPost(ctx context.Context, slug string) (Post, error) {
	return c.src.GetPost(ctx, slug)
}
