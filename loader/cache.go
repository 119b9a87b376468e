// Package loader fetches FBX documents by URL and caches their resolved graphs.
package loader

import (
	"context"
	"sync"

	"github.com/binzume/fbxscene/fbx"
	"golang.org/x/sync/singleflight"
)

// Cache holds resolved scenes keyed by absolute URL.
// Concurrent loads of the same key share one fetch.
type Cache struct {
	mu     sync.RWMutex
	scenes map[string]*fbx.Scene
	group  singleflight.Group

	// Stats
	hits   int
	misses int
}

func NewCache() *Cache {
	return &Cache{scenes: map[string]*fbx.Scene{}}
}

func (c *Cache) Get(key string) (*fbx.Scene, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.scenes[key]
	return s, ok
}

func (c *Cache) Set(key string, s *fbx.Scene) {
	c.mu.Lock()
	c.scenes[key] = s
	c.mu.Unlock()
}

// Remove drops one entry. It reports whether the key was cached.
func (c *Cache) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.scenes[key]
	delete(c.scenes, key)
	return ok
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.scenes = map[string]*fbx.Scene{}
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.scenes)
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// GetOrLoad returns the cached scene for key or runs load once for all
// concurrent callers, storing a successful result.
func (c *Cache) GetOrLoad(ctx context.Context, key string, load func(context.Context) (*fbx.Scene, error)) (*fbx.Scene, error) {
	c.mu.Lock()
	if s, ok := c.scenes[key]; ok {
		c.hits++
		c.mu.Unlock()
		return s, nil
	}
	c.misses++
	c.mu.Unlock()

	ch := c.group.DoChan(key, func() (interface{}, error) {
		if s, ok := c.Get(key); ok {
			return s, nil
		}
		s, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, s)
		return s, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*fbx.Scene), nil
	}
}
