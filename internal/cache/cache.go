// Package cache holds rendered catalog read responses keyed by namespace,
// e.g. "titles:movie:20" or "similar:tt0133093:10".
package cache

import (
	"fmt"
	"path"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Invalidator drops cached entries matching a glob pattern.
type Invalidator interface {
	Invalidate(pattern string) (int, error)
}

// Cache is an in-process expiring key/value cache.
type Cache struct {
	items *gocache.Cache
}

var _ Invalidator = (*Cache)(nil)

// New creates a cache with the given default expiry and janitor interval.
func New(ttl, cleanup time.Duration) *Cache {
	return &Cache{items: gocache.New(ttl, cleanup)}
}

// Get returns the cached value for key.
func (c *Cache) Get(key string) ([]byte, bool) {
	value, found := c.items.Get(key)
	if !found {
		return nil, false
	}
	data, ok := value.([]byte)
	return data, ok
}

// Set stores value under key with the default expiry.
func (c *Cache) Set(key string, value []byte) {
	c.items.Set(key, value, gocache.DefaultExpiration)
}

// Len reports the number of unexpired entries.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}

// Invalidate deletes every key matching pattern (path.Match syntax) and returns
// how many were removed.
func (c *Cache) Invalidate(pattern string) (int, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, fmt.Errorf("invalid cache pattern %q: %w", pattern, err)
	}
	removed := 0
	for key := range c.items.Items() {
		if ok, _ := path.Match(pattern, key); ok {
			c.items.Delete(key)
			removed++
		}
	}
	return removed, nil
}

// Key joins namespace parts with ':'.
func Key(parts ...any) string {
	key := ""
	for i, part := range parts {
		if i > 0 {
			key += ":"
		}
		key += fmt.Sprint(part)
	}
	return key
}
