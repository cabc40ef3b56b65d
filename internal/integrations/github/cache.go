package github

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheEntries bounds the number of cached responses per client.
const cacheEntries = 1024

// lruCache is an httpcache.Cache that evicts the least recently used
// responses once full.
type lruCache struct {
	entries *lru.Cache[string, []byte]
}

func newLRUCache(size int) *lruCache {
	if size <= 0 {
		size = cacheEntries
	}
	// New only fails for a non-positive size.
	entries, _ := lru.New[string, []byte](size)
	return &lruCache{entries: entries}
}

// Get returns the cached response bytes for key.
func (c *lruCache) Get(key string) ([]byte, bool) {
	return c.entries.Get(key)
}

// Set stores the response bytes for key.
func (c *lruCache) Set(key string, resp []byte) {
	c.entries.Add(key, resp)
}

// Delete removes key from the cache.
func (c *lruCache) Delete(key string) {
	c.entries.Remove(key)
}
