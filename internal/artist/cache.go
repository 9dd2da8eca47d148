package artist

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes search results by exact query string. Entries live as long as
// the Cache itself; there is no eviction and no persistence. Safe for
// concurrent use, and concurrent misses for the same key share one lookup
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]Candidate
	group   singleflight.Group
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string][]Candidate),
	}
}

// Get returns the cached candidates for name
func (c *Cache) Get(name string) ([]Candidate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	candidates, ok := c.entries[name]
	return candidates, ok
}

// Set stores candidates for name. An empty result is cached too: it is still
// the answer for that name within this run
func (c *Cache) Set(name string, candidates []Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if candidates == nil {
		candidates = []Candidate{}
	}
	c.entries[name] = candidates
}

// Size returns the number of cached entries
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetOrLoad returns the cached candidates for name, calling load on a miss.
// hit reports whether the value came from the cache. Errors from load are not
// cached
func (c *Cache) GetOrLoad(name string, load func() ([]Candidate, error)) (candidates []Candidate, hit bool, err error) {
	if cached, ok := c.Get(name); ok {
		return cached, true, nil
	}

	var loaded bool
	v, err, _ := c.group.Do(name, func() (interface{}, error) {
		// Another caller may have filled the entry between Get and Do
		if cached, ok := c.Get(name); ok {
			return cached, nil
		}
		loaded = true
		result, err := load()
		if err != nil {
			return nil, err
		}
		c.Set(name, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]Candidate), !loaded, nil
}
