package completion

import (
	"sync"
)

// responseCache is a bounded fingerprint-to-response cache. When full, the
// oldest inserted entry is evicted. Lookups do not refresh entry age.
type responseCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]string
	order    []string
}

func newResponseCache(capacity int) *responseCache {
	if capacity <= 0 {
		capacity = 100
	}
	return &responseCache{
		capacity: capacity,
		entries:  make(map[string]string, capacity),
		order:    make([]string, 0, capacity),
	}
}

// Get returns the cached response for a fingerprint, if present.
func (c *responseCache) Get(fingerprint string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.entries[fingerprint]
	return value, ok
}

// Put stores a response under a fingerprint, evicting the oldest inserted
// entry when the cache is full. Re-inserting an existing fingerprint
// updates the value without changing its age.
func (c *responseCache) Put(fingerprint, response string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[fingerprint]; exists {
		c.entries[fingerprint] = response
		return
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[fingerprint] = response
	c.order = append(c.order, fingerprint)
}

// Len returns the number of cached entries.
func (c *responseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
