package content

import (
	"sync/atomic"
)

// holder keeps atomic.Value fed with a single concrete type
type holder struct {
	snapshot Snapshot
}

// Cache holds the current snapshot. Publish may be called from any goroutine,
// Current never blocks.
type Cache struct {
	current atomic.Value
}

func NewCache() *Cache {
	return &Cache{}
}

// Publish replaces the current snapshot. A nil snapshot resets the cache to None.
func (c *Cache) Publish(snapshot Snapshot) {
	if snapshot == nil {
		snapshot = None
	}
	c.current.Store(holder{snapshot: snapshot})
}

// Current returns the latest published snapshot, or None.
func (c *Cache) Current() Snapshot {
	h, ok := c.current.Load().(holder)
	if !ok {
		return None
	}
	return h.snapshot
}
