package catalog

import "sync"

// Cache holds the most recently stored catalog snapshot.
//
// Replace swaps the snapshot whole; Get hands out a copy of the current one.
// A reader racing a Replace sees either the old or the new snapshot, never a
// mix.
type Cache struct {
	mu      sync.RWMutex
	entries Catalog
	loaded  bool
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns a copy of the held snapshot and whether one was ever stored.
func (c *Cache) Get() (Catalog, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries.Clone(), c.loaded
}

// Resolve resolves id against the held snapshot without copying it.
func (c *Cache) Resolve(id string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries.Resolve(id)
}

// Replace stores a copy of langs as the new snapshot.
func (c *Cache) Replace(langs Catalog) {
	snapshot := langs.Clone()
	if snapshot == nil {
		snapshot = Catalog{}
	}

	c.mu.Lock()
	c.entries = snapshot
	c.loaded = true
	c.mu.Unlock()
}

// Loaded reports whether a snapshot was ever stored.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}
