// Package cache memoizes values built from comparable keys. Concurrent
// requests for a missing key share a single build; failed builds are
// returned to every waiter and never stored.
package cache

import (
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache holds built values by key.
type Cache[K comparable, V any] struct {
	mu     sync.RWMutex
	values map[K]V
	ids    map[K]string
	nextID uint64
	group  singleflight.Group
}

// New creates an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{values: make(map[K]V), ids: make(map[K]string)}
}

// Get returns the value stored for key.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.values[key]

	return v, ok
}

// GetOrBuild returns the value for key, running build at most once per key
// at a time. The boolean reports a hit.
func (c *Cache[K, V]) GetOrBuild(key K, build func() (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	out, err, _ := c.group.Do(c.id(key), func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}

		v, err := build()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.values[key] = v
		c.mu.Unlock()

		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}

	return out.(V), false, nil
}

// Len returns the number of stored values.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.values)
}

// Delete drops the value stored for key.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.values, key)
	delete(c.ids, key)
}

// Purge drops every stored value.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.values)
	clear(c.ids)
}

// id interns a singleflight group key for key. Ids are never reused, so
// distinct keys always get distinct ids, even across purges.
func (c *Cache[K, V]) id(key K) string {
	c.mu.RLock()
	id, ok := c.ids[key]
	c.mu.RUnlock()

	if ok {
		return id
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok = c.ids[key]; !ok {
		id = strconv.FormatUint(c.nextID, 10)
		c.nextID++
		c.ids[key] = id
	}

	return id
}
