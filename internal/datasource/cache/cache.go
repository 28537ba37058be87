// Package cache implements a time-bounded LRU store. Library-backed
// datasources use it to hold expensive per-symbol handles instead of
// rebuilding one per call.
package cache

import (
	"container/list"
	"fmt"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time // zero means no expiry
}

// Cache is a fixed-capacity LRU with per-entry TTL. Expired entries are
// treated as absent and purged lazily on access; there is no background
// sweep. Not safe for concurrent use; callers add their own locking.
type Cache[K comparable, V any] struct {
	capacity   int
	defaultTTL time.Duration

	ll    *list.List
	items map[K]*list.Element

	now func() time.Time
}

// New builds a cache. capacity must be positive. defaultTTL <= 0 means
// entries never expire and live until evicted by capacity.
func New[K comparable, V any](capacity int, defaultTTL time.Duration) (*Cache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	return &Cache[K, V]{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		ll:         list.New(),
		items:      make(map[K]*list.Element, capacity),
		now:        time.Now,
	}, nil
}

// Get returns the value for key and marks it most-recently-used. An entry
// past its expiry is purged and reported absent.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	en := el.Value.(*entry[K, V])
	if !en.expiresAt.IsZero() && !c.now().Before(en.expiresAt) {
		c.remove(el)
		return zero, false
	}
	c.ll.MoveToFront(el)
	return en.value, true
}

// Put inserts or overwrites key with the default TTL.
func (c *Cache[K, V]) Put(key K, value V) {
	c.PutTTL(key, value, c.defaultTTL)
}

// PutTTL inserts or overwrites key with an explicit TTL, marks it
// most-recently-used, and evicts the least-recently-used entry when the
// cache is over capacity.
func (c *Cache[K, V]) PutTTL(key K, value V, ttl time.Duration) {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}
	if el, ok := c.items[key]; ok {
		en := el.Value.(*entry[K, V])
		en.value = value
		en.expiresAt = expiresAt
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = el
	if c.ll.Len() > c.capacity {
		if back := c.ll.Back(); back != nil {
			c.remove(back)
		}
	}
}

// Len reports the number of stored entries, counting not-yet-purged
// expired ones.
func (c *Cache[K, V]) Len() int { return c.ll.Len() }

func (c *Cache[K, V]) remove(el *list.Element) {
	en := el.Value.(*entry[K, V])
	delete(c.items, en.key)
	c.ll.Remove(el)
}
