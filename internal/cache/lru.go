// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package cache

import (
	"sync"
	"time"
)

// lruEntry is a node in the LRU cache's doubly-linked list.
type lruEntry[V any] struct {
	key       string
	value     V
	prev      *lruEntry[V]
	next      *lruEntry[V]
	expiresAt time.Time
}

// LRU is a thread-safe Least Recently Used cache with optional TTL.
// The embedding client keys vectors by profile text; capacity bounds
// memory for large populations, and a zero TTL keeps entries until
// they are evicted (embeddings are deterministic per input, so they
// never go stale).
//
// A doubly-linked list tracks recency and a map gives O(1) lookup:
// head.next is the most recently used, tail.prev the least.
type LRU[V any] struct {
	mu sync.RWMutex

	capacity int
	ttl      time.Duration

	items map[string]*lruEntry[V]
	head  *lruEntry[V]
	tail  *lruEntry[V]

	hits   int64
	misses int64
}

// NewLRU creates an LRU cache holding at most capacity entries. A
// non-positive ttl disables expiration.
func NewLRU[V any](capacity int, ttl time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = 1024
	}

	c := &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*lruEntry[V], capacity),
		head:     &lruEntry[V]{},
		tail:     &lruEntry[V]{},
	}

	c.head.next = c.tail
	c.tail.prev = c.head

	return c
}

// Get retrieves an entry and marks it most recently used. Expired
// entries are removed on access and reported as misses.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, exists := c.items[key]
	if !exists {
		c.misses++
		return zero, false
	}

	if c.expired(entry, time.Now()) {
		c.removeEntry(entry)
		c.misses++
		return zero, false
	}

	c.moveToFront(entry)
	c.hits++
	return entry.value, true
}

// Contains reports whether a live entry exists without touching the
// access order.
func (c *LRU[V]) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.items[key]
	return exists && !c.expired(entry, time.Now())
}

// Add inserts or refreshes an entry. The least recently used entry is
// evicted when the cache is at capacity.
func (c *LRU[V]) Add(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}

	if entry, exists := c.items[key]; exists {
		entry.value = value
		entry.expiresAt = expiresAt
		c.moveToFront(entry)
		return
	}

	entry := &lruEntry[V]{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	}
	c.addToFront(entry)
	c.items[key] = entry

	for len(c.items) > c.capacity {
		c.evictOldest()
	}
}

// Remove deletes an entry. Returns true if it existed.
func (c *LRU[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.items[key]
	if !exists {
		return false
	}
	c.removeEntry(entry)
	return true
}

// Len returns the current number of entries.
func (c *LRU[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes every entry.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*lruEntry[V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// CleanupExpired removes all expired entries and returns how many were
// dropped. A no-op when TTL is disabled.
func (c *LRU[V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0

	// Walk from tail (oldest) to head (newest).
	for entry := c.tail.prev; entry != c.head; {
		prev := entry.prev
		if c.expired(entry, now) {
			c.removeEntry(entry)
			removed++
		}
		entry = prev
	}

	return removed
}

// LRUStats returns hit/miss counters and the current size.
func (c *LRU[V]) LRUStats() (hits, misses int64, size int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, len(c.items)
}

// Internal methods (must be called with lock held)

func (c *LRU[V]) expired(entry *lruEntry[V], now time.Time) bool {
	return !entry.expiresAt.IsZero() && now.After(entry.expiresAt)
}

func (c *LRU[V]) addToFront(entry *lruEntry[V]) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *LRU[V]) moveToFront(entry *lruEntry[V]) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.addToFront(entry)
}

func (c *LRU[V]) removeEntry(entry *lruEntry[V]) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(c.items, entry.key)
}

func (c *LRU[V]) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.removeEntry(oldest)
}
