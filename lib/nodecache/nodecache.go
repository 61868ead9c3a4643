// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package nodecache caches node attributes and references in a bounded LRU
// with per-entry TTL. Expired entries never surface from Get and are
// removed on lookup.
package nodecache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/edgefield/opcua/lib/ua"
)

const (
	DefaultMaxSize = 1024
	DefaultTTL     = time.Minute
)

// Entry is the cached metadata of one node.
type Entry struct {
	Attributes map[ua.AttributeID]ua.DataValue
	References []ua.ReferenceDescription

	insertedAt time.Time
	ttl        time.Duration
}

func (e *Entry) expired(now time.Time) bool {
	return now.Sub(e.insertedAt) > e.ttl
}

// Stats accumulates cache effectiveness counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// HitRate is hits over lookups, zero when no lookups happened.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a bounded LRU with TTL. All operations take the cache mutex, so
// a single instance may be shared across goroutines.
type Cache struct {
	mut       sync.Mutex
	lru       *simplelru.LRU[string, *Entry]
	ttl       time.Duration
	hits      uint64
	misses    uint64
	evictions uint64
	now       func() time.Time
}

// New creates a cache bounded to maxSize entries with the given default
// TTL. maxSize must be positive; zero values select the defaults.
func New(maxSize int, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{ttl: ttl, now: time.Now}
	// The only error case is a non-positive size, excluded above.
	lru, err := simplelru.NewLRU[string, *Entry](maxSize, func(string, *Entry) {
		c.evictions++
	})
	if err != nil {
		panic("nodecache: " + err.Error())
	}
	c.lru = lru
	return c
}

// Get returns the entry for a node, or nil when absent or expired. An
// expired entry is removed by the lookup. A hit refreshes recency.
func (c *Cache) Get(id ua.NodeID) *Entry {
	key := id.String()
	c.mut.Lock()
	defer c.mut.Unlock()
	e, ok := c.lru.Get(key)
	if !ok {
		c.misses++
		return nil
	}
	if e.expired(c.now()) {
		// Removing an expired entry is not an eviction for the stats.
		c.evictions--
		c.lru.Remove(key)
		c.misses++
		return nil
	}
	c.hits++
	return e
}

// Set stores an entry under the default TTL, evicting the least recently
// accessed entry if the cache is full.
func (c *Cache) Set(id ua.NodeID, e *Entry) {
	c.SetWithTTL(id, e, c.ttl)
}

// SetWithTTL stores an entry with an explicit TTL.
func (c *Cache) SetWithTTL(id ua.NodeID, e *Entry, ttl time.Duration) {
	c.mut.Lock()
	defer c.mut.Unlock()
	e.insertedAt = c.now()
	e.ttl = ttl
	c.lru.Add(id.String(), e)
}

// Remove drops an entry.
func (c *Cache) Remove(id ua.NodeID) bool {
	c.mut.Lock()
	defer c.mut.Unlock()
	key := id.String()
	if _, ok := c.lru.Peek(key); !ok {
		return false
	}
	// Balance the eviction callback; an explicit remove is not an
	// eviction.
	c.evictions--
	return c.lru.Remove(key)
}

// EvictExpired scans for expired entries and removes them, returning the
// count removed.
func (c *Cache) EvictExpired() int {
	c.mut.Lock()
	defer c.mut.Unlock()
	now := c.now()
	var expired []string
	for _, key := range c.lru.Keys() {
		if e, ok := c.lru.Peek(key); ok && e.expired(now) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		c.evictions--
		c.lru.Remove(key)
	}
	return len(expired)
}

// Clear drops all entries without counting evictions.
func (c *Cache) Clear() {
	c.mut.Lock()
	defer c.mut.Unlock()
	// Purge fires the eviction callback per entry; restore the counter so
	// an explicit clear does not skew the statistics.
	saved := c.evictions
	c.lru.Purge()
	c.evictions = saved
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mut.Lock()
	defer c.mut.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      c.lru.Len(),
	}
}
