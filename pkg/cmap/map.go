// Package cmap provides a concurrent string-keyed map for CacheMesh.
package cmap

import (
	"hash/maphash"
	"sync"
)

// numShards fixes the shard count. Sixteen shards keep lock contention low
// for the handful of writer goroutines a registry sees while staying a
// power of two for cheap masking.
const numShards = 16

// Map is a concurrent map keyed by string, built for registries such as
// the rebalance policy's cache status table: entries are registered once
// with first-writer-wins semantics and then read concurrently.
//
// The surface is intentionally narrow — lookup, put-if-absent, iteration.
// Entries are never removed; a registered value lives for the lifetime of
// the map.
type Map[V any] struct {
	seed   maphash.Seed
	shards [numShards]shard[V]
}

type shard[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// New creates an empty map.
func New[V any]() *Map[V] {
	m := &Map[V]{seed: maphash.MakeSeed()}
	for i := range m.shards {
		m.shards[i].items = make(map[string]V)
	}
	return m
}

func (m *Map[V]) shardFor(key string) *shard[V] {
	return &m.shards[maphash.String(m.seed, key)&(numShards-1)]
}

// Get returns the value registered under key.
func (m *Map[V]) Get(key string) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// GetOrSet registers value under key if the key is absent and returns the
// value that ended up registered. The second return reports whether the
// key already existed — the first writer wins, later callers receive the
// winner's value.
func (m *Map[V]) GetOrSet(key string, value V) (V, bool) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.items[key]; ok {
		return existing, true
	}
	s.items[key] = value
	return value, false
}

// Count returns the number of registered entries.
func (m *Map[V]) Count() int {
	total := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		total += len(s.items)
		s.mu.RUnlock()
	}
	return total
}

// Range calls fn for every entry until fn returns false. Locks are taken
// shard by shard, so the traversal is not a consistent snapshot; entries
// registered while it runs may or may not be visited.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// Keys returns the keys of all registered entries, in no particular order.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, m.Count())
	m.Range(func(key string, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}
