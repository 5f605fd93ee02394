// Package cmap provides a concurrent insert-only registry map for
// CacheMesh.
//
// It backs registries that see concurrent reads from many goroutines with
// occasional first-writer-wins inserts, such as the per-cache status table
// of the rebalance policy. Keys are strings (cache names); sharded
// RWMutexes keep readers from contending with each other.
//
// Usage:
//
//	m := cmap.New[*cacheStatus]()
//	status, existed := m.GetOrSet("users", newStatus)
package cmap
