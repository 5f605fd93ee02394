// Package hashing provides the default consistent-hash factory for
// CacheMesh caches.
//
// Segments are placed on a MurmurHash3 ring with virtual nodes per member,
// giving deterministic owner selection that is stable under membership
// changes. The factory implements the pure operations the rebalance policy
// drives: create, updateMembers, union and rebalance.
package hashing
