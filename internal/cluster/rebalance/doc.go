// Package rebalance implements the per-cache cluster rebalance policy for
// CacheMesh.
//
// The policy is the coordinator-side decision engine that drives segment
// ownership as nodes join and leave. For every named cache it maintains a
// monotonically versioned topology — a current consistent-hash assignment
// plus an optional pending assignment while a rebalance is in flight — and
// serializes the three sources of asynchrony that act on it: membership
// change notifications, cache join requests and rebalance completion
// confirmations.
//
// Every state mutation on a cache happens under that cache's own lock;
// caches never contend with each other. Topology reads are lock-free.
// Rebalance decisions run on an asynchronous executor, and redundant
// decision jobs discard themselves when they find a rebalance already in
// progress.
package rebalance
