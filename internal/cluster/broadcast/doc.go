// Package broadcast provides the in-process cluster topology manager for
// CacheMesh.
//
// The manager is the sink the rebalance policy hands topologies to. It
// fans consistent-hash updates out to registered listeners through its own
// queue — so the policy can call it while holding a cache status lock —
// and tracks per-cache rebalance confirmations: once every member of the
// pending assignment has confirmed a topology id, the policy's completion
// callback fires.
//
// The cluster-wide wire protocol for topology distribution is out of
// scope; nodes reach Confirm through whatever surface the embedding
// process exposes (CacheMesh ships an HTTP endpoint).
package broadcast
