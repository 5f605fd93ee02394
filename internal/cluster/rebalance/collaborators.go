// Package rebalance implements the cluster rebalance policy.
package rebalance

import "github.com/yndnr/cachemesh-go/internal/core/domain"

// Transport is the membership oracle the policy reads its initial member
// view from. Later membership changes are pushed in via UpdateMembersList.
type Transport interface {
	// Members returns the current cluster member view.
	Members() []domain.Address
}

// TopologyManager receives the topologies the policy installs.
type TopologyManager interface {
	// UpdateConsistentHash broadcasts the latest topology of a cache to
	// all members. Fire-and-forget; called while the cache status lock is
	// held, so implementations must only enqueue.
	UpdateConsistentHash(cacheName string, topology domain.CacheTopology)

	// Rebalance initiates the cluster-wide state-transfer protocol toward
	// the topology's pending hash. May block; called without any policy
	// lock held. Completion arrives asynchronously through the policy's
	// OnRebalanceCompleted.
	Rebalance(cacheName string, topology domain.CacheTopology)
}

// Executor runs rebalance decision jobs off the caller thread.
//
// Submitted jobs must run at least once; the policy tolerates duplicate
// execution.
type Executor interface {
	Submit(job func())
}
