// Package domain defines the core domain models for CacheMesh.
package domain

import "fmt"

// InitialTopologyID is the topology id of a cache before any members have
// been assigned.
const InitialTopologyID = -1

// CacheTopology is a versioned pair of consistent-hash assignments for one
// cache.
//
// CurrentCH is the assignment clients route by; a nil CurrentCH means no
// members have been assigned yet. A non-nil PendingCH means a rebalance is
// in progress and ownership is transitioning from CurrentCH to PendingCH.
//
// CacheTopology is a value type: installed topologies are replaced whole,
// never mutated.
type CacheTopology struct {
	TopologyID int
	CurrentCH  ConsistentHash
	PendingCH  ConsistentHash
}

// EmptyCacheTopology returns the topology of a cache that has not been
// initialized with members yet.
func EmptyCacheTopology() CacheTopology {
	return CacheTopology{TopologyID: InitialTopologyID}
}

// Members returns the effective member set: the union of the pending and
// current members when both assignments exist, else whichever is non-nil.
// Pending members come first, matching their priority during a rebalance.
func (t CacheTopology) Members() []Address {
	switch {
	case t.PendingCH != nil && t.CurrentCH != nil:
		return UnionAddresses(t.PendingCH.Members(), t.CurrentCH.Members())
	case t.PendingCH != nil:
		return CloneAddresses(t.PendingCH.Members())
	case t.CurrentCH != nil:
		return CloneAddresses(t.CurrentCH.Members())
	default:
		return nil
	}
}

// RebalanceInProgress reports whether a pending assignment is installed.
func (t CacheTopology) RebalanceInProgress() bool {
	return t.PendingCH != nil
}

// String implements fmt.Stringer for log output.
func (t CacheTopology) String() string {
	cur, pend := "nil", "nil"
	if t.CurrentCH != nil {
		cur = fmt.Sprintf("%v", t.CurrentCH.Members())
	}
	if t.PendingCH != nil {
		pend = fmt.Sprintf("%v", t.PendingCH.Members())
	}
	return fmt.Sprintf("CacheTopology{id=%d current=%s pending=%s}", t.TopologyID, cur, pend)
}
