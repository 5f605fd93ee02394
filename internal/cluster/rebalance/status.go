// Package rebalance implements the cluster rebalance policy.
package rebalance

import (
	"sync"
	"sync/atomic"

	"github.com/yndnr/cachemesh-go/internal/core/domain"
)

// cacheStatus is the mutable per-cache state of the policy.
//
// All fields except top are guarded by mu. The topology is replaced whole
// under mu and read lock-free through the atomic pointer, so readers
// observe either the previous or the new value, never a partial one.
type cacheStatus struct {
	mu sync.Mutex

	// joinInfo is immutable after creation.
	joinInfo domain.CacheJoinInfo

	// joiners holds addresses awaiting inclusion, unique, in arrival
	// order. An address is removed as soon as it becomes an owner.
	joiners []domain.Address

	top atomic.Pointer[domain.CacheTopology]
}

func newCacheStatus(joinInfo domain.CacheJoinInfo) *cacheStatus {
	s := &cacheStatus{joinInfo: joinInfo}
	initial := domain.EmptyCacheTopology()
	s.top.Store(&initial)
	return s
}

// topology returns the latest installed topology.
func (s *cacheStatus) topology() domain.CacheTopology {
	return *s.top.Load()
}

// setTopology installs a new topology by whole-value replacement.
// Callers must hold mu.
func (s *cacheStatus) setTopology(t domain.CacheTopology) {
	s.top.Store(&t)
}

// addJoiner appends addr unless already queued. Callers must hold mu.
func (s *cacheStatus) addJoiner(addr domain.Address) bool {
	if domain.ContainsAddress(s.joiners, addr) {
		return false
	}
	s.joiners = append(s.joiners, addr)
	return true
}

// removeJoiners drops every queued joiner that appears in owners.
// Callers must hold mu.
func (s *cacheStatus) removeJoiners(owners []domain.Address) {
	s.joiners = domain.SubtractAddresses(s.joiners, owners)
}

// joinerCount returns the number of queued joiners. Callers must hold mu.
func (s *cacheStatus) joinerCount() int {
	return len(s.joiners)
}
