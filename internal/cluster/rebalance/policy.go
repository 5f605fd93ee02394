// Package rebalance implements the cluster rebalance policy.
package rebalance

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/yndnr/cachemesh-go/internal/core/domain"
	"github.com/yndnr/cachemesh-go/internal/telemetry/metric"
	"github.com/yndnr/cachemesh-go/pkg/cmap"
)

// Config wires the policy's collaborators.
type Config struct {
	// Transport supplies the initial cluster member view at Start.
	Transport Transport

	// TopologyManager receives topology broadcasts and rebalance starts.
	TopologyManager TopologyManager

	// Executor runs rebalance decision jobs.
	Executor Executor

	// DefaultFactory builds consistent hashes for caches whose status is
	// reconstructed from partition topologies after a merge.
	DefaultFactory domain.ConsistentHashFactory

	// Logger for structured logging.
	Logger *slog.Logger

	// Metrics registry; a private one is created when nil.
	Metrics *metric.Registry
}

// Policy is the per-cache cluster rebalance coordinator.
//
// It is a passive object invoked from multiple threads: the transport's
// view-change callback, join/leave handlers, the rebalance-confirmation
// path and the async executor. Per-cache serialization happens on the
// cache status lock; operations on different caches run independently.
type Policy struct {
	transport      Transport
	manager        TopologyManager
	executor       Executor
	defaultFactory domain.ConsistentHashFactory
	logger         *slog.Logger
	metrics        *metric.Registry

	clusterMembers atomic.Pointer[[]domain.Address]
	statuses       *cmap.Map[*cacheStatus]
}

// New creates a rebalance policy.
func New(cfg Config) (*Policy, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("rebalance: transport is required")
	}
	if cfg.TopologyManager == nil {
		return nil, fmt.Errorf("rebalance: topology manager is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("rebalance: executor is required")
	}
	if cfg.DefaultFactory == nil {
		return nil, fmt.Errorf("rebalance: default consistent hash factory is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metric.NewRegistry()
	}

	return &Policy{
		transport:      cfg.Transport,
		manager:        cfg.TopologyManager,
		executor:       cfg.Executor,
		defaultFactory: cfg.DefaultFactory,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		statuses:       cmap.New[*cacheStatus](),
	}, nil
}

// Start seeds the cluster member view from the transport. It must run
// after all collaborators are wired and before any cache-topology
// activity.
func (p *Policy) Start() {
	members := p.transport.Members()
	p.logger.Info("rebalance policy started", "members", domain.AddressStrings(members))
	p.UpdateMembersList(members)
}

// ClusterMembers returns the current cluster member snapshot.
func (p *Policy) ClusterMembers() []domain.Address {
	if members := p.clusterMembers.Load(); members != nil {
		return *members
	}
	return nil
}

// CacheNames returns the names of all registered caches.
func (p *Policy) CacheNames() []string {
	return p.statuses.Keys()
}

// Stats implements metric.StatsSource.
func (p *Policy) Stats() metric.Stats {
	stats := metric.Stats{Caches: p.statuses.Count()}
	p.statuses.Range(func(_ string, status *cacheStatus) bool {
		if status.topology().RebalanceInProgress() {
			stats.RebalancesInFlight++
		}
		return true
	})
	return stats
}

// InitCache registers a cache with its join parameters. Idempotent:
// a second registration for the same cache is a no-op, first writer wins.
// No topology is broadcast.
func (p *Policy) InitCache(cacheName string, joinInfo domain.CacheJoinInfo) error {
	if err := joinInfo.Validate(); err != nil {
		return err
	}

	if _, existed := p.statuses.GetOrSet(cacheName, newCacheStatus(joinInfo)); existed {
		p.logger.Debug("cache already registered", "cache", cacheName)
		return nil
	}

	p.logger.Info("cache registered",
		"cache", cacheName,
		"num_owners", joinInfo.NumOwners,
		"num_segments", joinInfo.NumSegments)
	return nil
}

// MergePartitionTopologies installs the union of the cache topologies held
// by previously partitioned sub-clusters. The merged topology takes the
// highest partition topology id and is broadcast; it is intentionally not
// balanced. No rebalance is triggered here — the next members update
// restores the balance.
//
// An empty partition list is a no-op. For a cache this policy has never
// seen, join parameters are reconstructed from the partitions' hash
// geometry and the default factory.
func (p *Policy) MergePartitionTopologies(cacheName string, partitionTopologies []domain.CacheTopology) error {
	if len(partitionTopologies) == 0 {
		return nil
	}

	status, ok := p.statuses.Get(cacheName)
	if !ok {
		ref := firstHash(partitionTopologies)
		if ref == nil {
			p.logger.Debug("partition topologies carry no hash, nothing to merge", "cache", cacheName)
			return nil
		}
		joinInfo := domain.CacheJoinInfo{
			NumOwners:   ref.NumOwners(),
			NumSegments: ref.NumSegments(),
			Factory:     p.defaultFactory,
			Timeout:     domain.DefaultJoinTimeout,
		}
		status, _ = p.statuses.GetOrSet(cacheName, newCacheStatus(joinInfo))
	}

	status.mu.Lock()
	defer status.mu.Unlock()

	factory := status.joinInfo.Factory
	unionTopologyID := partitionTopologies[0].TopologyID
	var currentUnion, pendingUnion domain.ConsistentHash
	var err error

	for _, part := range partitionTopologies {
		if part.TopologyID > unionTopologyID {
			unionTopologyID = part.TopologyID
		}
		if part.CurrentCH != nil {
			if currentUnion, err = foldUnion(factory, currentUnion, part.CurrentCH); err != nil {
				return fmt.Errorf("merge current hash of cache %s: %w", cacheName, err)
			}
		}
		if part.PendingCH != nil {
			if pendingUnion, err = foldUnion(factory, pendingUnion, part.PendingCH); err != nil {
				return fmt.Errorf("merge pending hash of cache %s: %w", cacheName, err)
			}
		}
	}

	merged := domain.CacheTopology{
		TopologyID: unionTopologyID,
		CurrentCH:  currentUnion,
		PendingCH:  pendingUnion,
	}
	status.setTopology(merged)
	p.broadcastLocked(cacheName, merged)

	p.logger.Info("installed merged topology",
		"cache", cacheName,
		"topology_id", merged.TopologyID,
		"partitions", len(partitionTopologies))
	return nil
}

// AddJoiners queues nodes for inclusion in a cache and returns the latest
// topology. The first joiners of a cache get the initial topology
// installed and returned without a broadcast — the topology travels back
// to the joining node as the join response. Later joiners trigger an
// asynchronous rebalance.
//
// Returns nil for a cache that was never registered.
func (p *Policy) AddJoiners(cacheName string, joiners []domain.Address) (*domain.CacheTopology, error) {
	status, ok := p.statuses.Get(cacheName)
	if !ok {
		p.logger.Debug("join request for unknown cache", "cache", cacheName)
		return nil, nil
	}

	status.mu.Lock()
	current := status.topology().CurrentCH
	for _, joiner := range joiners {
		// A node that already owns segments is not a joiner.
		if current != nil && domain.ContainsAddress(current.Members(), joiner) {
			continue
		}
		if status.addJoiner(joiner) {
			p.logger.Debug("queued joiner", "cache", cacheName, "joiner", joiner)
		}
	}

	top := status.topology()
	if top.CurrentCH == nil {
		if status.joinerCount() == 0 {
			status.mu.Unlock()
			return &top, nil
		}
		installed, err := p.installInitialTopologyLocked(cacheName, status)
		status.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return &installed, nil
	}
	status.mu.Unlock()

	p.triggerRebalance(cacheName, status)
	result := status.topology()
	return &result, nil
}

// RemoveLeavers shrinks a cache's assignments to the cluster members that
// remain after leavers are gone. Unknown caches are ignored.
func (p *Policy) RemoveLeavers(cacheName string, leavers []domain.Address) error {
	status, ok := p.statuses.Get(cacheName)
	if !ok {
		p.logger.Debug("leave request for unknown cache", "cache", cacheName)
		return nil
	}

	status.mu.Lock()
	if status.topology().CurrentCH == nil {
		status.mu.Unlock()
		return nil
	}
	newMembers := domain.SubtractAddresses(p.ClusterMembers(), leavers)
	trigger, err := p.updateCacheMembersLocked(cacheName, status, newMembers)
	status.mu.Unlock()
	if err != nil {
		return err
	}

	if trigger {
		p.triggerRebalance(cacheName, status)
	}
	return nil
}

// UpdateMembersList replaces the process-wide cluster member snapshot and
// reconciles every cache against the new view. Caches whose assignments
// reference departed members are shrunk; caches left unbalanced or with
// queued joiners get a rebalance scheduled.
func (p *Policy) UpdateMembersList(newClusterMembers []domain.Address) {
	members := domain.CloneAddresses(newClusterMembers)
	p.clusterMembers.Store(&members)
	p.metrics.ClusterMembers.Set(float64(len(members)))
	p.logger.Info("cluster members updated", "members", domain.AddressStrings(members))

	p.statuses.Range(func(cacheName string, status *cacheStatus) bool {
		p.reconcileCacheMembership(cacheName, status, members)
		return true
	})
}

// reconcileCacheMembership applies a new cluster view to one cache.
func (p *Policy) reconcileCacheMembership(cacheName string, status *cacheStatus, newClusterMembers []domain.Address) {
	status.mu.Lock()

	top := status.topology()
	if top.CurrentCH == nil {
		status.mu.Unlock()
		return
	}

	trigger := false
	currentValid := domain.ContainsAllAddresses(newClusterMembers, top.CurrentCH.Members())
	pendingValid := top.PendingCH == nil || domain.ContainsAllAddresses(newClusterMembers, top.PendingCH.Members())
	if !currentValid || !pendingValid {
		newCurrentMembers := domain.IntersectAddresses(top.CurrentCH.Members(), newClusterMembers)
		var err error
		trigger, err = p.updateCacheMembersLocked(cacheName, status, newCurrentMembers)
		if err != nil {
			p.logger.Error("failed to shrink cache to new member view",
				"cache", cacheName, "error", err)
			status.mu.Unlock()
			return
		}
	}

	// A joiner may have arrived before the view carrying it; a rebalance
	// picks it up now that the view is in.
	top = status.topology()
	if top.CurrentCH != nil && (!domain.IsBalanced(top.CurrentCH) || status.joinerCount() > 0) {
		trigger = true
	}
	status.mu.Unlock()

	if trigger {
		p.triggerRebalance(cacheName, status)
	}
}

// OnRebalanceCompleted promotes the pending assignment of a cache after
// every node confirmed it. A confirmation that does not match the
// outstanding rebalance fails with ErrStaleConfirmation and leaves the
// state untouched.
func (p *Policy) OnRebalanceCompleted(cacheName string, topologyID int) error {
	status, ok := p.statuses.Get(cacheName)
	if !ok {
		p.logger.Debug("rebalance confirmation for unknown cache", "cache", cacheName)
		return nil
	}

	status.mu.Lock()
	top := status.topology()
	if topologyID != top.TopologyID || top.PendingCH == nil {
		status.mu.Unlock()
		p.metrics.StaleConfirmations.Inc()
		return ErrStaleConfirmation.WithDetails(fmt.Sprintf(
			"cache %s: confirmed id %d, installed id %d, rebalance in progress %t",
			cacheName, topologyID, top.TopologyID, top.PendingCH != nil))
	}

	promoted := domain.CacheTopology{
		TopologyID: top.TopologyID + 1,
		CurrentCH:  top.PendingCH,
	}
	status.setTopology(promoted)
	status.removeJoiners(promoted.CurrentCH.Members())
	p.broadcastLocked(cacheName, promoted)

	steady := status.joinerCount() == 0 && domain.IsBalanced(promoted.CurrentCH)
	status.mu.Unlock()

	p.metrics.RebalancesCompleted.WithLabelValues(cacheName).Inc()
	p.logger.Info("rebalance completed",
		"cache", cacheName,
		"topology_id", promoted.TopologyID,
		"members", domain.AddressStrings(promoted.CurrentCH.Members()),
		"steady", steady)

	if !steady {
		p.triggerRebalance(cacheName, status)
	}
	return nil
}

// GetTopology returns the latest topology of a cache, or nil if the cache
// is unknown. Lock-free: the topology field is replaced whole under the
// status lock, so this observes either the old or the new value.
func (p *Policy) GetTopology(cacheName string) *domain.CacheTopology {
	status, ok := p.statuses.Get(cacheName)
	if !ok {
		return nil
	}
	top := status.topology()
	return &top
}

// installInitialTopologyLocked builds the first balanced assignment of a
// cache over its queued joiners. Not broadcast: the initial topology is
// communicated as the response to the join that created it. Callers must
// hold the status lock.
func (p *Policy) installInitialTopologyLocked(cacheName string, status *cacheStatus) (domain.CacheTopology, error) {
	info := status.joinInfo
	ch, err := info.Factory.Create(info.HashFunction, info.NumOwners, info.NumSegments, status.joiners)
	if err != nil {
		return domain.CacheTopology{}, fmt.Errorf("create initial hash for cache %s: %w", cacheName, err)
	}

	top := status.topology()
	installed := domain.CacheTopology{
		TopologyID: top.TopologyID + 1,
		CurrentCH:  ch,
	}
	status.setTopology(installed)
	status.removeJoiners(ch.Members())
	p.metrics.TopologyID.WithLabelValues(cacheName).Set(float64(installed.TopologyID))

	p.logger.Info("installed initial topology",
		"cache", cacheName,
		"topology_id", installed.TopologyID,
		"members", domain.AddressStrings(ch.Members()))
	return installed, nil
}

// updateCacheMembersLocked shrinks the cache's assignments to newMembers.
// Membership shrink does not mint a new topology id; only the hash values
// change. Returns whether a rebalance should follow. Callers must hold the
// status lock.
func (p *Policy) updateCacheMembersLocked(cacheName string, status *cacheStatus, newMembers []domain.Address) (bool, error) {
	top := status.topology()
	factory := status.joinInfo.Factory

	var newPendingCH domain.ConsistentHash
	if top.PendingCH != nil {
		pendingMembers := domain.IntersectAddresses(top.PendingCH.Members(), newMembers)
		if len(pendingMembers) > 0 {
			var err error
			newPendingCH, err = factory.UpdateMembers(top.PendingCH, pendingMembers)
			if err != nil {
				return false, fmt.Errorf("update pending hash of cache %s: %w", cacheName, err)
			}
		}
	}

	newCurrentCH := newPendingCH // cache survives on the joiners when current is lost
	currentMembers := domain.IntersectAddresses(top.CurrentCH.Members(), newMembers)
	if len(currentMembers) > 0 {
		var err error
		newCurrentCH, err = factory.UpdateMembers(top.CurrentCH, currentMembers)
		if err != nil {
			return false, fmt.Errorf("update current hash of cache %s: %w", cacheName, err)
		}
	}

	hasMembers := newCurrentCH != nil
	updated := domain.CacheTopology{
		TopologyID: top.TopologyID,
		CurrentCH:  newCurrentCH,
		PendingCH:  newPendingCH,
	}
	status.setTopology(updated)

	if hasMembers {
		p.broadcastLocked(cacheName, updated)
	} else {
		p.logger.Info("cache lost all members", "cache", cacheName)
	}
	return hasMembers, nil
}

// triggerRebalance schedules an asynchronous rebalance decision. Multiple
// submissions for the same cache coalesce in doRebalance.
func (p *Policy) triggerRebalance(cacheName string, status *cacheStatus) {
	p.logger.Debug("scheduling rebalance", "cache", cacheName)
	p.executor.Submit(func() {
		p.doRebalance(cacheName, status)
	})
}

// doRebalance is the serialization point of rebalance decisions. It
// re-reads the cache state under the lock, mints the pending topology and
// hands it to the topology manager outside the lock.
func (p *Policy) doRebalance(cacheName string, status *cacheStatus) {
	status.mu.Lock()

	top := status.topology()
	if top.PendingCH != nil {
		p.logger.Debug("rebalance already in progress", "cache", cacheName,
			"topology_id", top.TopologyID)
		status.mu.Unlock()
		return
	}

	newMembers := top.Members()
	if len(newMembers) == 0 {
		p.logger.Debug("no members to rebalance", "cache", cacheName)
		status.mu.Unlock()
		return
	}
	newMembers = domain.UnionAddresses(newMembers, status.joiners)
	newMembers = domain.IntersectAddresses(newMembers, p.ClusterMembers())

	if top.CurrentCH == nil {
		// The last member left after this job was scheduled; start over
		// from the queued joiners.
		if _, err := p.installInitialTopologyLocked(cacheName, status); err != nil {
			p.logger.Error("failed to reinstall initial topology", "cache", cacheName, "error", err)
		}
		status.mu.Unlock()
		return
	}

	if len(newMembers) == 0 {
		p.logger.Debug("no live members to rebalance", "cache", cacheName)
		status.mu.Unlock()
		return
	}

	factory := status.joinInfo.Factory
	updatedMembersCH, err := factory.UpdateMembers(top.CurrentCH, newMembers)
	if err != nil {
		p.logger.Error("failed to update hash members", "cache", cacheName, "error", err)
		status.mu.Unlock()
		return
	}
	balancedCH, err := factory.Rebalance(updatedMembersCH)
	if err != nil {
		p.logger.Error("failed to rebalance hash", "cache", cacheName, "error", err)
		status.mu.Unlock()
		return
	}

	if balancedCH.Equal(top.CurrentCH) {
		p.logger.Debug("topology already balanced", "cache", cacheName,
			"topology_id", top.TopologyID)
		status.mu.Unlock()
		return
	}

	pending := domain.CacheTopology{
		TopologyID: top.TopologyID + 1,
		CurrentCH:  top.CurrentCH,
		PendingCH:  balancedCH,
	}
	status.setTopology(pending)
	p.metrics.TopologyID.WithLabelValues(cacheName).Set(float64(pending.TopologyID))
	status.mu.Unlock()

	p.metrics.RebalancesStarted.WithLabelValues(cacheName).Inc()
	p.logger.Info("starting rebalance",
		"cache", cacheName,
		"topology_id", pending.TopologyID,
		"members", domain.AddressStrings(balancedCH.Members()))

	// Initiates the cluster-wide state transfer; may block, so the lock
	// is already released. Completion returns via OnRebalanceCompleted.
	p.manager.Rebalance(cacheName, pending)
}

// broadcastLocked fans the topology out through the manager. Callers must
// hold the status lock; the manager only enqueues.
func (p *Policy) broadcastLocked(cacheName string, top domain.CacheTopology) {
	p.metrics.TopologyID.WithLabelValues(cacheName).Set(float64(top.TopologyID))
	p.metrics.TopologyBroadcasts.Inc()
	p.manager.UpdateConsistentHash(cacheName, top)
}

// foldUnion accumulates the union of consistent hashes, skipping the nil
// seed.
func foldUnion(factory domain.ConsistentHashFactory, acc, next domain.ConsistentHash) (domain.ConsistentHash, error) {
	if acc == nil {
		return next, nil
	}
	return factory.Union(acc, next)
}

// firstHash returns the first non-nil hash in a list of topologies.
func firstHash(topologies []domain.CacheTopology) domain.ConsistentHash {
	for _, t := range topologies {
		if t.CurrentCH != nil {
			return t.CurrentCH
		}
		if t.PendingCH != nil {
			return t.PendingCH
		}
	}
	return nil
}
