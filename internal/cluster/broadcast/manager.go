// Package broadcast provides the in-process cluster topology manager.
package broadcast

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/yndnr/cachemesh-go/internal/core/domain"
)

// queueSize bounds the fan-out queue. Updates beyond it are dropped;
// topology broadcasts are fire-and-forget and the next update supersedes
// a lost one.
const queueSize = 256

// Listener receives fanned-out topology events.
type Listener interface {
	// OnTopologyUpdate delivers the latest installed topology of a cache.
	OnTopologyUpdate(cacheName string, topology domain.CacheTopology)

	// OnRebalanceRequested announces that state transfer toward the
	// topology's pending hash should begin.
	OnRebalanceRequested(cacheName string, topology domain.CacheTopology)
}

// Completer receives cluster-wide rebalance completions. Implemented by
// the rebalance policy.
type Completer interface {
	OnRebalanceCompleted(cacheName string, topologyID int) error
}

type eventKind uint8

const (
	eventUpdate eventKind = iota
	eventRebalance
)

type event struct {
	kind     eventKind
	cache    string
	topology domain.CacheTopology
}

// outstanding tracks one cache's unconfirmed rebalance.
type outstanding struct {
	topologyID int
	waiting    map[domain.Address]struct{}
}

// Manager implements the topology manager contract of the rebalance
// policy for a single process.
type Manager struct {
	mu        sync.Mutex
	listeners []Listener
	pending   map[string]*outstanding
	completer Completer

	queue chan event
	done  chan struct{}
	wg    sync.WaitGroup

	closeOnce sync.Once
	logger    *slog.Logger
}

// NewManager creates and starts a topology manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		pending: make(map[string]*outstanding),
		queue:   make(chan event, queueSize),
		done:    make(chan struct{}),
		logger:  logger,
	}

	m.wg.Add(1)
	go m.dispatch()
	return m
}

// SetCompleter wires the completion callback. Must be called before any
// rebalance activity.
func (m *Manager) SetCompleter(c Completer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completer = c
}

// AddListener registers a fan-out target.
func (m *Manager) AddListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// UpdateConsistentHash broadcasts the latest topology of a cache.
// Only enqueues; safe to call while a cache status lock is held.
func (m *Manager) UpdateConsistentHash(cacheName string, topology domain.CacheTopology) {
	m.enqueue(event{kind: eventUpdate, cache: cacheName, topology: topology})
}

// Rebalance initiates the state-transfer protocol toward the topology's
// pending hash and arms the confirmation tracking for it.
func (m *Manager) Rebalance(cacheName string, topology domain.CacheTopology) {
	if topology.PendingCH == nil {
		m.logger.Error("rebalance requested without a pending hash", "cache", cacheName)
		return
	}

	waiting := make(map[domain.Address]struct{})
	for _, member := range topology.PendingCH.Members() {
		waiting[member] = struct{}{}
	}

	m.mu.Lock()
	m.pending[cacheName] = &outstanding{
		topologyID: topology.TopologyID,
		waiting:    waiting,
	}
	m.mu.Unlock()

	m.logger.Info("rebalance announced",
		"cache", cacheName,
		"topology_id", topology.TopologyID,
		"awaiting", len(waiting))
	m.enqueue(event{kind: eventRebalance, cache: cacheName, topology: topology})
}

// Confirm records that a node has applied the pending hash of the given
// topology id. When the last awaited node confirms, the completer fires.
func (m *Manager) Confirm(cacheName string, topologyID int, node domain.Address) error {
	m.mu.Lock()
	out, ok := m.pending[cacheName]
	if !ok || out.topologyID != topologyID {
		m.mu.Unlock()
		return fmt.Errorf("broadcast: no outstanding rebalance with id %d for cache %s", topologyID, cacheName)
	}

	delete(out.waiting, node)
	remaining := len(out.waiting)
	var completer Completer
	if remaining == 0 {
		delete(m.pending, cacheName)
		completer = m.completer
	}
	m.mu.Unlock()

	m.logger.Debug("rebalance confirmation",
		"cache", cacheName,
		"topology_id", topologyID,
		"node", node,
		"remaining", remaining)

	if remaining > 0 || completer == nil {
		return nil
	}
	return completer.OnRebalanceCompleted(cacheName, topologyID)
}

// Outstanding returns the topology id awaited for a cache, or false when
// no rebalance is in flight.
func (m *Manager) Outstanding(cacheName string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out, ok := m.pending[cacheName]
	if !ok {
		return 0, false
	}
	return out.topologyID, true
}

// Close stops the fan-out queue and waits for the dispatcher to exit.
// Events still queued at Close are not delivered.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	m.wg.Wait()
}

func (m *Manager) enqueue(ev event) {
	select {
	case <-m.done:
		return
	default:
	}

	select {
	case m.queue <- ev:
	default:
		m.logger.Warn("topology fan-out queue full, event dropped",
			"cache", ev.cache, "topology_id", ev.topology.TopologyID)
	}
}

func (m *Manager) dispatch() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case ev := <-m.queue:
			m.deliver(ev)
		}
	}
}

func (m *Manager) deliver(ev event) {
	m.mu.Lock()
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, l := range listeners {
		switch ev.kind {
		case eventUpdate:
			l.OnTopologyUpdate(ev.cache, ev.topology)
		case eventRebalance:
			l.OnRebalanceRequested(ev.cache, ev.topology)
		}
	}
}
