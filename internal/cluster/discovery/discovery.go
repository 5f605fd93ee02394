// Package discovery provides cluster node discovery using Gossip protocol.
package discovery

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/hashicorp/memberlist"

	"github.com/yndnr/cachemesh-go/internal/core/domain"
)

// Discovery handles node discovery and membership using Gossip protocol.
//
// It is the membership oracle of the rebalance policy: Members feeds the
// initial view, and the join/leave callbacks push later changes in.
type Discovery struct {
	config     *memberlist.Config
	memberList *memberlist.Memberlist
	logger     *slog.Logger
	shutdown   atomic.Bool // Track if already shut down (atomic to prevent double-close)

	// Cluster identification
	clusterID string

	// Callbacks
	onJoin   func(node domain.Address, apiAddr string)
	onLeave  func(node domain.Address)
	onUpdate func(node domain.Address)
}

// Config configures the discovery mechanism.
type Config struct {
	// NodeID is the unique node identifier.
	NodeID string

	// ClusterID is the unique cluster identifier, used to reject joins
	// from foreign clusters.
	ClusterID string

	// BindAddr is the address to bind for gossip communication.
	BindAddr string

	// BindPort is the port to bind for gossip communication.
	BindPort int

	// APIAddr is the node's HTTP API address (host:port). Stored in node
	// metadata and shared with other nodes.
	APIAddr string

	// SecretKey optionally encrypts gossip traffic (16, 24 or 32 bytes).
	SecretKey []byte

	// SeedNodes are the initial nodes to join.
	SeedNodes []string

	// Logger for logging.
	Logger *slog.Logger
}

// New creates a new discovery instance and joins the seed nodes.
func New(cfg Config) (*Discovery, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	mlConfig := memberlist.DefaultLANConfig()
	mlConfig.Name = cfg.NodeID
	mlConfig.BindAddr = cfg.BindAddr
	mlConfig.BindPort = cfg.BindPort

	if len(cfg.SecretKey) > 0 {
		mlConfig.SecretKey = cfg.SecretKey
	}

	// Store API address and ClusterID in metadata for other nodes to discover
	if cfg.APIAddr != "" || cfg.ClusterID != "" {
		mlConfig.Delegate = &metadataDelegate{
			metadata: nodeMetadata{
				APIAddr:   cfg.APIAddr,
				ClusterID: cfg.ClusterID,
			},
		}
	}

	// Disable memberlist's default logger (we use our own)
	mlConfig.LogOutput = &slogWriter{logger: cfg.Logger}

	d := &Discovery{
		config:    mlConfig,
		logger:    cfg.Logger,
		clusterID: cfg.ClusterID,
	}

	mlConfig.Events = &eventDelegate{discovery: d}

	ml, err := memberlist.Create(mlConfig)
	if err != nil {
		return nil, fmt.Errorf("create memberlist: %w", err)
	}
	d.memberList = ml

	if len(cfg.SeedNodes) > 0 {
		n, err := ml.Join(cfg.SeedNodes)
		if err != nil {
			ml.Shutdown()
			return nil, fmt.Errorf("join seed nodes: %w", err)
		}
		cfg.Logger.Info("joined cluster",
			"node_id", cfg.NodeID,
			"seed_nodes", cfg.SeedNodes,
			"joined_count", n)
	} else {
		cfg.Logger.Info("started discovery (bootstrap mode)",
			"node_id", cfg.NodeID)
	}

	return d, nil
}

// Members returns the current cluster member view as policy addresses.
func (d *Discovery) Members() []domain.Address {
	if d.memberList == nil {
		return nil
	}
	nodes := d.memberList.Members()
	members := make([]domain.Address, 0, len(nodes))
	for _, n := range nodes {
		members = append(members, domain.Address(n.Name))
	}
	return members
}

// MemberInfo describes one cluster member for operational surfaces.
type MemberInfo struct {
	Node    domain.Address `json:"node"`
	Addr    string         `json:"addr"`
	APIAddr string         `json:"api_addr,omitempty"`
}

// MemberInfos returns the member view with gossip and API addresses.
func (d *Discovery) MemberInfos() []MemberInfo {
	if d.memberList == nil {
		return nil
	}
	nodes := d.memberList.Members()
	infos := make([]MemberInfo, 0, len(nodes))
	for _, n := range nodes {
		info := MemberInfo{
			Node: domain.Address(n.Name),
			Addr: net.JoinHostPort(n.Addr.String(), fmt.Sprintf("%d", n.Port)),
		}
		var metadata nodeMetadata
		if len(n.Meta) > 0 && json.Unmarshal(n.Meta, &metadata) == nil {
			info.APIAddr = metadata.APIAddr
		}
		infos = append(infos, info)
	}
	return infos
}

// LocalNode returns the local node information.
func (d *Discovery) LocalNode() *memberlist.Node {
	if d.memberList == nil {
		return nil
	}
	return d.memberList.LocalNode()
}

// Leave gracefully leaves the cluster.
func (d *Discovery) Leave() error {
	if d.memberList == nil {
		return nil
	}

	if err := d.memberList.Leave(0); err != nil {
		d.logger.Error("failed to leave cluster", "error", err)
		return err
	}

	d.logger.Info("left cluster")
	return nil
}

// Shutdown stops the discovery mechanism.
func (d *Discovery) Shutdown() error {
	// Use atomic CAS to ensure only one goroutine can shut down
	if !d.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	if d.memberList == nil {
		return nil
	}

	if err := d.memberList.Shutdown(); err != nil {
		return fmt.Errorf("shutdown memberlist: %w", err)
	}

	d.logger.Info("discovery shutdown complete")
	return nil
}

// OnJoin registers a callback for node join events.
func (d *Discovery) OnJoin(fn func(node domain.Address, apiAddr string)) {
	d.onJoin = fn
}

// OnLeave registers a callback for node leave events.
func (d *Discovery) OnLeave(fn func(node domain.Address)) {
	d.onLeave = fn
}

// OnUpdate registers a callback for node update events.
func (d *Discovery) OnUpdate(fn func(node domain.Address)) {
	d.onUpdate = fn
}

// eventDelegate implements memberlist.EventDelegate.
type eventDelegate struct {
	discovery *Discovery
}

// NotifyJoin is called when a node joins.
func (e *eventDelegate) NotifyJoin(node *memberlist.Node) {
	gossipAddr := net.JoinHostPort(node.Addr.String(), fmt.Sprintf("%d", node.Port))

	var metadata nodeMetadata
	if len(node.Meta) > 0 {
		if err := json.Unmarshal(node.Meta, &metadata); err != nil {
			e.discovery.logger.Error("failed to parse node metadata",
				"node_id", node.Name,
				"error", err)
			// Skip the join callback for a node with invalid metadata; the
			// node itself stays in the memberlist view.
			return
		}
	}

	// A node with a foreign cluster id is logged and gets no join
	// callback; it is not removed from the memberlist view.
	if e.discovery.clusterID != "" && metadata.ClusterID != "" {
		if metadata.ClusterID != e.discovery.clusterID {
			e.discovery.logger.Error("cluster ID mismatch - rejecting node",
				"node_id", node.Name,
				"expected_cluster_id", e.discovery.clusterID,
				"actual_cluster_id", metadata.ClusterID)
			return
		}
	}

	e.discovery.logger.Info("node joined",
		"node_id", node.Name,
		"cluster_id", metadata.ClusterID,
		"gossip_addr", gossipAddr,
		"api_addr", metadata.APIAddr)

	if e.discovery.onJoin != nil {
		e.discovery.onJoin(domain.Address(node.Name), metadata.APIAddr)
	}
}

// NotifyLeave is called when a node leaves.
func (e *eventDelegate) NotifyLeave(node *memberlist.Node) {
	e.discovery.logger.Info("node left",
		"node_id", node.Name,
		"addr", node.Addr.String())

	if e.discovery.onLeave != nil {
		e.discovery.onLeave(domain.Address(node.Name))
	}
}

// NotifyUpdate is called when a node is updated.
func (e *eventDelegate) NotifyUpdate(node *memberlist.Node) {
	e.discovery.logger.Debug("node updated",
		"node_id", node.Name,
		"addr", node.Addr.String())

	if e.discovery.onUpdate != nil {
		e.discovery.onUpdate(domain.Address(node.Name))
	}
}

// slogWriter adapts slog.Logger to io.Writer for memberlist.
type slogWriter struct {
	logger *slog.Logger
}

// Write implements io.Writer.
func (w *slogWriter) Write(p []byte) (n int, err error) {
	w.logger.Debug(string(p))
	return len(p), nil
}

// nodeMetadata represents the metadata stored in memberlist for each node.
type nodeMetadata struct {
	APIAddr   string `json:"api_addr"`
	ClusterID string `json:"cluster_id"`
}

// metadataDelegate provides node metadata (API address + ClusterID) to memberlist.
type metadataDelegate struct {
	metadata nodeMetadata
}

// NodeMeta returns metadata about this node (up to 512 bytes).
func (m *metadataDelegate) NodeMeta(limit int) []byte {
	data, err := json.Marshal(m.metadata)
	if err != nil {
		return nil
	}

	if len(data) > limit {
		return data[:limit]
	}
	return data
}

// NotifyMsg is called when a user message is received (not used).
func (m *metadataDelegate) NotifyMsg([]byte) {}

// GetBroadcasts is called to get broadcasts to send (not used).
func (m *metadataDelegate) GetBroadcasts(overhead, limit int) [][]byte {
	return nil
}

// LocalState returns the local state for synchronization (not used).
func (m *metadataDelegate) LocalState(join bool) []byte {
	return nil
}

// MergeRemoteState merges remote state (not used).
func (m *metadataDelegate) MergeRemoteState(buf []byte, join bool) {}
