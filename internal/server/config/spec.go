// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for cachemesh-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Cluster ClusterSection `koanf:"cluster"`
	Caches  []CacheConfig  `koanf:"caches"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP API server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// RateLimit is the per-client request budget (requests/second);
	// 0 disables rate limiting.
	RateLimit int `koanf:"rate_limit"`
}

// ClusterSection configures cluster membership and rebalancing.
type ClusterSection struct {
	// NodeID is the unique node identifier; generated when empty.
	NodeID string `koanf:"node_id"`

	// ClusterID is gossiped in node metadata; a node announcing a
	// different id gets no join callback.
	ClusterID string `koanf:"cluster_id"`

	// GossipAddr is the bind address for gossip communication.
	GossipAddr string `koanf:"gossip_addr"`

	// GossipPort is the bind port for gossip communication.
	GossipPort int `koanf:"gossip_port"`

	// GossipKey optionally encrypts gossip traffic
	// (base64, 16/24/32 bytes decoded).
	GossipKey string `koanf:"gossip_key"`

	// Seeds are the initial nodes to join.
	Seeds []string `koanf:"seeds"`

	// RebalanceWorkers is the size of the rebalance decision worker pool.
	RebalanceWorkers int `koanf:"rebalance_workers"`

	// RebalanceQueue bounds the rebalance decision queue.
	RebalanceQueue int `koanf:"rebalance_queue"`
}

// CacheConfig declares one cache this node hosts.
type CacheConfig struct {
	Name        string        `koanf:"name"`
	NumOwners   int           `koanf:"num_owners"`
	NumSegments int           `koanf:"num_segments"`
	JoinTimeout time.Duration `koanf:"join_timeout"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
