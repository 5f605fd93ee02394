// Package config defines the server configuration structure.
package config

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/cachemesh-go/internal/cluster/discovery"
	"github.com/yndnr/cachemesh-go/internal/cluster/hashing"
	"github.com/yndnr/cachemesh-go/internal/core/domain"
)

// NodeIDPrefix prefixes generated node identifiers.
const NodeIDPrefix = "cmnode-"

// ToDiscoveryConfig converts ServerConfig to discovery.Config.
//
// This handles default value population, NodeID generation, and field
// mapping. The returned node id is also written back into cfg so the rest
// of the wiring sees the generated value.
func ToDiscoveryConfig(cfg *ServerConfig, logger *slog.Logger) (discovery.Config, error) {
	if cfg == nil {
		return discovery.Config{}, fmt.Errorf("server config is nil")
	}

	nodeID := cfg.Cluster.NodeID
	if nodeID == "" {
		nodeID = GenerateNodeID()
		cfg.Cluster.NodeID = nodeID
		logger.Info("generated cluster node ID", "node_id", nodeID)
	}

	var secretKey []byte
	if cfg.Cluster.GossipKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.Cluster.GossipKey)
		if err != nil {
			return discovery.Config{}, fmt.Errorf("decode gossip key: %w", err)
		}
		secretKey = key
	}

	return discovery.Config{
		NodeID:    nodeID,
		ClusterID: cfg.Cluster.ClusterID,
		BindAddr:  cfg.Cluster.GossipAddr,
		BindPort:  cfg.Cluster.GossipPort,
		APIAddr:   cfg.Server.HTTP.Addr,
		SecretKey: secretKey,
		SeedNodes: cfg.Cluster.Seeds,
		Logger:    logger,
	}, nil
}

// BuildJoinInfo maps a cache declaration onto the join parameters the
// rebalance policy expects, filling defaults for omitted values.
func BuildJoinInfo(cache CacheConfig, factory domain.ConsistentHashFactory) domain.CacheJoinInfo {
	numOwners := cache.NumOwners
	if numOwners <= 0 {
		numOwners = DefaultNumOwners
	}
	numSegments := cache.NumSegments
	if numSegments <= 0 {
		numSegments = DefaultNumSegments
	}
	timeout := cache.JoinTimeout
	if timeout <= 0 {
		timeout = DefaultJoinTimeout
	}

	return domain.CacheJoinInfo{
		HashFunction: hashing.MurmurHash3,
		NumOwners:    numOwners,
		NumSegments:  numSegments,
		Factory:      factory,
		Timeout:      timeout,
	}
}

// GenerateNodeID generates a unique node identifier.
//
// Format: cmnode-<26 char lowercase ulid>.
func GenerateNodeID() string {
	return NodeIDPrefix + strings.ToLower(ulid.Make().String())
}
