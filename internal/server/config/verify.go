// Package config defines the server configuration structure.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyCluster(&cfg.Cluster); err != nil {
		return err
	}
	return verifyCaches(cfg.Caches)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.HTTP.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http: tls_cert_file and tls_key_file must be set together")
	}
	if cfg.HTTP.RateLimit < 0 {
		return errors.New("server.http.rate_limit must not be negative")
	}
	return nil
}

func verifyCluster(cfg *ClusterSection) error {
	if cfg.GossipPort < 0 || cfg.GossipPort > 65535 {
		return fmt.Errorf("cluster.gossip_port %d is out of range", cfg.GossipPort)
	}
	if cfg.GossipKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.GossipKey)
		if err != nil {
			return fmt.Errorf("cluster.gossip_key is not valid base64: %w", err)
		}
		switch len(key) {
		case 16, 24, 32:
		default:
			return fmt.Errorf("cluster.gossip_key must decode to 16, 24 or 32 bytes, got %d", len(key))
		}
	}
	if cfg.RebalanceWorkers < 0 {
		return errors.New("cluster.rebalance_workers must not be negative")
	}
	if cfg.RebalanceQueue < 0 {
		return errors.New("cluster.rebalance_queue must not be negative")
	}
	return nil
}

func verifyCaches(caches []CacheConfig) error {
	seen := make(map[string]struct{}, len(caches))
	for i, c := range caches {
		if c.Name == "" {
			return fmt.Errorf("caches[%d].name is required", i)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("cache %q is declared twice", c.Name)
		}
		seen[c.Name] = struct{}{}

		if c.NumOwners < 0 {
			return fmt.Errorf("cache %q: num_owners must not be negative", c.Name)
		}
		if c.NumSegments < 0 {
			return fmt.Errorf("cache %q: num_segments must not be negative", c.Name)
		}
	}
	return nil
}
