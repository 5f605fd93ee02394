package config

import (
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("http addr = %q, want %q", cfg.Server.HTTP.Addr, DefaultHTTPAddr)
	}
	if cfg.Cluster.GossipPort != DefaultGossipPort {
		t.Errorf("gossip port = %d, want %d", cfg.Cluster.GossipPort, DefaultGossipPort)
	}
	if err := Verify(cfg); err != nil {
		t.Errorf("default configuration does not verify: %v", err)
	}
}

func TestVerify(t *testing.T) {
	valid := func() *ServerConfig {
		cfg := Default()
		cfg.Caches = []CacheConfig{{Name: "users", NumOwners: 2, NumSegments: 64}}
		return cfg
	}

	if err := Verify(valid()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ServerConfig)
	}{
		{"empty http addr", func(c *ServerConfig) { c.Server.HTTP.Addr = "" }},
		{"tls cert without key", func(c *ServerConfig) { c.Server.HTTP.TLSCertFile = "/tls/cert.pem" }},
		{"negative rate limit", func(c *ServerConfig) { c.Server.HTTP.RateLimit = -1 }},
		{"gossip port out of range", func(c *ServerConfig) { c.Cluster.GossipPort = 70000 }},
		{"gossip key not base64", func(c *ServerConfig) { c.Cluster.GossipKey = "not-base64!!!" }},
		{"gossip key wrong size", func(c *ServerConfig) { c.Cluster.GossipKey = "c2hvcnQ=" }}, // "short"
		{"unnamed cache", func(c *ServerConfig) { c.Caches[0].Name = "" }},
		{"duplicate cache", func(c *ServerConfig) {
			c.Caches = append(c.Caches, CacheConfig{Name: "users", NumOwners: 1, NumSegments: 8})
		}},
		{"negative owners", func(c *ServerConfig) { c.Caches[0].NumOwners = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := Verify(cfg); err == nil {
				t.Error("Verify accepted an invalid config")
			}
		})
	}
}

func TestVerifyAcceptsValidGossipKey(t *testing.T) {
	cfg := Default()
	// 16 bytes, base64
	cfg.Cluster.GossipKey = "MDEyMzQ1Njc4OWFiY2RlZg=="
	if err := Verify(cfg); err != nil {
		t.Errorf("valid gossip key rejected: %v", err)
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Cluster.GossipKey = "MDEyMzQ1Njc4OWFiY2RlZg=="

	sanitized := Sanitize(cfg)
	if sanitized.Cluster.GossipKey == cfg.Cluster.GossipKey {
		t.Error("gossip key not masked")
	}
	if !strings.Contains(sanitized.Cluster.GossipKey, "*") {
		t.Errorf("masked key = %q", sanitized.Cluster.GossipKey)
	}
	// Original untouched
	if cfg.Cluster.GossipKey != "MDEyMzQ1Njc4OWFiY2RlZg==" {
		t.Error("Sanitize modified its input")
	}
}
