package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Server struct {
		HTTP struct {
			Addr string `koanf:"addr"`
		} `koanf:"http"`
	} `koanf:"server"`
	Cluster struct {
		NodeID string   `koanf:"node_id"`
		Seeds  []string `koanf:"seeds"`
	} `koanf:"cluster"`
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  http:
    addr: "0.0.0.0:5080"
cluster:
  node_id: "cmnode-test"
  seeds:
    - "10.0.0.1:5344"
    - "10.0.0.2:5344"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	l := NewLoader(WithConfigFile(path))
	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.HTTP.Addr != "0.0.0.0:5080" {
		t.Errorf("http addr = %q", cfg.Server.HTTP.Addr)
	}
	if cfg.Cluster.NodeID != "cmnode-test" {
		t.Errorf("node id = %q", cfg.Cluster.NodeID)
	}
	if len(cfg.Cluster.Seeds) != 2 {
		t.Errorf("seeds = %v", cfg.Cluster.Seeds)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() = false after Load")
	}
}

func TestLoadFileMissing(t *testing.T) {
	l := NewLoader(WithConfigFile("/nonexistent/config.yaml"))
	var cfg testConfig
	if err := l.Load(&cfg); err == nil {
		t.Error("missing config file accepted")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  http:\n    addr: \"127.0.0.1:5080\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CACHEMESH_SERVER_HTTP_ADDR", "0.0.0.0:9999")

	l := NewLoader(WithConfigFile(path))
	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.HTTP.Addr != "0.0.0.0:9999" {
		t.Errorf("http addr = %q, want env override 0.0.0.0:9999", cfg.Server.HTTP.Addr)
	}
}

func TestCustomEnvPrefix(t *testing.T) {
	t.Setenv("CMTEST_CLUSTER_NODE_ID", "cmnode-env")

	l := NewLoader(WithEnvPrefix("CMTEST_"))
	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Cluster.NodeID != "cmnode-env" {
		t.Errorf("node id = %q, want cmnode-env", cfg.Cluster.NodeID)
	}
}

func TestLoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"server.http.addr": "1.2.3.4:80"}); err != nil {
		t.Fatalf("LoadMap: %v", err)
	}

	var cfg testConfig
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if cfg.Server.HTTP.Addr != "1.2.3.4:80" {
		t.Errorf("http addr = %q", cfg.Server.HTTP.Addr)
	}

	if got := l.GetString("server.http.addr"); got != "1.2.3.4:80" {
		t.Errorf("GetString = %q", got)
	}
}
