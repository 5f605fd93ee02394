// Package discovery provides gossip-based cluster membership tests.
package discovery

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/yndnr/cachemesh-go/internal/core/domain"
)

func newTestDiscovery(t *testing.T, nodeID string) *Discovery {
	t.Helper()
	d, err := New(Config{
		NodeID:   nodeID,
		BindAddr: "127.0.0.1",
		BindPort: 0, // random port
		APIAddr:  "127.0.0.1:5080",
		Logger:   slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { d.Shutdown() })
	return d
}

func TestNew(t *testing.T) {
	d := newTestDiscovery(t, "test-node")

	local := d.LocalNode()
	if local == nil {
		t.Fatal("LocalNode returned nil")
	}
	if local.Name != "test-node" {
		t.Errorf("local node name = %q, want test-node", local.Name)
	}

	var metadata nodeMetadata
	if err := json.Unmarshal(local.Meta, &metadata); err != nil {
		t.Fatalf("unmarshal metadata: %v", err)
	}
	if metadata.APIAddr != "127.0.0.1:5080" {
		t.Errorf("metadata api addr = %q, want 127.0.0.1:5080", metadata.APIAddr)
	}
}

func TestMembers(t *testing.T) {
	d := newTestDiscovery(t, "solo")

	members := d.Members()
	if len(members) != 1 || members[0] != domain.Address("solo") {
		t.Errorf("Members() = %v, want [solo]", members)
	}

	infos := d.MemberInfos()
	if len(infos) != 1 {
		t.Fatalf("MemberInfos() returned %d entries, want 1", len(infos))
	}
	if infos[0].Node != "solo" || infos[0].APIAddr != "127.0.0.1:5080" {
		t.Errorf("MemberInfos()[0] = %+v", infos[0])
	}
}

func TestTwoNodeCluster(t *testing.T) {
	d1 := newTestDiscovery(t, "node-1")

	seed := d1.LocalNode()
	d2, err := New(Config{
		NodeID:    "node-2",
		BindAddr:  "127.0.0.1",
		BindPort:  0,
		APIAddr:   "127.0.0.1:5081",
		SeedNodes: []string{seed.Address()},
		Logger:    slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil)),
	})
	if err != nil {
		t.Fatalf("New(node-2): %v", err)
	}
	defer d2.Shutdown()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(d1.Members()) == 2 && len(d2.Members()) == 2 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	m1 := d1.Members()
	if len(m1) != 2 {
		t.Fatalf("node-1 sees %d members, want 2", len(m1))
	}
	if !domain.ContainsAddress(m1, "node-2") {
		t.Errorf("node-1 view %v is missing node-2", m1)
	}
}

func TestJoinCallback(t *testing.T) {
	d1 := newTestDiscovery(t, "cb-node-1")

	joined := make(chan domain.Address, 4)
	d1.OnJoin(func(node domain.Address, apiAddr string) {
		joined <- node
	})

	seed := d1.LocalNode()
	d2, err := New(Config{
		NodeID:    "cb-node-2",
		BindAddr:  "127.0.0.1",
		BindPort:  0,
		SeedNodes: []string{seed.Address()},
		Logger:    slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil)),
	})
	if err != nil {
		t.Fatalf("New(cb-node-2): %v", err)
	}
	defer d2.Shutdown()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case node := <-joined:
			if node == "cb-node-2" {
				return
			}
		case <-deadline:
			t.Fatal("join callback for cb-node-2 never fired")
		}
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	d := newTestDiscovery(t, "shutdown-node")

	if err := d.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := d.Shutdown(); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}

func TestMetadataDelegate(t *testing.T) {
	d := &metadataDelegate{metadata: nodeMetadata{APIAddr: "127.0.0.1:5080", ClusterID: "cm-test"}}

	meta := d.NodeMeta(512)
	var decoded nodeMetadata
	if err := json.Unmarshal(meta, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != d.metadata {
		t.Errorf("decoded metadata = %+v, want %+v", decoded, d.metadata)
	}

	// Tight limit truncates rather than overflowing
	if got := d.NodeMeta(4); len(got) > 4 {
		t.Errorf("NodeMeta(4) returned %d bytes", len(got))
	}
}

func TestSlogWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	w := &slogWriter{logger: logger}
	n, err := w.Write([]byte("memberlist: something happened"))
	if err != nil || n != len("memberlist: something happened") {
		t.Fatalf("Write = (%d, %v)", n, err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("memberlist")) {
		t.Error("log output missing the written message")
	}
}
