package metric

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}

	// Two registries must not collide on registration
	other := NewRegistry()
	if other == nil {
		t.Fatal("second NewRegistry returned nil")
	}
}

func TestRegistryHandler(t *testing.T) {
	r := NewRegistry()

	r.ClusterMembers.Set(3)
	r.RebalancesStarted.WithLabelValues("users").Inc()
	r.TopologyID.WithLabelValues("users").Set(7)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("metrics endpoint status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"cachemesh_cluster_members 3",
		`cachemesh_rebalances_started_total{cache="users"} 1`,
		`cachemesh_topology_id{cache="users"} 7`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

type fakeSource struct{ stats Stats }

func (f fakeSource) Stats() Stats { return f.stats }

func TestCollector(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewCollector(fakeSource{stats: Stats{Caches: 2, RebalancesInFlight: 1}})); err != nil {
		t.Fatalf("Register: %v", err)
	}

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "cachemesh_caches 2") {
		t.Error("collector gauge cachemesh_caches missing")
	}
	if !strings.Contains(body, "cachemesh_rebalances_in_flight 1") {
		t.Error("collector gauge cachemesh_rebalances_in_flight missing")
	}
}
