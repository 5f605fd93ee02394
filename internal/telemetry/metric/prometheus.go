// Package metric provides Prometheus metrics for CacheMesh.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics.
//
// Each Registry owns its Prometheus registry, so independent instances
// (including those created by tests) never collide on registration.
type Registry struct {
	// Rebalance metrics
	RebalancesStarted   *prometheus.CounterVec
	RebalancesCompleted *prometheus.CounterVec
	StaleConfirmations  prometheus.Counter

	// Topology metrics
	TopologyID         *prometheus.GaugeVec
	TopologyBroadcasts prometheus.Counter

	// Cluster metrics
	ClusterMembers prometheus.Gauge

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Registry{
		RebalancesStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cachemesh_rebalances_started_total",
			Help: "Number of rebalances initiated, per cache",
		}, []string{"cache"}),

		RebalancesCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cachemesh_rebalances_completed_total",
			Help: "Number of rebalances confirmed cluster-wide, per cache",
		}, []string{"cache"}),

		StaleConfirmations: factory.NewCounter(prometheus.CounterOpts{
			Name: "cachemesh_stale_rebalance_confirmations_total",
			Help: "Rebalance confirmations rejected for a stale topology id",
		}),

		TopologyID: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cachemesh_topology_id",
			Help: "Latest installed topology id, per cache",
		}, []string{"cache"}),

		TopologyBroadcasts: factory.NewCounter(prometheus.CounterOpts{
			Name: "cachemesh_topology_broadcasts_total",
			Help: "Number of consistent hash updates broadcast to the cluster",
		}),

		ClusterMembers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cachemesh_cluster_members",
			Help: "Size of the current cluster member view",
		}),

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cachemesh_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cachemesh_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method", "path"}),

		registry: reg,
	}

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return r
}

// Register adds a custom collector to the registry.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
