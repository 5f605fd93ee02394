// Package metric provides Prometheus metrics for CacheMesh.
package metric

import "github.com/prometheus/client_golang/prometheus"

// Stats is a point-in-time sample of engine state.
type Stats struct {
	// Caches is the number of registered caches.
	Caches int

	// RebalancesInFlight is the number of caches with a pending topology.
	RebalancesInFlight int
}

// StatsSource supplies engine statistics on demand.
type StatsSource interface {
	Stats() Stats
}

// Collector collects engine statistics at scrape time.
type Collector struct {
	source StatsSource

	caches   *prometheus.Desc
	inFlight *prometheus.Desc
}

// NewCollector creates a collector that samples the given source.
func NewCollector(source StatsSource) *Collector {
	return &Collector{
		source: source,
		caches: prometheus.NewDesc(
			"cachemesh_caches",
			"Number of caches registered with the rebalance policy",
			nil, nil,
		),
		inFlight: prometheus.NewDesc(
			"cachemesh_rebalances_in_flight",
			"Number of caches with a rebalance in progress",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.caches
	ch <- c.inFlight
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(c.caches, prometheus.GaugeValue, float64(stats.Caches))
	ch <- prometheus.MustNewConstMetric(c.inFlight, prometheus.GaugeValue, float64(stats.RebalancesInFlight))
}
