// Package metric provides Prometheus metrics for CacheMesh.
//
// It exposes metrics in Prometheus format for monitoring cluster
// membership, per-cache topology versions, rebalance activity and
// HTTP API traffic.
package metric
