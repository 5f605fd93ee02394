// Package main implements the cachemesh-server binary.
//
// The server joins a gossip mesh of CacheMesh nodes, runs the per-cache
// cluster rebalance policy for the caches it is configured to host, and
// exposes the topology HTTP API together with health and Prometheus
// metrics endpoints.
package main
