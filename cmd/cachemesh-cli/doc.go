// Package main implements the cachemesh-cli binary.
//
// The CLI talks to a cachemesh-server over its HTTP API: topology
// inspection, rebalance confirmation, member listing and health probes.
package main
