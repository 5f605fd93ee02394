// Package discovery provides gossip-based cluster membership for
// CacheMesh.
//
// It wraps hashicorp/memberlist: each node gossips its identity, HTTP API
// address and cluster id, and membership changes surface as join/leave
// callbacks that the server wires into the rebalance policy's member view.
package discovery
