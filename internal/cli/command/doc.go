// Package command provides CLI command definitions for cachemesh-cli.
//
// Commands talk to a cachemesh-server over its HTTP API: topology
// inspection, rebalance confirmation, member listing and health probes.
package command
