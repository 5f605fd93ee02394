// Package config defines the cachemesh-server configuration structure.
//
// Configuration is loaded through infra/confloader (YAML file plus
// CACHEMESH_* environment overrides), validated with Verify, and mapped
// onto collaborator configs (discovery, rebalance policy) by the helpers
// in cluster.go.
package config
