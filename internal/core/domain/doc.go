// Package domain defines the core domain models for CacheMesh.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling: cluster member addresses, consistent-hash values,
// per-cache join parameters and versioned cache topologies.
package domain
