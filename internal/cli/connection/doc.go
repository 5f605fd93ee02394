// Package connection provides connection management for cachemesh-cli.
//
// It wraps the HTTP API of cachemesh-server with typed JSON helpers and
// server error envelope decoding.
package connection
