// Package handler provides HTTP request handlers for CacheMesh.
package handler

import "github.com/yndnr/cachemesh-go/internal/core/domain"

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConsistentHashDTO is the wire form of a consistent hash.
type ConsistentHashDTO struct {
	NumOwners   int        `json:"num_owners"`
	NumSegments int        `json:"num_segments"`
	Members     []string   `json:"members"`
	Segments    [][]string `json:"segments"`
}

// TopologyDTO is the wire form of a cache topology.
type TopologyDTO struct {
	Cache               string             `json:"cache"`
	TopologyID          int                `json:"topology_id"`
	RebalanceInProgress bool               `json:"rebalance_in_progress"`
	CurrentCH           *ConsistentHashDTO `json:"current_ch,omitempty"`
	PendingCH           *ConsistentHashDTO `json:"pending_ch,omitempty"`
}

// ConfirmRequest acknowledges a node's application of a pending hash.
type ConfirmRequest struct {
	TopologyID int    `json:"topology_id"`
	Node       string `json:"node"`
}

// JoinRequest registers a node as a joiner of a cache.
type JoinRequest struct {
	Node string `json:"node"`
}

// newConsistentHashDTO converts a hash value for the wire.
func newConsistentHashDTO(ch domain.ConsistentHash) *ConsistentHashDTO {
	if ch == nil {
		return nil
	}
	segments := make([][]string, ch.NumSegments())
	for s := 0; s < ch.NumSegments(); s++ {
		segments[s] = domain.AddressStrings(ch.Owners(s))
	}
	return &ConsistentHashDTO{
		NumOwners:   ch.NumOwners(),
		NumSegments: ch.NumSegments(),
		Members:     domain.AddressStrings(ch.Members()),
		Segments:    segments,
	}
}

// newTopologyDTO converts a topology for the wire.
func newTopologyDTO(cache string, top domain.CacheTopology) TopologyDTO {
	return TopologyDTO{
		Cache:               cache,
		TopologyID:          top.TopologyID,
		RebalanceInProgress: top.RebalanceInProgress(),
		CurrentCH:           newConsistentHashDTO(top.CurrentCH),
		PendingCH:           newConsistentHashDTO(top.PendingCH),
	}
}
