// Package handler provides HTTP request handlers for CacheMesh.
//
// This package implements the HTTP API endpoints for topology inspection,
// cache joins, rebalance confirmations and operational probes.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yndnr/cachemesh-go/internal/cluster/discovery"
	"github.com/yndnr/cachemesh-go/internal/core/domain"
)

// PolicyAPI is the slice of the rebalance policy the HTTP API drives.
type PolicyAPI interface {
	GetTopology(cacheName string) *domain.CacheTopology
	CacheNames() []string
	ClusterMembers() []domain.Address
	AddJoiners(cacheName string, joiners []domain.Address) (*domain.CacheTopology, error)
}

// Confirmer receives rebalance confirmations from cluster nodes.
type Confirmer interface {
	Confirm(cacheName string, topologyID int, node domain.Address) error
}

// MemberLister supplies the detailed cluster member view.
type MemberLister interface {
	MemberInfos() []discovery.MemberInfo
}

// Handler is the main HTTP handler that routes requests to appropriate
// handlers.
type Handler struct {
	policy    PolicyAPI
	confirmer Confirmer
	members   MemberLister
	logger    *slog.Logger
	mux       *http.ServeMux
}

// New creates a new Handler.
func New(policy PolicyAPI, confirmer Confirmer, members MemberLister, logger *slog.Logger) *Handler {
	h := &Handler{
		policy:    policy,
		confirmer: confirmer,
		members:   members,
		logger:    logger,
		mux:       http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	// Operational endpoints
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /version", h.handleVersion)

	// Topology endpoints
	h.mux.HandleFunc("GET /v1/topologies", h.handleListTopologies)
	h.mux.HandleFunc("GET /v1/topologies/{cache}", h.handleGetTopology)
	h.mux.HandleFunc("POST /v1/topologies/{cache}/confirm", h.handleConfirmRebalance)

	// Cluster endpoints
	h.mux.HandleFunc("GET /v1/members", h.handleListMembers)
	h.mux.HandleFunc("POST /v1/caches/{cache}/join", h.handleJoinCache)
}

// writeJSON writes a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with the standard envelope.
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, errorResponse{
		Error: errorBody{Code: code, Message: message},
	})
}
