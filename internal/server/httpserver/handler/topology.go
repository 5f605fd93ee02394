// Package handler provides HTTP request handlers for CacheMesh.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yndnr/cachemesh-go/internal/core/domain"
)

// handleListTopologies handles GET /v1/topologies.
func (h *Handler) handleListTopologies(w http.ResponseWriter, r *http.Request) {
	names := h.policy.CacheNames()
	if names == nil {
		names = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"caches": names})
}

// handleGetTopology handles GET /v1/topologies/{cache}.
func (h *Handler) handleGetTopology(w http.ResponseWriter, r *http.Request) {
	cache := r.PathValue("cache")

	top := h.policy.GetTopology(cache)
	if top == nil {
		h.writeError(w, http.StatusNotFound, "CM-HTTP-4040", "unknown cache")
		return
	}

	h.writeJSON(w, http.StatusOK, newTopologyDTO(cache, *top))
}

// handleConfirmRebalance handles POST /v1/topologies/{cache}/confirm.
//
// Nodes acknowledge that they applied the pending hash of the given
// topology id; the last acknowledgement completes the rebalance.
func (h *Handler) handleConfirmRebalance(w http.ResponseWriter, r *http.Request) {
	cache := r.PathValue("cache")

	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "CM-HTTP-4000", "invalid request body")
		return
	}
	if req.Node == "" {
		h.writeError(w, http.StatusBadRequest, "CM-HTTP-4001", "node is required")
		return
	}

	if err := h.confirmer.Confirm(cache, req.TopologyID, domain.Address(req.Node)); err != nil {
		h.logger.Debug("rebalance confirmation rejected",
			"cache", cache,
			"topology_id", req.TopologyID,
			"node", req.Node,
			"error", err)
		h.writeError(w, http.StatusConflict, "CM-HTTP-4090", err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

// handleJoinCache handles POST /v1/caches/{cache}/join.
func (h *Handler) handleJoinCache(w http.ResponseWriter, r *http.Request) {
	cache := r.PathValue("cache")

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "CM-HTTP-4000", "invalid request body")
		return
	}
	if req.Node == "" {
		h.writeError(w, http.StatusBadRequest, "CM-HTTP-4001", "node is required")
		return
	}

	top, err := h.policy.AddJoiners(cache, []domain.Address{domain.Address(req.Node)})
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "CM-HTTP-5000", err.Error())
		return
	}
	if top == nil {
		h.writeError(w, http.StatusNotFound, "CM-HTTP-4040", "unknown cache")
		return
	}

	h.writeJSON(w, http.StatusOK, newTopologyDTO(cache, *top))
}

// handleListMembers handles GET /v1/members.
func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	if h.members != nil {
		h.writeJSON(w, http.StatusOK, map[string]any{"members": h.members.MemberInfos()})
		return
	}

	members := domain.AddressStrings(h.policy.ClusterMembers())
	if members == nil {
		members = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"members": members})
}
