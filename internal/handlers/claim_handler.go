package handlers

import (
	"net/http"
	"time"

	"chorepoints/internal/service"
)

// ClaimHandler serves reward claim routes
type ClaimHandler struct {
	claims *service.ClaimService
}

// NewClaimHandler creates a new claim handler
func NewClaimHandler(claims *service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claims: claims}
}

// CreateClaim handles POST /claims
func (h *ClaimHandler) CreateClaim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChildID  string `json:"child_id"`
		RewardID string `json:"reward_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	claim, err := h.claims.ClaimReward(r.Context(), req.ChildID, req.RewardID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, claim)
}

// GetClaim handles GET /claims/{id}
func (h *ClaimHandler) GetClaim(w http.ResponseWriter, r *http.Request) {
	claim, err := h.claims.GetClaim(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, claim)
}

// RemindClaim handles POST /claims/{id}/remind
func (h *ClaimHandler) RemindClaim(w http.ResponseWriter, r *http.Request) {
	claim, err := h.claims.RemindClaim(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, claim)
}

// PromiseClaim handles POST /claims/{id}/promise
func (h *ClaimHandler) PromiseClaim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PromisedFor time.Time `json:"promised_for"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	claim, err := h.claims.PromiseClaim(r.Context(), r.PathValue("id"), req.PromisedFor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, claim)
}

// GrantClaim handles POST /claims/{id}/grant
func (h *ClaimHandler) GrantClaim(w http.ResponseWriter, r *http.Request) {
	claim, err := h.claims.GrantClaim(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, claim)
}

// DeleteClaim handles DELETE /claims/{id}
func (h *ClaimHandler) DeleteClaim(w http.ResponseWriter, r *http.Request) {
	if err := h.claims.DeleteClaim(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// ListFamilyClaims handles GET /families/{id}/claims
func (h *ClaimHandler) ListFamilyClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.claims.FamilyClaims(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, claims)
}

// ListChildClaims handles GET /children/{id}/claims
func (h *ClaimHandler) ListChildClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.claims.ChildClaims(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, claims)
}

// ListUnclaimedRewards handles GET /children/{id}/rewards/unclaimed
func (h *ClaimHandler) ListUnclaimedRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.claims.UnclaimedRewards(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rewards)
}
