package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"chorepoints/internal/objectstore"
	"chorepoints/internal/service"
)

// RewardHandler serves reward catalog routes
type RewardHandler struct {
	rewards   *service.RewardService
	objects   objectstore.Store
	maxUpload int64
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(rewards *service.RewardService, objects objectstore.Store, maxUpload int64) *RewardHandler {
	return &RewardHandler{rewards: rewards, objects: objects, maxUpload: maxUpload}
}

// CreateReward handles POST /rewards
func (h *RewardHandler) CreateReward(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title          string `json:"title"`
		Description    string `json:"description"`
		RequiredPoints int    `json:"required_points"`
		ImageURL       string `json:"image_url"`
		CreatedBy      string `json:"created_by"`
		FamilyID       string `json:"family_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	reward, err := h.rewards.CreateReward(r.Context(), service.CreateRewardInput{
		Title:          req.Title,
		Description:    req.Description,
		RequiredPoints: req.RequiredPoints,
		ImageURL:       req.ImageURL,
		CreatedBy:      req.CreatedBy,
		FamilyID:       req.FamilyID,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, reward)
}

// GetReward handles GET /rewards/{id}
func (h *RewardHandler) GetReward(w http.ResponseWriter, r *http.Request) {
	reward, err := h.rewards.GetReward(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reward)
}

// UpdateReward handles PUT /rewards/{id}
func (h *RewardHandler) UpdateReward(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title          string `json:"title"`
		Description    string `json:"description"`
		RequiredPoints int    `json:"required_points"`
		ImageURL       string `json:"image_url"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	reward, err := h.rewards.UpdateReward(r.Context(), r.PathValue("id"), service.UpdateRewardInput{
		Title:          req.Title,
		Description:    req.Description,
		RequiredPoints: req.RequiredPoints,
		ImageURL:       req.ImageURL,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reward)
}

// DeleteReward handles DELETE /rewards/{id}
func (h *RewardHandler) DeleteReward(w http.ResponseWriter, r *http.Request) {
	if err := h.rewards.DeleteReward(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// AssignReward handles POST /rewards/{id}/assign/{childID}
func (h *RewardHandler) AssignReward(w http.ResponseWriter, r *http.Request) {
	reward, err := h.rewards.AssignReward(r.Context(), r.PathValue("id"), r.PathValue("childID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reward)
}

// UnassignReward handles POST /rewards/{id}/unassign/{childID}
func (h *RewardHandler) UnassignReward(w http.ResponseWriter, r *http.Request) {
	reward, err := h.rewards.UnassignReward(r.Context(), r.PathValue("id"), r.PathValue("childID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reward)
}

// UploadImage handles POST /rewards/{id}/image. The stored URL replaces
// the reward's image.
func (h *RewardHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	rewardID := r.PathValue("id")
	reward, err := h.rewards.GetReward(r.Context(), rewardID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	contentType := r.Header.Get("Content-Type")
	ext, err := imageExtension(contentType)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "unsupported image type", err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.maxUpload)
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "failed to read upload", err)
		return
	}

	path := fmt.Sprintf("rewards/%s%s", uuid.NewString(), ext)
	url, err := h.objects.Put(r.Context(), path, data, contentType)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to store image", err)
		return
	}

	updated, err := h.rewards.UpdateReward(r.Context(), rewardID, service.UpdateRewardInput{
		Title:          reward.Title,
		Description:    reward.Description,
		RequiredPoints: reward.RequiredPoints,
		ImageURL:       url,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// ListFamilyRewards handles GET /families/{id}/rewards
func (h *RewardHandler) ListFamilyRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.rewards.FamilyRewards(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rewards)
}

// ListChildRewards handles GET /children/{id}/rewards
func (h *RewardHandler) ListChildRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.rewards.ChildRewards(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rewards)
}
