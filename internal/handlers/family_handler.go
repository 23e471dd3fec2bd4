package handlers

import (
	"net/http"

	"chorepoints/internal/service"
)

// FamilyHandler serves account and membership routes
type FamilyHandler struct {
	families *service.FamilyService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(families *service.FamilyService) *FamilyHandler {
	return &FamilyHandler{families: families}
}

// CreateParent handles POST /parents
func (h *FamilyHandler) CreateParent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	parent, err := h.families.CreateParent(r.Context(), req.Email, req.DisplayName)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, parent)
}

// CreateFamily handles POST /families
func (h *FamilyHandler) CreateFamily(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		ParentID string `json:"parent_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	family, err := h.families.CreateFamily(r.Context(), req.Name, req.ParentID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, family)
}

// GetFamily handles GET /families/{id}
func (h *FamilyHandler) GetFamily(w http.ResponseWriter, r *http.Request) {
	family, err := h.families.GetFamily(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, family)
}

// AddChild handles POST /families/{id}/children
func (h *FamilyHandler) AddChild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	child, err := h.families.AddChild(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, child)
}

// AddCoParent handles POST /families/{id}/parents
func (h *FamilyHandler) AddCoParent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	parent, err := h.families.AddCoParent(r.Context(), r.PathValue("id"), req.Email)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, parent)
}

// RemoveChild handles DELETE /families/{id}/children/{childID}
func (h *FamilyHandler) RemoveChild(w http.ResponseWriter, r *http.Request) {
	err := h.families.RemoveChild(r.Context(), r.PathValue("id"), r.PathValue("childID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// ListChildren handles GET /families/{id}/children
func (h *FamilyHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.families.FamilyChildren(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, children)
}

// ListParents handles GET /families/{id}/parents
func (h *FamilyHandler) ListParents(w http.ResponseWriter, r *http.Request) {
	parents, err := h.families.FamilyParents(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, parents)
}

// GetChild handles GET /children/{id}
func (h *FamilyHandler) GetChild(w http.ResponseWriter, r *http.Request) {
	child, err := h.families.GetChild(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, child)
}
