package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"chorepoints/internal/docstore"
	"chorepoints/internal/models"
	"chorepoints/internal/service"
)

// errorResponse is the JSON body for every non-2xx response
type errorResponse struct {
	Error   string   `json:"error"`
	Field   string   `json:"field,omitempty"`
	Failed  []string `json:"failed_ids,omitempty"`
	Partial bool     `json:"partial,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg string, err error) {
	if err != nil {
		log.Printf("%s: %v", userMsg, err)
	}
	respondJSON(w, status, errorResponse{Error: userMsg})
}

// respondServiceError translates service-layer errors into HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
		return
	}

	var terr *models.TransitionError
	if errors.As(err, &terr) {
		respondJSON(w, http.StatusConflict, errorResponse{Error: terr.Error()})
		return
	}

	var perr *service.PartialError
	if errors.As(err, &perr) {
		log.Printf("Partial failure: %v", perr)
		respondJSON(w, http.StatusMultiStatus, errorResponse{
			Error:   perr.Error(),
			Failed:  perr.FailedIDs,
			Partial: true,
		})
		return
	}

	switch {
	case isNotFound(err):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInsufficientPoints),
		errors.Is(err, service.ErrRewardNotAssigned),
		errors.Is(err, service.ErrPromiseInPast),
		errors.Is(err, service.ErrNotFamilyMember),
		errors.Is(err, service.ErrNotAParent):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrEmailTaken):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, docstore.ErrConflict):
		respondJSON(w, http.StatusConflict, errorResponse{Error: "please retry, the data changed underneath us"})
	default:
		log.Printf("Internal error: %v", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, service.ErrTaskNotFound) ||
		errors.Is(err, service.ErrRewardNotFound) ||
		errors.Is(err, service.ErrClaimNotFound) ||
		errors.Is(err, service.ErrFamilyNotFound) ||
		errors.Is(err, service.ErrChildNotFound) ||
		errors.Is(err, service.ErrParentNotFound) ||
		errors.Is(err, docstore.ErrNotFound)
}

// decodeBody parses a JSON request body into dst
func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
