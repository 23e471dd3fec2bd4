package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"chorepoints/internal/objectstore"
	"chorepoints/internal/service"
)

// TaskHandler serves task lifecycle routes
type TaskHandler struct {
	tasks     *service.TaskService
	objects   objectstore.Store
	maxUpload int64
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks *service.TaskService, objects objectstore.Store, maxUpload int64) *TaskHandler {
	return &TaskHandler{tasks: tasks, objects: objects, maxUpload: maxUpload}
}

// CreateTask handles POST /tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title            string   `json:"title"`
		Description      string   `json:"description"`
		Points           int      `json:"points"`
		ImageURL         string   `json:"image_url"`
		Recurring        bool     `json:"recurring"`
		AssignedChildIDs []string `json:"assigned_child_ids"`
		LinkedRewardIDs  []string `json:"linked_reward_ids"`
		CreatedBy        string   `json:"created_by"`
		FamilyID         string   `json:"family_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), service.CreateTaskInput{
		Title:            req.Title,
		Description:      req.Description,
		Points:           req.Points,
		ImageURL:         req.ImageURL,
		Recurring:        req.Recurring,
		AssignedChildIDs: req.AssignedChildIDs,
		LinkedRewardIDs:  req.LinkedRewardIDs,
		CreatedBy:        req.CreatedBy,
		FamilyID:         req.FamilyID,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

// GetTask handles GET /tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// UpdateTask handles PUT /tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Points      int    `json:"points"`
		ImageURL    string `json:"image_url"`
		Recurring   bool   `json:"recurring"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	task, err := h.tasks.UpdateTask(r.Context(), r.PathValue("id"), service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Points:      req.Points,
		ImageURL:    req.ImageURL,
		Recurring:   req.Recurring,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// SubmitTask handles POST /tasks/{id}/submit
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProofImageURL string `json:"proof_image_url"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	task, err := h.tasks.SubmitTask(r.Context(), r.PathValue("id"), req.ProofImageURL)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// ApproveTask handles POST /tasks/{id}/approve
func (h *TaskHandler) ApproveTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.ApproveTask(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// DeclineTask handles POST /tasks/{id}/decline
func (h *TaskHandler) DeclineTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.DeclineTask(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// ResetTask handles POST /tasks/{id}/reset
func (h *TaskHandler) ResetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.ResetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// UploadProof handles POST /tasks/{id}/proof. The raw image body is
// stored and the task is submitted with the resulting URL.
func (h *TaskHandler) UploadProof(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	url, err := h.storeImage(r, "proofs")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "failed to store image", err)
		return
	}

	task, err := h.tasks.SubmitTask(r.Context(), taskID, url)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// ListFamilyTasks handles GET /families/{id}/tasks
func (h *TaskHandler) ListFamilyTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.FamilyTasks(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

// ListChildTasks handles GET /children/{id}/tasks
func (h *TaskHandler) ListChildTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ChildTasks(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

// storeImage reads the request body and saves it to the object store,
// returning the public URL
func (h *TaskHandler) storeImage(r *http.Request, prefix string) (string, error) {
	contentType := r.Header.Get("Content-Type")
	ext, err := imageExtension(contentType)
	if err != nil {
		return "", err
	}

	body := http.MaxBytesReader(nil, r.Body, h.maxUpload)
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty upload")
	}

	path := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), ext)
	return h.objects.Put(r.Context(), path, data, contentType)
}

// imageExtension maps an accepted image content type to a file extension
func imageExtension(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	case "image/gif":
		return ".gif", nil
	}
	return "", fmt.Errorf("unsupported content type %q", contentType)
}
