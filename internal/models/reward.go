package models

import "time"

// Reward is something a child can spend points on. Its assigned set grows
// automatically when a task linking to it is created; it can also be
// edited directly by a parent.
type Reward struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	ImageURL         string    `json:"image_url,omitempty"`
	RequiredPoints   int       `json:"required_points"`
	AssignedChildIDs []string  `json:"assigned_child_ids"`
	CreatedBy        string    `json:"created_by"`
	FamilyID         string    `json:"family_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AssignedTo reports whether the reward is assigned to the given child
func (r *Reward) AssignedTo(childID string) bool {
	return containsID(r.AssignedChildIDs, childID)
}

// Assign adds a child to the reward's assigned set if not already present
func (r *Reward) Assign(childID string) {
	if !r.AssignedTo(childID) {
		r.AssignedChildIDs = append(r.AssignedChildIDs, childID)
	}
}

// Unassign removes a child from the reward's assigned set
func (r *Reward) Unassign(childID string) {
	r.AssignedChildIDs = removeID(r.AssignedChildIDs, childID)
}
