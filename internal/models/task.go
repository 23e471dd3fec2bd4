package models

import "time"

// TaskStatus tracks a task through its lifecycle:
// pending -> submitted -> approved (terminal), with submitted -> declined
// and explicit resets back to pending from any non-approved state.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskSubmitted TaskStatus = "submitted"
	TaskApproved  TaskStatus = "approved"
	TaskDeclined  TaskStatus = "declined"
)

// Valid reports whether the status is one of the known values
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskSubmitted, TaskApproved, TaskDeclined:
		return true
	}
	return false
}

// CanSubmit reports whether a task in this status may be submitted for review
func (s TaskStatus) CanSubmit() bool {
	return s == TaskPending || s == TaskDeclined
}

// CanReview reports whether a task in this status may be approved or declined
func (s TaskStatus) CanReview() bool {
	return s == TaskSubmitted
}

// CanReset reports whether a task in this status may be reset to pending.
// Approval is final: an approved task has already paid out its points.
func (s TaskStatus) CanReset() bool {
	return s != TaskApproved
}

// Task is a unit of work a parent assigns to one or more children. Every
// task links to at least one reward; at creation the task's assigned
// children are merged into each linked reward's assigned set.
type Task struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	Points           int        `json:"points"`
	ImageURL         string     `json:"image_url,omitempty"`
	Recurring        bool       `json:"recurring"`
	AssignedChildIDs []string   `json:"assigned_child_ids"`
	LinkedRewardIDs  []string   `json:"linked_reward_ids"`
	CreatedBy        string     `json:"created_by"`
	FamilyID         string     `json:"family_id"`
	Status           TaskStatus `json:"status"`
	ProofImageURL    string     `json:"proof_image_url,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// AssignedTo reports whether the task is assigned to the given child
func (t *Task) AssignedTo(childID string) bool {
	return containsID(t.AssignedChildIDs, childID)
}

// Unassign removes a child from the task's assigned set
func (t *Task) Unassign(childID string) {
	t.AssignedChildIDs = removeID(t.AssignedChildIDs, childID)
}
