package models

import "time"

// ClaimStatus tracks fulfillment of a claimed reward:
// pending -> reminded (repeatable) -> promised -> granted (terminal).
// A parent may promise straight from pending, and may grant from any
// non-terminal state. Reminding never regresses a promised claim.
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimReminded ClaimStatus = "reminded"
	ClaimPromised ClaimStatus = "promised"
	ClaimGranted  ClaimStatus = "granted"
)

// Valid reports whether the status is one of the known values
func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimPending, ClaimReminded, ClaimPromised, ClaimGranted:
		return true
	}
	return false
}

// CanRemind reports whether a claim in this status may be reminded.
// Promised claims accept a reminder but keep their status.
func (s ClaimStatus) CanRemind() bool {
	return s != ClaimGranted
}

// CanPromise reports whether a claim in this status may be promised
func (s ClaimStatus) CanPromise() bool {
	return s == ClaimPending || s == ClaimReminded
}

// CanGrant reports whether a claim in this status may be granted
func (s ClaimStatus) CanGrant() bool {
	return s != ClaimGranted
}

// RewardClaim records a child redeeming a reward. The reward title, cost
// and child name are frozen at claim time; later edits to the live reward
// never change what this claim cost. Points are debited when the claim is
// created, so granting and deleting move no points.
type RewardClaim struct {
	ID             string      `json:"id"`
	RewardID       string      `json:"reward_id"`
	RewardTitle    string      `json:"reward_title"`
	RewardCost     int         `json:"reward_cost"`
	ChildID        string      `json:"child_id"`
	ChildName      string      `json:"child_name"`
	FamilyID       string      `json:"family_id"`
	Status         ClaimStatus `json:"status"`
	ClaimedAt      time.Time   `json:"claimed_at"`
	LastRemindedAt *time.Time  `json:"last_reminded_at,omitempty"`
	PromisedFor    *time.Time  `json:"promised_for,omitempty"`
	GrantedAt      *time.Time  `json:"granted_at,omitempty"`
}
