package models

import (
	"testing"
)

func TestTaskStatusTransitions(t *testing.T) {
	tests := []struct {
		name      string
		status    TaskStatus
		canSubmit bool
		canReview bool
		canReset  bool
	}{
		{name: "pending", status: TaskPending, canSubmit: true, canReview: false, canReset: true},
		{name: "submitted", status: TaskSubmitted, canSubmit: false, canReview: true, canReset: true},
		{name: "approved", status: TaskApproved, canSubmit: false, canReview: false, canReset: false},
		{name: "declined", status: TaskDeclined, canSubmit: true, canReview: false, canReset: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.CanSubmit(); got != tt.canSubmit {
				t.Errorf("CanSubmit() = %v, want %v", got, tt.canSubmit)
			}
			if got := tt.status.CanReview(); got != tt.canReview {
				t.Errorf("CanReview() = %v, want %v", got, tt.canReview)
			}
			if got := tt.status.CanReset(); got != tt.canReset {
				t.Errorf("CanReset() = %v, want %v", got, tt.canReset)
			}
		})
	}
}

func TestClaimStatusTransitions(t *testing.T) {
	tests := []struct {
		name       string
		status     ClaimStatus
		canRemind  bool
		canPromise bool
		canGrant   bool
	}{
		{name: "pending", status: ClaimPending, canRemind: true, canPromise: true, canGrant: true},
		{name: "reminded", status: ClaimReminded, canRemind: true, canPromise: true, canGrant: true},
		{name: "promised", status: ClaimPromised, canRemind: true, canPromise: false, canGrant: true},
		{name: "granted", status: ClaimGranted, canRemind: false, canPromise: false, canGrant: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.CanRemind(); got != tt.canRemind {
				t.Errorf("CanRemind() = %v, want %v", got, tt.canRemind)
			}
			if got := tt.status.CanPromise(); got != tt.canPromise {
				t.Errorf("CanPromise() = %v, want %v", got, tt.canPromise)
			}
			if got := tt.status.CanGrant(); got != tt.canGrant {
				t.Errorf("CanGrant() = %v, want %v", got, tt.canGrant)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	if TaskStatus("archived").Valid() {
		t.Error("expected unknown task status to be invalid")
	}
	if !TaskPending.Valid() {
		t.Error("expected pending task status to be valid")
	}
	if ClaimStatus("expired").Valid() {
		t.Error("expected unknown claim status to be invalid")
	}
	if !ClaimGranted.Valid() {
		t.Error("expected granted claim status to be valid")
	}
	if Role("admin").Valid() {
		t.Error("expected unknown role to be invalid")
	}
}

func TestFamilyMembership(t *testing.T) {
	f := Family{ID: "fam-1"}

	f.AddParent("p1")
	f.AddParent("p1")
	if len(f.ParentIDs) != 1 {
		t.Fatalf("expected 1 parent after duplicate add, got %d", len(f.ParentIDs))
	}

	f.AddChild("c1")
	f.AddChild("c2")
	if !f.HasChild("c1") || !f.HasChild("c2") {
		t.Fatal("expected both children to be members")
	}

	f.RemoveChild("c1")
	if f.HasChild("c1") {
		t.Error("expected c1 removed from family")
	}
	if !f.HasChild("c2") {
		t.Error("expected c2 to remain a member")
	}
}

func TestRewardAssign(t *testing.T) {
	r := Reward{ID: "rew-1"}

	r.Assign("c1")
	r.Assign("c1")
	if len(r.AssignedChildIDs) != 1 {
		t.Fatalf("expected assignment to be a set union, got %d entries", len(r.AssignedChildIDs))
	}

	r.Unassign("c1")
	if r.AssignedTo("c1") {
		t.Error("expected c1 unassigned")
	}
}
