package models

import "time"

// Family groups parent accounts and child profiles together. It is the
// aggregation root every task, reward and claim query is scoped by.
// A user carrying a FamilyID must appear in the matching member list here;
// both sides are always written in the same transaction.
type Family struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentIDs []string  `json:"parent_ids"`
	ChildIDs  []string  `json:"child_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasParent reports whether the given user id is a parent member
func (f *Family) HasParent(userID string) bool {
	return containsID(f.ParentIDs, userID)
}

// HasChild reports whether the given user id is a child member
func (f *Family) HasChild(userID string) bool {
	return containsID(f.ChildIDs, userID)
}

// AddParent appends a parent id if not already present
func (f *Family) AddParent(userID string) {
	if !f.HasParent(userID) {
		f.ParentIDs = append(f.ParentIDs, userID)
	}
}

// AddChild appends a child id if not already present
func (f *Family) AddChild(userID string) {
	if !f.HasChild(userID) {
		f.ChildIDs = append(f.ChildIDs, userID)
	}
}

// RemoveChild removes a child id from the member list
func (f *Family) RemoveChild(userID string) {
	f.ChildIDs = removeID(f.ChildIDs, userID)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
