package models

import "time"

// Role distinguishes parent accounts from child profiles
type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

// Valid reports whether the role is one of the known values
func (r Role) Valid() bool {
	return r == RoleParent || r == RoleChild
}

// User represents an account in the system. Parents sign up themselves;
// children are created by a parent inside a family. Points are only
// meaningful for children and must never be committed negative.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	Role        Role      `json:"role"`
	FamilyID    string    `json:"family_id,omitempty"`
	DisplayName string    `json:"display_name"`
	Points      int       `json:"points"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsChild reports whether the user is a child profile
func (u *User) IsChild() bool {
	return u.Role == RoleChild
}

// IsParent reports whether the user is a parent account
func (u *User) IsParent() bool {
	return u.Role == RoleParent
}
