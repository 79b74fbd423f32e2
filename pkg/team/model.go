// Package team manages the members invited into a user's workspace.
package team

import (
	"errors"
	"time"
)

// Role is a member's permission level
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleAgent  Role = "Agent"
	RoleViewer Role = "Viewer"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAgent || r == RoleViewer
}

// MemberStatus tracks whether an invite was accepted
type MemberStatus string

const (
	StatusActive  MemberStatus = "Active"
	StatusPending MemberStatus = "Pending"
)

// SelfName labels the workspace owner in member lists
const SelfName = "You"

var (
	ErrMemberNotFound = errors.New("team member not found")
	ErrAlreadyInvited = errors.New("email already invited")
)

// Member is one row of the team list
type Member struct {
	ID       string       `json:"id"`
	Email    string       `json:"email"`
	Name     string       `json:"name"`
	Role     Role         `json:"role"`
	Status   MemberStatus `json:"status"`
	JoinedAt time.Time    `json:"joinedAt"`
}

// InviteRequest is the payload for a new invite
type InviteRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Name  string `json:"name" validate:"omitempty,max=120"`
	Role  Role   `json:"role" validate:"required,oneof=Admin Agent Viewer"`
}

// Owner identifies the workspace owner making a request
type Owner struct {
	ID    string
	Email string
}
