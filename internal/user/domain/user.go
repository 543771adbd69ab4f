package domain

import "time"

// Role is a user's access level within their organization.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is an operator account. OrgID is the organization scope every viewer
// session opened with this user's credential is bound to; nil means the user
// has not been assigned to an organization and cannot open viewer sessions.
type User struct {
	ID           string
	OrgID        *string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
