package domain

import "time"

// UserRole enumerates account roles.
type UserRole string

const (
	RoleClient   UserRole = "client"
	RoleEngineer UserRole = "engineer"
	RoleAdmin    UserRole = "admin"
)

// Privileged reports whether the role may act on behalf of clients.
func (r UserRole) Privileged() bool {
	return r == RoleEngineer || r == RoleAdmin
}

// User is the domain model for clients, engineers and administrators.
// Client accounts may be auto-provisioned from project data when a
// privileged user opens a ticket on a client's behalf.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	Phone        *string
	Role         UserRole
	Active       bool
	ProjectIDs   []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasProjectAccess reports whether the user may open tickets for projectID.
// Engineers and admins have access to every project.
func (u *User) HasProjectAccess(projectID string) bool {
	if u.Role.Privileged() {
		return true
	}
	for _, id := range u.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}
