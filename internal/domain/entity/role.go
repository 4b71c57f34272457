// Package entity contains the core business objects of the project.
package entity

import "slices"

// Role represents the type of role a user can have in the system.
type Role string

const (
	// RoleTrainee indicates a regular learner account.
	RoleTrainee Role = "TRAINEE"
	// RoleInstructor indicates an account that owns courses.
	RoleInstructor Role = "INSTRUCTOR"
	// RoleAdmin indicates an administrative account.
	RoleAdmin Role = "ADMIN"
	// RoleManager indicates the platform management account.
	RoleManager Role = "MANAGER"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleTrainee, RoleInstructor, RoleAdmin, RoleManager:
		return true
	default:
		return false
	}
}

// Roles is a slice of Role for convenience.
type Roles []Role

// Contains checks if the roles slice contains a specific role.
func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}
