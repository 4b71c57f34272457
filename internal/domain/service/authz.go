package service

import "coursehub/internal/domain/entity"

// Capability names one privileged action group. Use cases ask the Policy
// about capabilities instead of comparing role strings inline, so the
// role-to-capability mapping lives in exactly one place.
type Capability string

const (
	// CapManageUsers covers listing users, changing roles and deletion.
	CapManageUsers Capability = "manage_users"
	// CapManageCourses covers course and category writes, including reordering.
	CapManageCourses Capability = "manage_courses"
	// CapManageEnrollments covers manual enrollment grant and removal.
	CapManageEnrollments Capability = "manage_enrollments"
)

// Policy decides whether a role holds a capability.
type Policy interface {
	Allow(role entity.Role, capability Capability) bool
}
