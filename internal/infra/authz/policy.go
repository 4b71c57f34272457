// Package authz holds the static role-to-capability policy.
package authz

import (
	"coursehub/internal/domain/entity"
	"coursehub/internal/domain/service"
)

// staticPolicy grants capabilities from a fixed table. Management actions
// belong to ADMIN and MANAGER; trainees and instructors hold no management
// capability.
type staticPolicy struct {
	grants map[service.Capability][]entity.Role
}

// NewPolicy is the constructor for the static authorization policy.
func NewPolicy() service.Policy {
	return &staticPolicy{
		grants: map[service.Capability][]entity.Role{
			service.CapManageUsers:       {entity.RoleAdmin, entity.RoleManager},
			service.CapManageCourses:     {entity.RoleAdmin, entity.RoleManager},
			service.CapManageEnrollments: {entity.RoleAdmin, entity.RoleManager},
		},
	}
}

// Allow reports whether the role holds the capability.
func (p *staticPolicy) Allow(role entity.Role, capability service.Capability) bool {
	roles, ok := p.grants[capability]
	if !ok {
		return false
	}

	return entity.Roles(roles).Contains(role)
}
