package authz

import (
	"testing"

	"coursehub/internal/domain/entity"
	"coursehub/internal/domain/service"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_ManagementRolesHoldAllCapabilities(t *testing.T) {
	policy := NewPolicy()

	capabilities := []service.Capability{
		service.CapManageUsers,
		service.CapManageCourses,
		service.CapManageEnrollments,
	}

	for _, capability := range capabilities {
		assert.True(t, policy.Allow(entity.RoleAdmin, capability), string(capability))
		assert.True(t, policy.Allow(entity.RoleManager, capability), string(capability))
	}
}

func TestPolicy_LearnerRolesHoldNothing(t *testing.T) {
	policy := NewPolicy()

	capabilities := []service.Capability{
		service.CapManageUsers,
		service.CapManageCourses,
		service.CapManageEnrollments,
	}

	for _, capability := range capabilities {
		assert.False(t, policy.Allow(entity.RoleTrainee, capability), string(capability))
		assert.False(t, policy.Allow(entity.RoleInstructor, capability), string(capability))
	}
}

func TestPolicy_UnknownCapabilityDenied(t *testing.T) {
	policy := NewPolicy()

	assert.False(t, policy.Allow(entity.RoleAdmin, service.Capability("drop_tables")))
}
