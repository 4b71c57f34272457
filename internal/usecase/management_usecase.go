package usecase

import (
	"context"

	"coursehub/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// ListUsersInput pages through the user directory.
type ListUsersInput struct {
	ActorRole entity.Role
	Page      int // 1-based; values below 1 are clamped.
	PerPage   int
}

// GrantEnrollmentInput manually enrolls a user into a course.
type GrantEnrollmentInput struct {
	ActorRole entity.Role
	UserID    uuid.UUID
	CourseID  uuid.UUID
}

// --- Output DTOs ---

// UserListOutput returns one page of users plus the total count.
type UserListOutput struct {
	Users   []*entity.User
	Total   int64
	Page    int
	PerPage int
}

// ManagementUsecase defines the administrative surface. Every operation
// consults the authorization policy before touching data.
type ManagementUsecase interface {
	ListUsers(ctx context.Context, input *ListUsersInput) (*UserListOutput, error)

	// UpdateUserRole changes a user's role.
	UpdateUserRole(ctx context.Context, actorRole entity.Role, userID uuid.UUID, role entity.Role) (*entity.User, error)

	// DeactivateUser blocks authentication without deleting data.
	DeactivateUser(ctx context.Context, actorRole entity.Role, userID uuid.UUID) error

	// DeleteUser removes the account; sessions and enrollments cascade.
	DeleteUser(ctx context.Context, actorRole entity.Role, userID uuid.UUID) error

	// GrantEnrollment manually enrolls a user. Enrolling an already
	// enrolled user is a conflict.
	GrantEnrollment(ctx context.Context, input *GrantEnrollmentInput) (*entity.Enrollment, error)

	// RevokeEnrollment removes an enrollment by id.
	RevokeEnrollment(ctx context.Context, actorRole entity.Role, enrollmentID uuid.UUID) error
}
