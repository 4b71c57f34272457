// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"coursehub/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for enrollment persistence.
var (
	// ErrEnrollmentNotFound is returned when an enrollment does not exist.
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrEnrollmentExists is returned when the (user, course, type) triple
	// is already enrolled. The unique constraint backs this.
	ErrEnrollmentExists = errors.New("enrollment already exists")
)

// EnrollmentRepository defines persistence operations for enrollments.
type EnrollmentRepository interface {
	// Create persists a new enrollment. A duplicate (user, course, type)
	// triple yields ErrEnrollmentExists.
	Create(ctx context.Context, enrollment *entity.Enrollment) error

	// FindByID retrieves an enrollment by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Enrollment, error)

	// Find retrieves the enrollment for a (user, course, type) triple.
	Find(ctx context.Context, userID, courseID uuid.UUID, enrollType entity.EnrollType) (*entity.Enrollment, error)

	// ListByUserID retrieves all active enrollments for a user, newest first.
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Enrollment, error)

	// Update modifies an existing enrollment.
	Update(ctx context.Context, enrollment *entity.Enrollment) error

	// Delete removes an enrollment.
	Delete(ctx context.Context, id uuid.UUID) error
}
