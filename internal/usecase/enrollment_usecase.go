package usecase

import (
	"context"

	"coursehub/internal/domain/entity"

	"github.com/google/uuid"
)

// MyEnrollment pairs an enrollment with its course for the "my courses" view.
type MyEnrollment struct {
	Enrollment *entity.Enrollment
	Course     *entity.Course
}

// EnrollmentUsecase defines the learner-facing enrollment reads. Granting
// and revoking enrollments is a management operation.
type EnrollmentUsecase interface {
	// ListMy returns the user's active enrollments with their courses,
	// newest first.
	ListMy(ctx context.Context, userID uuid.UUID) ([]*MyEnrollment, error)
}
