package impl

import (
	"context"
	"log/slog"

	deliverycontext "coursehub/internal/delivery/context"
	"coursehub/internal/domain/repository"
	"coursehub/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// enrollmentService implements the EnrollmentUsecase interface.
type enrollmentService struct {
	enrollmentRepo repository.EnrollmentRepository
	courseRepo     repository.CourseRepository
	logger         *slog.Logger
}

// EnrollmentServiceParams holds dependencies for EnrollmentService, injected by Fx.
type EnrollmentServiceParams struct {
	fx.In

	EnrollmentRepo repository.EnrollmentRepository
	CourseRepo     repository.CourseRepository
	Logger         *slog.Logger
}

// NewEnrollmentService is the constructor for enrollmentService.
func NewEnrollmentService(params EnrollmentServiceParams) usecase.EnrollmentUsecase {
	return &enrollmentService{
		enrollmentRepo: params.EnrollmentRepo,
		courseRepo:     params.CourseRepo,
		logger:         params.Logger,
	}
}

func (srv *enrollmentService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ListMy returns the user's active enrollments together with their courses.
// An enrollment whose course has since been deleted is skipped rather than
// failing the whole listing.
func (srv *enrollmentService) ListMy(ctx context.Context, userID uuid.UUID) ([]*usecase.MyEnrollment, error) {
	enrollments, err := srv.enrollmentRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list enrollments")
	}

	result := make([]*usecase.MyEnrollment, 0, len(enrollments))
	for _, enrollment := range enrollments {
		course, err := srv.courseRepo.FindByID(ctx, enrollment.CourseID)
		if err != nil {
			if errors.Is(err, repository.ErrCourseNotFound) {
				srv.log(ctx).Warn("Enrollment references missing course",
					slog.Any("enrollmentID", enrollment.ID),
					slog.Any("courseID", enrollment.CourseID))

				continue
			}

			return nil, errors.Wrap(err, "failed to load enrolled course")
		}

		result = append(result, &usecase.MyEnrollment{
			Enrollment: enrollment,
			Course:     course,
		})
	}

	return result, nil
}
