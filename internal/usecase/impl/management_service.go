package impl

import (
	"context"
	"log/slog"

	deliverycontext "coursehub/internal/delivery/context"
	"coursehub/internal/domain/entity"
	domainerrors "coursehub/internal/domain/errors"
	"coursehub/internal/domain/repository"
	"coursehub/internal/domain/service"
	"coursehub/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// managementService implements the ManagementUsecase interface.
type managementService struct {
	txManager      repository.TransactionManager
	userRepo       repository.UserRepository
	courseRepo     repository.CourseRepository
	enrollmentRepo repository.EnrollmentRepository
	policy         service.Policy
	logger         *slog.Logger
}

// ManagementServiceParams holds dependencies for ManagementService, injected by Fx.
type ManagementServiceParams struct {
	fx.In

	TxManager      repository.TransactionManager
	UserRepo       repository.UserRepository
	CourseRepo     repository.CourseRepository
	EnrollmentRepo repository.EnrollmentRepository
	Policy         service.Policy
	Logger         *slog.Logger
}

// NewManagementService is the constructor for managementService.
func NewManagementService(params ManagementServiceParams) usecase.ManagementUsecase {
	return &managementService{
		txManager:      params.TxManager,
		userRepo:       params.UserRepo,
		courseRepo:     params.CourseRepo,
		enrollmentRepo: params.EnrollmentRepo,
		policy:         params.Policy,
		logger:         params.Logger,
	}
}

func (srv *managementService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ListUsers returns one page of the user directory, newest first.
func (srv *managementService) ListUsers(ctx context.Context, input *usecase.ListUsersInput) (*usecase.UserListOutput, error) {
	if !srv.policy.Allow(input.ActorRole, service.CapManageUsers) {
		return nil, domainerrors.ErrForbidden
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	perPage := input.PerPage
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	users, total, err := srv.userRepo.List(ctx, (page-1)*perPage, perPage)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	return &usecase.UserListOutput{
		Users:   users,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

// UpdateUserRole changes a user's role.
func (srv *managementService) UpdateUserRole(ctx context.Context, actorRole entity.Role, userID uuid.UUID, role entity.Role) (*entity.User, error) {
	if !srv.policy.Allow(actorRole, service.CapManageUsers) {
		return nil, domainerrors.ErrForbidden
	}
	if !role.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("unknown role: " + role.String())
	}

	user, err := srv.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := srv.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to update user role")
	}

	srv.log(ctx).Info("User role updated",
		slog.Any("userID", userID), slog.String("role", string(role)))

	return user, nil
}

// DeactivateUser blocks authentication and revokes every open session so
// existing refresh tokens die with the account.
func (srv *managementService) DeactivateUser(ctx context.Context, actorRole entity.Role, userID uuid.UUID) error {
	if !srv.policy.Allow(actorRole, service.CapManageUsers) {
		return domainerrors.ErrForbidden
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		user, err := repoFactory.UserRepo().FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound
			}

			return errors.Wrap(err, "failed to find user")
		}

		user.IsActive = false
		if err := repoFactory.UserRepo().Update(ctx, user); err != nil {
			return errors.Wrap(err, "failed to deactivate user")
		}

		if err := repoFactory.SessionRepo().DeleteByUserID(ctx, userID); err != nil {
			return errors.Wrap(err, "failed to purge sessions")
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to execute deactivation transaction")
	}

	srv.log(ctx).Info("User deactivated", slog.Any("userID", userID))

	return nil
}

// DeleteUser removes the account outright.
func (srv *managementService) DeleteUser(ctx context.Context, actorRole entity.Role, userID uuid.UUID) error {
	if !srv.policy.Allow(actorRole, service.CapManageUsers) {
		return domainerrors.ErrForbidden
	}

	if err := srv.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domainerrors.ErrUserNotFound
		}

		return errors.Wrap(err, "failed to delete user")
	}

	srv.log(ctx).Info("User deleted", slog.Any("userID", userID))

	return nil
}

// GrantEnrollment manually enrolls a user into a course.
func (srv *managementService) GrantEnrollment(ctx context.Context, input *usecase.GrantEnrollmentInput) (*entity.Enrollment, error) {
	if !srv.policy.Allow(input.ActorRole, service.CapManageEnrollments) {
		return nil, domainerrors.ErrForbidden
	}

	if _, err := srv.findUser(ctx, input.UserID); err != nil {
		return nil, err
	}
	if _, err := srv.courseRepo.FindByID(ctx, input.CourseID); err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return nil, domainerrors.ErrCourseNotFound
		}

		return nil, errors.Wrap(err, "failed to find course")
	}

	enrollment := &entity.Enrollment{
		UserID:     input.UserID,
		CourseID:   input.CourseID,
		Status:     entity.EnrollmentActive,
		EnrollType: entity.EnrollTypeManual,
	}
	if err := srv.enrollmentRepo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrEnrollmentExists) {
			return nil, domainerrors.ErrAlreadyEnrolled
		}

		return nil, errors.Wrap(err, "failed to create enrollment")
	}

	srv.log(ctx).Info("Enrollment granted",
		slog.Any("userID", input.UserID), slog.Any("courseID", input.CourseID))

	return enrollment, nil
}

// RevokeEnrollment removes an enrollment by id.
func (srv *managementService) RevokeEnrollment(ctx context.Context, actorRole entity.Role, enrollmentID uuid.UUID) error {
	if !srv.policy.Allow(actorRole, service.CapManageEnrollments) {
		return domainerrors.ErrForbidden
	}

	if err := srv.enrollmentRepo.Delete(ctx, enrollmentID); err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return domainerrors.ErrEnrollmentNotFound
		}

		return errors.Wrap(err, "failed to delete enrollment")
	}

	srv.log(ctx).Info("Enrollment revoked", slog.Any("enrollmentID", enrollmentID))

	return nil
}

func (srv *managementService) findUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	return user, nil
}
