package postgres

import (
	"context"

	"coursehub/internal/domain/entity"
	domainerrors "coursehub/internal/domain/errors"
	"coursehub/internal/domain/repository"
	"coursehub/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// enrollmentRepository implements the domain's EnrollmentRepository interface using GORM.
type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository is the constructor for enrollmentRepository.
func NewEnrollmentRepository(db *gorm.DB) repository.EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

// Create persists a new enrollment. The composite unique index converts a
// concurrent duplicate into ErrEnrollmentExists instead of a second row.
func (repo *enrollmentRepository) Create(ctx context.Context, enrollment *entity.Enrollment) error {
	enrollmentM := fromEnrollmentDomain(enrollment)

	if err := repo.db.WithContext(ctx).Create(enrollmentM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrEnrollmentExists
		}
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrCourseNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create enrollment")
	}

	enrollment.ID = enrollmentM.ID
	enrollment.CreatedAt = enrollmentM.CreatedAt
	enrollment.UpdatedAt = enrollmentM.UpdatedAt

	return nil
}

// FindByID retrieves an enrollment by its unique ID.
func (repo *enrollmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Enrollment, error) {
	var enrollmentM model.EnrollmentModel
	err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&enrollmentM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrEnrollmentNotFound
		}

		return nil, errors.Wrap(err, "failed to find enrollment by id")
	}

	return toEnrollmentDomain(&enrollmentM), nil
}

// Find retrieves the enrollment for a (user, course, type) triple.
func (repo *enrollmentRepository) Find(ctx context.Context, userID, courseID uuid.UUID, enrollType entity.EnrollType) (*entity.Enrollment, error) {
	var enrollmentM model.EnrollmentModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND enroll_type = ?", userID, courseID, string(enrollType)).
		First(&enrollmentM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrEnrollmentNotFound
		}

		return nil, errors.Wrap(err, "failed to find enrollment")
	}

	return toEnrollmentDomain(&enrollmentM), nil
}

// ListByUserID retrieves all active enrollments for a user, newest first.
func (repo *enrollmentRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Enrollment, error) {
	var enrollmentMs []*model.EnrollmentModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, string(entity.EnrollmentActive)).
		Order("created_at DESC").
		Find(&enrollmentMs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list enrollments by user id")
	}

	enrollments := make([]*entity.Enrollment, 0, len(enrollmentMs))
	for _, enrollmentM := range enrollmentMs {
		enrollments = append(enrollments, toEnrollmentDomain(enrollmentM))
	}

	return enrollments, nil
}

// Update modifies an existing enrollment.
func (repo *enrollmentRepository) Update(ctx context.Context, enrollment *entity.Enrollment) error {
	enrollmentM := fromEnrollmentDomain(enrollment)

	if err := repo.db.WithContext(ctx).Save(enrollmentM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to update enrollment")
	}

	enrollment.UpdatedAt = enrollmentM.UpdatedAt

	return nil
}

// Delete removes an enrollment.
func (repo *enrollmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.EnrollmentModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete enrollment")
	}
	if result.RowsAffected == 0 {
		return repository.ErrEnrollmentNotFound
	}

	return nil
}

// --- Mapper Functions ---

// toEnrollmentDomain converts a GORM EnrollmentModel to a domain Enrollment entity.
func toEnrollmentDomain(data *model.EnrollmentModel) *entity.Enrollment {
	if data == nil {
		return nil
	}

	return &entity.Enrollment{
		ID:         data.ID,
		UserID:     data.UserID,
		CourseID:   data.CourseID,
		Status:     entity.EnrollmentStatus(data.Status),
		EnrollType: entity.EnrollType(data.EnrollType),
		Amount:     data.Amount,
		Currency:   data.Currency,
		CreatedAt:  data.CreatedAt,
		UpdatedAt:  data.UpdatedAt,
	}
}

// fromEnrollmentDomain converts a domain Enrollment entity to a GORM EnrollmentModel.
func fromEnrollmentDomain(data *entity.Enrollment) *model.EnrollmentModel {
	if data == nil {
		return nil
	}

	return &model.EnrollmentModel{
		ID:         data.ID,
		UserID:     data.UserID,
		CourseID:   data.CourseID,
		Status:     string(data.Status),
		EnrollType: string(data.EnrollType),
		Amount:     data.Amount,
		Currency:   data.Currency,
		CreatedAt:  data.CreatedAt,
		UpdatedAt:  data.UpdatedAt,
	}
}
