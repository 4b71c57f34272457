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

// courseRepository implements the domain's CourseRepository interface using GORM.
type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository is the constructor for courseRepository.
func NewCourseRepository(db *gorm.DB) repository.CourseRepository {
	return &courseRepository{db: db}
}

// FindByID retrieves a course by its unique ID, with categories preloaded.
func (repo *courseRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Course, error) {
	var courseM model.CourseModel
	err := repo.db.WithContext(ctx).
		Preload("Categories").
		Where("id = ?", id).
		First(&courseM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCourseNotFound
		}

		return nil, errors.Wrap(err, "failed to find course by id")
	}

	return toCourseDomain(&courseM), nil
}

// FindBySlug retrieves a course by its unique slug, with categories preloaded.
func (repo *courseRepository) FindBySlug(ctx context.Context, slug string) (*entity.Course, error) {
	var courseM model.CourseModel
	err := repo.db.WithContext(ctx).
		Preload("Categories").
		Where("slug = ?", slug).
		First(&courseM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCourseNotFound
		}

		return nil, errors.Wrap(err, "failed to find course by slug")
	}

	return toCourseDomain(&courseM), nil
}

// ListPublished retrieves published courses ordered by position.
func (repo *courseRepository) ListPublished(ctx context.Context) ([]*entity.Course, error) {
	return repo.list(ctx, repo.db.WithContext(ctx).Where("is_published = ?", true))
}

// ListAll retrieves every course ordered by position, for management views.
func (repo *courseRepository) ListAll(ctx context.Context) ([]*entity.Course, error) {
	return repo.list(ctx, repo.db.WithContext(ctx))
}

func (repo *courseRepository) list(_ context.Context, tx *gorm.DB) ([]*entity.Course, error) {
	var courseMs []*model.CourseModel
	err := tx.
		Preload("Categories").
		Order("position ASC, created_at ASC").
		Find(&courseMs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list courses")
	}

	courses := make([]*entity.Course, 0, len(courseMs))
	for _, courseM := range courseMs {
		courses = append(courses, toCourseDomain(courseM))
	}

	return courses, nil
}

// Create persists a new course with its category links.
func (repo *courseRepository) Create(ctx context.Context, course *entity.Course) error {
	courseM := fromCourseDomain(course)

	// Only link existing categories, never upsert them from the association.
	err := repo.db.WithContext(ctx).
		Omit("Categories.*").
		Create(courseM).Error
	if err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrSlugTaken
		}
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrCategoryNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create course")
	}

	course.ID = courseM.ID
	course.CreatedAt = courseM.CreatedAt
	course.UpdatedAt = courseM.UpdatedAt

	return nil
}

// Update modifies an existing course and replaces its category links.
func (repo *courseRepository) Update(ctx context.Context, course *entity.Course) error {
	courseM := fromCourseDomain(course)

	err := repo.db.WithContext(ctx).
		Omit("Categories").
		Save(courseM).Error
	if err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrSlugTaken
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to update course")
	}

	// Replace rewrites the join rows to match the requested category set.
	err = repo.db.WithContext(ctx).
		Model(courseM).
		Association("Categories").
		Replace(courseM.Categories)
	if err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrCategoryNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to update course categories")
	}

	course.UpdatedAt = courseM.UpdatedAt

	return nil
}

// Delete removes a course. Enrollments referencing it cascade.
func (repo *courseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Select("Categories").
		Where("id = ?", id).
		Delete(&model.CourseModel{ID: id})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete course")
	}
	if result.RowsAffected == 0 {
		return repository.ErrCourseNotFound
	}

	return nil
}

// UpdatePosition sets the catalog position of a single course.
func (repo *courseRepository) UpdatePosition(ctx context.Context, id uuid.UUID, position int) error {
	result := repo.db.WithContext(ctx).
		Model(&model.CourseModel{}).
		Where("id = ?", id).
		Update("position", position)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update course position")
	}
	if result.RowsAffected == 0 {
		return repository.ErrCourseNotFound
	}

	return nil
}

// --- Mapper Functions ---

// toCourseDomain converts a GORM CourseModel to a domain Course entity.
func toCourseDomain(data *model.CourseModel) *entity.Course {
	if data == nil {
		return nil
	}

	categories := make([]*entity.Category, 0, len(data.Categories))
	for _, categoryM := range data.Categories {
		categories = append(categories, toCategoryDomain(categoryM))
	}

	return &entity.Course{
		ID:           data.ID,
		Slug:         data.Slug,
		Title:        data.Title,
		Description:  data.Description,
		PriceUSD:     data.PriceUSD,
		PriceEGP:     data.PriceEGP,
		IsPublished:  data.IsPublished,
		Position:     data.Position,
		InstructorID: data.InstructorID,
		ThumbnailURL: data.ThumbnailURL,
		BrochurePath: data.BrochurePath,
		Categories:   categories,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

// fromCourseDomain converts a domain Course entity to a GORM CourseModel.
func fromCourseDomain(data *entity.Course) *model.CourseModel {
	if data == nil {
		return nil
	}

	categories := make([]*model.CategoryModel, 0, len(data.Categories))
	for _, category := range data.Categories {
		categories = append(categories, &model.CategoryModel{ID: category.ID})
	}

	return &model.CourseModel{
		ID:           data.ID,
		Slug:         data.Slug,
		Title:        data.Title,
		Description:  data.Description,
		PriceUSD:     data.PriceUSD,
		PriceEGP:     data.PriceEGP,
		IsPublished:  data.IsPublished,
		Position:     data.Position,
		InstructorID: data.InstructorID,
		ThumbnailURL: data.ThumbnailURL,
		BrochurePath: data.BrochurePath,
		Categories:   categories,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

// toCategoryDomain converts a GORM CategoryModel to a domain Category entity.
func toCategoryDomain(data *model.CategoryModel) *entity.Category {
	if data == nil {
		return nil
	}

	return &entity.Category{
		ID:          data.ID,
		Name:        data.Name,
		Slug:        data.Slug,
		Description: data.Description,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}

// fromCategoryDomain converts a domain Category entity to a GORM CategoryModel.
func fromCategoryDomain(data *entity.Category) *model.CategoryModel {
	if data == nil {
		return nil
	}

	return &model.CategoryModel{
		ID:          data.ID,
		Name:        data.Name,
		Slug:        data.Slug,
		Description: data.Description,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}
