// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"coursehub/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for course persistence.
var (
	// ErrCourseNotFound is returned when a course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrCategoryNotFound is returned when a category does not exist.
	ErrCategoryNotFound = errors.New("category not found")
)

// CourseRepository defines persistence operations for the course catalog.
type CourseRepository interface {
	// FindByID retrieves a course by its unique ID, with categories preloaded.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Course, error)

	// FindBySlug retrieves a course by its unique slug, with categories preloaded.
	FindBySlug(ctx context.Context, slug string) (*entity.Course, error)

	// ListPublished retrieves published courses ordered by position.
	ListPublished(ctx context.Context) ([]*entity.Course, error)

	// ListAll retrieves every course ordered by position, for management views.
	ListAll(ctx context.Context) ([]*entity.Course, error)

	// Create persists a new course with its category links.
	Create(ctx context.Context, course *entity.Course) error

	// Update modifies an existing course and replaces its category links.
	Update(ctx context.Context, course *entity.Course) error

	// Delete removes a course. Enrollments referencing it cascade.
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdatePosition sets the catalog position of a single course.
	UpdatePosition(ctx context.Context, id uuid.UUID, position int) error
}

// CategoryRepository defines persistence operations for course categories.
type CategoryRepository interface {
	// FindByID retrieves a category by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)

	// FindByIDs retrieves the categories matching the given IDs.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Category, error)

	// List retrieves all categories ordered by name.
	List(ctx context.Context) ([]*entity.Category, error)

	// Create persists a new category.
	Create(ctx context.Context, category *entity.Category) error

	// Update modifies an existing category.
	Update(ctx context.Context, category *entity.Category) error

	// Delete removes a category and its course links.
	Delete(ctx context.Context, id uuid.UUID) error
}
