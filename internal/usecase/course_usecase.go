package usecase

import (
	"context"

	"coursehub/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// CourseInput defines the writable fields of a course. Create and update
// share the shape; slug uniqueness is enforced by the database.
type CourseInput struct {
	Slug         string
	Title        string
	Description  string
	PriceUSD     int64
	PriceEGP     int64
	IsPublished  bool
	Position     int
	InstructorID uuid.UUID
	ThumbnailURL string
	BrochurePath string
	CategoryIDs  []uuid.UUID
}

// CategoryInput defines the writable fields of a category.
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
}

// --- Output DTOs ---

// BrochureOutput locates a course's PDF brochure on the uploads tree.
type BrochureOutput struct {
	CourseTitle string
	Path        string // Absolute filesystem path.
	FileName    string // Suggested download name.
}

// CourseUsecase defines catalog operations. Reads are public; writes are
// guarded by the management policy and invalidate the catalog cache.
type CourseUsecase interface {
	// ListPublished returns the public catalog ordered by position,
	// served from cache when warm.
	ListPublished(ctx context.Context) ([]*entity.Course, error)

	// GetBySlug returns one published course.
	GetBySlug(ctx context.Context, slug string) (*entity.Course, error)

	// ShareQR renders a PNG QR code pointing at the course's public URL.
	ShareQR(ctx context.Context, slug string) ([]byte, error)

	// Brochure resolves the stored brochure PDF for a course.
	Brochure(ctx context.Context, slug string) (*BrochureOutput, error)

	// ListAll returns every course including unpublished ones.
	ListAll(ctx context.Context, actorRole entity.Role) ([]*entity.Course, error)

	CreateCourse(ctx context.Context, actorRole entity.Role, input *CourseInput) (*entity.Course, error)
	UpdateCourse(ctx context.Context, actorRole entity.Role, id uuid.UUID, input *CourseInput) (*entity.Course, error)
	DeleteCourse(ctx context.Context, actorRole entity.Role, id uuid.UUID) error

	// Reorder reassigns catalog positions in one transaction. Requests are
	// sorted by target position first; an unknown course id rolls the
	// whole batch back.
	Reorder(ctx context.Context, actorRole entity.Role, positions []entity.CoursePosition) error

	// ListCategories returns all categories ordered by name.
	ListCategories(ctx context.Context) ([]*entity.Category, error)

	CreateCategory(ctx context.Context, actorRole entity.Role, input *CategoryInput) (*entity.Category, error)
	UpdateCategory(ctx context.Context, actorRole entity.Role, id uuid.UUID, input *CategoryInput) (*entity.Category, error)
	DeleteCategory(ctx context.Context, actorRole entity.Role, id uuid.UUID) error
}
