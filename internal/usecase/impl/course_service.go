package impl

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"coursehub/config"
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

// courseService implements the CourseUsecase interface.
type courseService struct {
	txManager    repository.TransactionManager
	courseRepo   repository.CourseRepository
	categoryRepo repository.CategoryRepository
	cache        service.CatalogCache
	qr           service.QRCodeService
	policy       service.Policy
	uploadsDir   string
	frontendURL  string
	logger       *slog.Logger
}

// CourseServiceParams holds dependencies for CourseService, injected by Fx.
type CourseServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	CourseRepo   repository.CourseRepository
	CategoryRepo repository.CategoryRepository
	Cache        service.CatalogCache
	QR           service.QRCodeService
	Policy       service.Policy
	Config       *config.Config
	Logger       *slog.Logger
}

// NewCourseService is the constructor for courseService.
func NewCourseService(params CourseServiceParams) usecase.CourseUsecase {
	uploadsDir := "uploads"
	if params.Config.Uploads != nil && params.Config.Uploads.Dir != "" {
		uploadsDir = params.Config.Uploads.Dir
	}

	frontendURL := ""
	if params.Config.Frontend != nil {
		frontendURL = strings.TrimSuffix(params.Config.Frontend.BaseURL, "/")
	}

	return &courseService{
		txManager:    params.TxManager,
		courseRepo:   params.CourseRepo,
		categoryRepo: params.CategoryRepo,
		cache:        params.Cache,
		qr:           params.QR,
		policy:       params.Policy,
		uploadsDir:   uploadsDir,
		frontendURL:  frontendURL,
		logger:       params.Logger,
	}
}

func (srv *courseService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ListPublished returns the public catalog, served from cache when warm.
// Cache failures degrade to a database read, never to an error.
func (srv *courseService) ListPublished(ctx context.Context) ([]*entity.Course, error) {
	cached, err := srv.cache.GetPublished(ctx)
	if err != nil {
		srv.log(ctx).Warn("Catalog cache read failed", slog.Any("error", err))
	}
	if cached != nil {
		return cached, nil
	}

	courses, err := srv.courseRepo.ListPublished(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list published courses")
	}

	if err := srv.cache.SetPublished(ctx, courses); err != nil {
		srv.log(ctx).Warn("Catalog cache write failed", slog.Any("error", err))
	}

	return courses, nil
}

// GetBySlug returns one published course. Unpublished courses stay hidden
// from the public surface.
func (srv *courseService) GetBySlug(ctx context.Context, slug string) (*entity.Course, error) {
	course, err := srv.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, domainerrors.ErrCourseNotFound
	}

	return course, nil
}

// ShareQR renders a PNG QR code pointing at the course's public URL.
func (srv *courseService) ShareQR(ctx context.Context, slug string) ([]byte, error) {
	course, err := srv.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	png, err := srv.qr.GeneratePNG(srv.frontendURL + "/courses/" + course.Slug)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render course QR code")
	}

	return png, nil
}

// Brochure resolves the stored brochure PDF for a course.
func (srv *courseService) Brochure(ctx context.Context, slug string) (*usecase.BrochureOutput, error) {
	course, err := srv.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if course.BrochurePath == "" {
		return nil, domainerrors.ErrBrochureMissing
	}

	return &usecase.BrochureOutput{
		CourseTitle: course.Title,
		Path:        filepath.Join(srv.uploadsDir, filepath.Clean("/"+course.BrochurePath)),
		FileName:    course.Slug + ".pdf",
	}, nil
}

// ListAll returns every course including unpublished ones.
func (srv *courseService) ListAll(ctx context.Context, actorRole entity.Role) ([]*entity.Course, error) {
	if !srv.policy.Allow(actorRole, service.CapManageCourses) {
		return nil, domainerrors.ErrForbidden
	}

	courses, err := srv.courseRepo.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list courses")
	}

	return courses, nil
}

// CreateCourse persists a new course and invalidates the catalog cache.
func (srv *courseService) CreateCourse(ctx context.Context, actorRole entity.Role, input *usecase.CourseInput) (*entity.Course, error) {
	if !srv.policy.Allow(actorRole, service.CapManageCourses) {
		return nil, domainerrors.ErrForbidden
	}

	srv.log(ctx).Info("Creating course", slog.String("slug", input.Slug))

	var created *entity.Course
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		categories, err := srv.resolveCategories(ctx, repoFactory.CategoryRepo(), input.CategoryIDs)
		if err != nil {
			return err
		}

		course := courseFromInput(input, categories)
		if err := repoFactory.CourseRepo().Create(ctx, course); err != nil {
			return errors.WithStack(err)
		}
		created = course

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Course creation failed", slog.String("slug", input.Slug), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute course creation transaction")
	}

	srv.invalidateCatalog(ctx)

	return created, nil
}

// UpdateCourse modifies a course and invalidates the catalog cache.
func (srv *courseService) UpdateCourse(ctx context.Context, actorRole entity.Role, id uuid.UUID, input *usecase.CourseInput) (*entity.Course, error) {
	if !srv.policy.Allow(actorRole, service.CapManageCourses) {
		return nil, domainerrors.ErrForbidden
	}

	srv.log(ctx).Info("Updating course", slog.Any("courseID", id))

	var updated *entity.Course
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		courseRepo := repoFactory.CourseRepo()

		existing, err := courseRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrCourseNotFound) {
				return domainerrors.ErrCourseNotFound
			}

			return errors.Wrap(err, "failed to find course")
		}

		categories, err := srv.resolveCategories(ctx, repoFactory.CategoryRepo(), input.CategoryIDs)
		if err != nil {
			return err
		}

		course := courseFromInput(input, categories)
		course.ID = existing.ID
		course.CreatedAt = existing.CreatedAt

		if err := courseRepo.Update(ctx, course); err != nil {
			return errors.WithStack(err)
		}
		updated = course

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Course update failed", slog.Any("courseID", id), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute course update transaction")
	}

	srv.invalidateCatalog(ctx)

	return updated, nil
}

// DeleteCourse removes a course and invalidates the catalog cache.
func (srv *courseService) DeleteCourse(ctx context.Context, actorRole entity.Role, id uuid.UUID) error {
	if !srv.policy.Allow(actorRole, service.CapManageCourses) {
		return domainerrors.ErrForbidden
	}

	srv.log(ctx).Info("Deleting course", slog.Any("courseID", id))

	if err := srv.courseRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return domainerrors.ErrCourseNotFound
		}

		return errors.Wrap(err, "failed to delete course")
	}

	srv.invalidateCatalog(ctx)

	return nil
}

// Reorder reassigns catalog positions in one transaction. The batch is
// sorted by requested position first so the final ordering matches the
// request regardless of input order.
func (srv *courseService) Reorder(ctx context.Context, actorRole entity.Role, positions []entity.CoursePosition) error {
	if !srv.policy.Allow(actorRole, service.CapManageCourses) {
		return domainerrors.ErrForbidden
	}

	srv.log(ctx).Info("Reordering courses", slog.Int("count", len(positions)))

	sorted := make([]entity.CoursePosition, len(positions))
	copy(sorted, positions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		courseRepo := repoFactory.CourseRepo()

		for idx, item := range sorted {
			if err := courseRepo.UpdatePosition(ctx, item.CourseID, idx+1); err != nil {
				if errors.Is(err, repository.ErrCourseNotFound) {
					return domainerrors.ErrCourseNotFound
				}

				return errors.Wrap(err, "failed to update course position")
			}
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Course reorder failed", slog.Any("error", err))

		return errors.Wrap(err, "failed to execute course reorder transaction")
	}

	srv.invalidateCatalog(ctx)

	return nil
}

// ListCategories returns all categories ordered by name.
func (srv *courseService) ListCategories(ctx context.Context) ([]*entity.Category, error) {
	categories, err := srv.categoryRepo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list categories")
	}

	return categories, nil
}

// CreateCategory persists a new category.
func (srv *courseService) CreateCategory(ctx context.Context, actorRole entity.Role, input *usecase.CategoryInput) (*entity.Category, error) {
	if !srv.policy.Allow(actorRole, service.CapManageCourses) {
		return nil, domainerrors.ErrForbidden
	}

	category := &entity.Category{
		Name:        input.Name,
		Slug:        input.Slug,
		Description: input.Description,
	}
	if err := srv.categoryRepo.Create(ctx, category); err != nil {
		return nil, errors.WithStack(err)
	}

	return category, nil
}

// UpdateCategory modifies an existing category.
func (srv *courseService) UpdateCategory(ctx context.Context, actorRole entity.Role, id uuid.UUID, input *usecase.CategoryInput) (*entity.Category, error) {
	if !srv.policy.Allow(actorRole, service.CapManageCourses) {
		return nil, domainerrors.ErrForbidden
	}

	existing, err := srv.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, domainerrors.ErrCategoryNotFound
		}

		return nil, errors.Wrap(err, "failed to find category")
	}

	existing.Name = input.Name
	existing.Slug = input.Slug
	existing.Description = input.Description

	if err := srv.categoryRepo.Update(ctx, existing); err != nil {
		return nil, errors.WithStack(err)
	}

	return existing, nil
}

// DeleteCategory removes a category and its course links.
func (srv *courseService) DeleteCategory(ctx context.Context, actorRole entity.Role, id uuid.UUID) error {
	if !srv.policy.Allow(actorRole, service.CapManageCourses) {
		return domainerrors.ErrForbidden
	}

	if err := srv.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return domainerrors.ErrCategoryNotFound
		}

		return errors.Wrap(err, "failed to delete category")
	}

	srv.invalidateCatalog(ctx)

	return nil
}

func (srv *courseService) findBySlug(ctx context.Context, slug string) (*entity.Course, error) {
	course, err := srv.courseRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return nil, domainerrors.ErrCourseNotFound
		}

		return nil, errors.Wrap(err, "failed to find course by slug")
	}

	return course, nil
}

// resolveCategories loads the requested categories and rejects unknown ids.
func (srv *courseService) resolveCategories(ctx context.Context, categoryRepo repository.CategoryRepository, ids []uuid.UUID) ([]*entity.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	categories, err := categoryRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve categories")
	}
	if len(categories) != len(ids) {
		return nil, domainerrors.ErrCategoryNotFound
	}

	return categories, nil
}

func (srv *courseService) invalidateCatalog(ctx context.Context) {
	if err := srv.cache.Invalidate(ctx); err != nil {
		srv.log(ctx).Warn("Catalog cache invalidation failed", slog.Any("error", err))
	}
}

func courseFromInput(input *usecase.CourseInput, categories []*entity.Category) *entity.Course {
	return &entity.Course{
		Slug:         input.Slug,
		Title:        input.Title,
		Description:  input.Description,
		PriceUSD:     input.PriceUSD,
		PriceEGP:     input.PriceEGP,
		IsPublished:  input.IsPublished,
		Position:     input.Position,
		InstructorID: input.InstructorID,
		ThumbnailURL: input.ThumbnailURL,
		BrochurePath: input.BrochurePath,
		Categories:   categories,
	}
}
