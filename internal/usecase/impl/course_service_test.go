package impl

import (
	"context"
	"path/filepath"
	"testing"

	"coursehub/config"
	"coursehub/internal/domain/entity"
	domainerrors "coursehub/internal/domain/errors"
	"coursehub/internal/infra/authz"
	"coursehub/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type courseFixture struct {
	store *memStore
	cache *fakeCatalogCache
	svc   usecase.CourseUsecase
}

func newCourseFixture() *courseFixture {
	store := newMemStore()
	cache := &fakeCatalogCache{}
	cfg := &config.Config{
		Uploads:  &config.UploadsConfig{Dir: "/srv/uploads"},
		Frontend: &config.FrontendConfig{BaseURL: "https://app.example.com"},
	}
	svc := NewCourseService(CourseServiceParams{
		TxManager:    &memTxManager{store: store},
		CourseRepo:   &memCourseRepo{store: store},
		CategoryRepo: &memCategoryRepo{store: store},
		Cache:        cache,
		QR:           fakeQRCodeService{},
		Policy:       authz.NewPolicy(),
		Config:       cfg,
		Logger:       newDiscardLogger(),
	})

	return &courseFixture{store: store, cache: cache, svc: svc}
}

func TestCourseService_ListPublished(t *testing.T) {
	t.Run("a miss reads the database and warms the cache", func(t *testing.T) {
		fixture := newCourseFixture()
		seedCourse(fixture.store, "baking-101", true)
		seedCourse(fixture.store, "drafts-only", false)

		courses, err := fixture.svc.ListPublished(context.Background())

		require.NoError(t, err)
		require.Len(t, courses, 1)
		assert.Equal(t, "baking-101", courses[0].Slug)
		assert.Equal(t, 1, fixture.cache.sets)
	})

	t.Run("a warm cache skips the database", func(t *testing.T) {
		fixture := newCourseFixture()
		fixture.cache.entry = []*entity.Course{{Slug: "cached-course"}}

		courses, err := fixture.svc.ListPublished(context.Background())

		require.NoError(t, err)
		require.Len(t, courses, 1)
		assert.Equal(t, "cached-course", courses[0].Slug)
		assert.Zero(t, fixture.cache.sets)
	})

	t.Run("a cache failure degrades to a database read", func(t *testing.T) {
		fixture := newCourseFixture()
		fixture.cache.getErr = assert.AnError
		seedCourse(fixture.store, "baking-101", true)

		courses, err := fixture.svc.ListPublished(context.Background())

		require.NoError(t, err)
		assert.Len(t, courses, 1)
	})
}

func TestCourseService_GetBySlug(t *testing.T) {
	fixture := newCourseFixture()
	seedCourse(fixture.store, "baking-101", true)
	seedCourse(fixture.store, "drafts-only", false)

	course, err := fixture.svc.GetBySlug(context.Background(), "baking-101")
	require.NoError(t, err)
	assert.Equal(t, "baking-101", course.Slug)

	// Unpublished courses are indistinguishable from missing ones.
	_, err = fixture.svc.GetBySlug(context.Background(), "drafts-only")
	assert.ErrorIs(t, err, domainerrors.ErrCourseNotFound)

	_, err = fixture.svc.GetBySlug(context.Background(), "nope")
	assert.ErrorIs(t, err, domainerrors.ErrCourseNotFound)
}

func TestCourseService_ShareQR(t *testing.T) {
	fixture := newCourseFixture()
	seedCourse(fixture.store, "baking-101", true)

	png, err := fixture.svc.ShareQR(context.Background(), "baking-101")

	require.NoError(t, err)
	assert.Equal(t, []byte("png$https://app.example.com/courses/baking-101"), png)
}

func TestCourseService_Brochure(t *testing.T) {
	t.Run("resolves the stored path under the uploads tree", func(t *testing.T) {
		fixture := newCourseFixture()
		course := seedCourse(fixture.store, "baking-101", true)
		course.BrochurePath = "brochures/baking.pdf"

		output, err := fixture.svc.Brochure(context.Background(), "baking-101")

		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/srv/uploads", "brochures", "baking.pdf"), output.Path)
		assert.Equal(t, "baking-101.pdf", output.FileName)
		assert.Equal(t, course.Title, output.CourseTitle)
	})

	t.Run("a traversal attempt stays inside the uploads tree", func(t *testing.T) {
		fixture := newCourseFixture()
		course := seedCourse(fixture.store, "baking-101", true)
		course.BrochurePath = "../../etc/passwd"

		output, err := fixture.svc.Brochure(context.Background(), "baking-101")

		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/srv/uploads", "etc", "passwd"), output.Path)
	})

	t.Run("a course without a brochure", func(t *testing.T) {
		fixture := newCourseFixture()
		seedCourse(fixture.store, "baking-101", true)

		_, err := fixture.svc.Brochure(context.Background(), "baking-101")
		assert.ErrorIs(t, err, domainerrors.ErrBrochureMissing)
	})
}

func TestCourseService_CreateCourse(t *testing.T) {
	t.Run("links categories and invalidates the catalog", func(t *testing.T) {
		fixture := newCourseFixture()
		category := &entity.Category{ID: uuid.New(), Name: "Cooking", Slug: "cooking"}
		fixture.store.categories[category.ID] = category

		created, err := fixture.svc.CreateCourse(context.Background(), entity.RoleAdmin, &usecase.CourseInput{
			Slug:        "baking-101",
			Title:       "Intro to Baking",
			PriceUSD:    4999,
			IsPublished: true,
			CategoryIDs: []uuid.UUID{category.ID},
		})

		require.NoError(t, err)
		require.Len(t, created.Categories, 1)
		assert.Equal(t, "cooking", created.Categories[0].Slug)
		assert.NotNil(t, fixture.store.courses[created.ID])
		assert.Equal(t, 1, fixture.cache.invalidations)
	})

	t.Run("rejects unknown categories and rolls back", func(t *testing.T) {
		fixture := newCourseFixture()

		_, err := fixture.svc.CreateCourse(context.Background(), entity.RoleAdmin, &usecase.CourseInput{
			Slug:        "baking-101",
			Title:       "Intro to Baking",
			CategoryIDs: []uuid.UUID{uuid.New()},
		})

		assert.ErrorIs(t, err, domainerrors.ErrCategoryNotFound)
		assert.Empty(t, fixture.store.courses)
	})

	t.Run("trainees cannot write the catalog", func(t *testing.T) {
		fixture := newCourseFixture()

		_, err := fixture.svc.CreateCourse(context.Background(), entity.RoleTrainee, &usecase.CourseInput{
			Slug: "baking-101",
		})
		assert.ErrorIs(t, err, domainerrors.ErrForbidden)
	})
}

func TestCourseService_UpdateCourse(t *testing.T) {
	fixture := newCourseFixture()
	course := seedCourse(fixture.store, "baking-101", true)

	updated, err := fixture.svc.UpdateCourse(context.Background(), entity.RoleManager, course.ID, &usecase.CourseInput{
		Slug:        "baking-101",
		Title:       "Advanced Baking",
		PriceUSD:    7999,
		IsPublished: false,
	})

	require.NoError(t, err)
	assert.Equal(t, course.ID, updated.ID)
	assert.Equal(t, "Advanced Baking", updated.Title)
	assert.False(t, fixture.store.courses[course.ID].IsPublished)
	assert.Equal(t, 1, fixture.cache.invalidations)

	_, err = fixture.svc.UpdateCourse(context.Background(), entity.RoleManager, uuid.New(), &usecase.CourseInput{})
	assert.ErrorIs(t, err, domainerrors.ErrCourseNotFound)
}

func TestCourseService_DeleteCourse(t *testing.T) {
	fixture := newCourseFixture()
	course := seedCourse(fixture.store, "baking-101", true)

	require.NoError(t, fixture.svc.DeleteCourse(context.Background(), entity.RoleAdmin, course.ID))
	assert.Empty(t, fixture.store.courses)

	err := fixture.svc.DeleteCourse(context.Background(), entity.RoleAdmin, course.ID)
	assert.ErrorIs(t, err, domainerrors.ErrCourseNotFound)
}

func TestCourseService_Reorder(t *testing.T) {
	seedThree := func(fixture *courseFixture) (a, b, c *entity.Course) {
		a = seedCourse(fixture.store, "course-a", true)
		b = seedCourse(fixture.store, "course-b", true)
		c = seedCourse(fixture.store, "course-c", true)
		a.Position, b.Position, c.Position = 1, 2, 3

		return a, b, c
	}

	t.Run("applies the requested ordering regardless of input order", func(t *testing.T) {
		fixture := newCourseFixture()
		a, b, c := seedThree(fixture)

		err := fixture.svc.Reorder(context.Background(), entity.RoleAdmin, []entity.CoursePosition{
			{CourseID: a.ID, Position: 30},
			{CourseID: c.ID, Position: 10},
			{CourseID: b.ID, Position: 20},
		})

		require.NoError(t, err)
		assert.Equal(t, 1, fixture.store.courses[c.ID].Position)
		assert.Equal(t, 2, fixture.store.courses[b.ID].Position)
		assert.Equal(t, 3, fixture.store.courses[a.ID].Position)
		assert.Equal(t, 1, fixture.cache.invalidations)
	})

	t.Run("an unknown course rolls the whole batch back", func(t *testing.T) {
		fixture := newCourseFixture()
		a, b, c := seedThree(fixture)

		err := fixture.svc.Reorder(context.Background(), entity.RoleAdmin, []entity.CoursePosition{
			{CourseID: c.ID, Position: 10},
			{CourseID: uuid.New(), Position: 20},
			{CourseID: a.ID, Position: 30},
		})

		assert.ErrorIs(t, err, domainerrors.ErrCourseNotFound)
		assert.Equal(t, 1, fixture.store.courses[a.ID].Position)
		assert.Equal(t, 2, fixture.store.courses[b.ID].Position)
		assert.Equal(t, 3, fixture.store.courses[c.ID].Position)
	})
}

func TestCourseService_Categories(t *testing.T) {
	t.Run("create, update and delete are policy guarded", func(t *testing.T) {
		fixture := newCourseFixture()

		_, err := fixture.svc.CreateCategory(context.Background(), entity.RoleTrainee, &usecase.CategoryInput{Name: "Cooking"})
		assert.ErrorIs(t, err, domainerrors.ErrForbidden)

		created, err := fixture.svc.CreateCategory(context.Background(), entity.RoleAdmin, &usecase.CategoryInput{
			Name: "Cooking",
			Slug: "cooking",
		})
		require.NoError(t, err)

		updated, err := fixture.svc.UpdateCategory(context.Background(), entity.RoleAdmin, created.ID, &usecase.CategoryInput{
			Name: "Culinary",
			Slug: "culinary",
		})
		require.NoError(t, err)
		assert.Equal(t, "Culinary", updated.Name)

		require.NoError(t, fixture.svc.DeleteCategory(context.Background(), entity.RoleAdmin, created.ID))
		assert.Empty(t, fixture.store.categories)
	})

	t.Run("updating a missing category", func(t *testing.T) {
		fixture := newCourseFixture()

		_, err := fixture.svc.UpdateCategory(context.Background(), entity.RoleAdmin, uuid.New(), &usecase.CategoryInput{})
		assert.ErrorIs(t, err, domainerrors.ErrCategoryNotFound)
	})

	t.Run("listing needs no role", func(t *testing.T) {
		fixture := newCourseFixture()
		fixture.store.categories[uuid.New()] = &entity.Category{Name: "Cooking"}

		categories, err := fixture.svc.ListCategories(context.Background())
		require.NoError(t, err)
		assert.Len(t, categories, 1)
	})
}

func TestCourseService_ListAll(t *testing.T) {
	fixture := newCourseFixture()
	seedCourse(fixture.store, "baking-101", true)
	seedCourse(fixture.store, "drafts-only", false)

	courses, err := fixture.svc.ListAll(context.Background(), entity.RoleManager)
	require.NoError(t, err)
	assert.Len(t, courses, 2)

	_, err = fixture.svc.ListAll(context.Background(), entity.RoleInstructor)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}
