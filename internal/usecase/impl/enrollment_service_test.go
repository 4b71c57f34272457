package impl

import (
	"context"
	"testing"

	"coursehub/internal/domain/entity"
	"coursehub/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnrollmentService(store *memStore) usecase.EnrollmentUsecase {
	return NewEnrollmentService(EnrollmentServiceParams{
		EnrollmentRepo: &memEnrollmentRepo{store: store},
		CourseRepo:     &memCourseRepo{store: store},
		Logger:         newDiscardLogger(),
	})
}

func enroll(store *memStore, userID, courseID uuid.UUID, status entity.EnrollmentStatus) *entity.Enrollment {
	enrollment := &entity.Enrollment{
		ID:         uuid.New(),
		UserID:     userID,
		CourseID:   courseID,
		Status:     status,
		EnrollType: entity.EnrollTypePaid,
	}
	store.enrollments[enrollment.ID] = enrollment

	return enrollment
}

func TestEnrollmentService_ListMy(t *testing.T) {
	t.Run("pairs active enrollments with their courses", func(t *testing.T) {
		store := newMemStore()
		svc := newTestEnrollmentService(store)
		user := seedUser(store, "sara@example.com", "pw", true)
		course := seedCourse(store, "baking-101", true)
		enroll(store, user.ID, course.ID, entity.EnrollmentActive)

		// Another learner's enrollment stays out of the listing.
		other := seedUser(store, "omar@example.com", "pw", true)
		enroll(store, other.ID, course.ID, entity.EnrollmentActive)

		listed, err := svc.ListMy(context.Background(), user.ID)

		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, course.ID, listed[0].Course.ID)
		assert.Equal(t, user.ID, listed[0].Enrollment.UserID)
	})

	t.Run("revoked enrollments are hidden", func(t *testing.T) {
		store := newMemStore()
		svc := newTestEnrollmentService(store)
		user := seedUser(store, "sara@example.com", "pw", true)
		course := seedCourse(store, "baking-101", true)
		enroll(store, user.ID, course.ID, entity.EnrollmentRevoked)

		listed, err := svc.ListMy(context.Background(), user.ID)

		require.NoError(t, err)
		assert.Empty(t, listed)
	})

	t.Run("an enrollment for a deleted course is skipped", func(t *testing.T) {
		store := newMemStore()
		svc := newTestEnrollmentService(store)
		user := seedUser(store, "sara@example.com", "pw", true)
		course := seedCourse(store, "baking-101", true)
		kept := seedCourse(store, "pastry-201", true)
		enroll(store, user.ID, course.ID, entity.EnrollmentActive)
		enroll(store, user.ID, kept.ID, entity.EnrollmentActive)
		delete(store.courses, course.ID)

		listed, err := svc.ListMy(context.Background(), user.ID)

		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, kept.ID, listed[0].Course.ID)
	})
}
