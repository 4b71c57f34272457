package impl

import (
	"context"
	"net/http"
	"testing"
	"time"

	"coursehub/internal/domain/entity"
	domainerrors "coursehub/internal/domain/errors"
	"coursehub/internal/domain/service"
	"coursehub/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	store      *memStore
	provider   *fakePaymentProvider
	dispatcher *fakeDispatcher
	svc        usecase.PaymentUsecase
}

func newPaymentFixture(provider *fakePaymentProvider, currency string) *paymentFixture {
	store := newMemStore()
	dispatcher := &fakeDispatcher{}
	svc := NewPaymentService(PaymentServiceParams{
		TxManager:      &memTxManager{store: store},
		PaymentRepo:    &memPaymentRepo{store: store},
		CourseRepo:     &memCourseRepo{store: store},
		UserRepo:       &memUserRepo{store: store},
		EnrollmentRepo: &memEnrollmentRepo{store: store},
		Registry:       &fakeRegistry{provider: provider, currency: currency},
		Region:         &fakeRegionResolver{country: "US"},
		Dispatcher:     dispatcher,
		Logger:         newDiscardLogger(),
	})

	return &paymentFixture{
		store:      store,
		provider:   provider,
		dispatcher: dispatcher,
		svc:        svc,
	}
}

func seedCourse(store *memStore, slug string, published bool) *entity.Course {
	course := &entity.Course{
		ID:          uuid.New(),
		Slug:        slug,
		Title:       "Intro to Baking",
		PriceUSD:    4999,
		PriceEGP:    99900,
		IsPublished: published,
		Position:    1,
		CreatedAt:   time.Now(),
	}
	store.courses[course.ID] = course

	return course
}

func TestPaymentService_Checkout(t *testing.T) {
	t.Run("opens a checkout and stores the order id", func(t *testing.T) {
		fixture := newPaymentFixture(&fakePaymentProvider{
			name:    entity.ProviderStripe,
			session: &service.CheckoutSession{ProviderOrderID: "cs_123", RedirectURL: "https://pay.example/cs_123"},
		}, entity.CurrencyUSD)
		user := seedUser(fixture.store, "sara@example.com", "secret123", true)
		course := seedCourse(fixture.store, "baking-101", true)

		output, err := fixture.svc.Checkout(context.Background(), &usecase.CheckoutInput{
			UserID:   user.ID,
			CourseID: course.ID,
			ClientIP: "203.0.113.9",
		})

		require.NoError(t, err)
		assert.Equal(t, entity.ProviderStripe, output.Provider)
		assert.Equal(t, "https://pay.example/cs_123", output.RedirectURL)

		payment := fixture.store.payments[output.PaymentID]
		require.NotNil(t, payment)
		assert.Equal(t, entity.PaymentPending, payment.Status)
		assert.Equal(t, "cs_123", payment.ProviderOrderID)
		assert.Equal(t, int64(4999), payment.Amount)
		assert.Equal(t, entity.CurrencyUSD, payment.Currency)
		assert.Equal(t, entity.EnrollTypePaid, payment.EnrollType)
	})

	t.Run("hides unpublished courses", func(t *testing.T) {
		fixture := newPaymentFixture(&fakePaymentProvider{name: entity.ProviderStripe}, entity.CurrencyUSD)
		user := seedUser(fixture.store, "sara@example.com", "secret123", true)
		course := seedCourse(fixture.store, "baking-101", false)

		_, err := fixture.svc.Checkout(context.Background(), &usecase.CheckoutInput{
			UserID:   user.ID,
			CourseID: course.ID,
		})
		assert.ErrorIs(t, err, domainerrors.ErrCourseNotFound)
	})

	t.Run("rejects a course without a price in the routed currency", func(t *testing.T) {
		fixture := newPaymentFixture(&fakePaymentProvider{name: entity.ProviderPaymob}, entity.CurrencyEGP)
		user := seedUser(fixture.store, "sara@example.com", "secret123", true)
		course := seedCourse(fixture.store, "baking-101", true)
		course.PriceEGP = 0

		_, err := fixture.svc.Checkout(context.Background(), &usecase.CheckoutInput{
			UserID:   user.ID,
			CourseID: course.ID,
		})
		assert.ErrorIs(t, err, domainerrors.ErrPriceUnavailable)
		assert.Empty(t, fixture.store.payments)
	})

	t.Run("keeps the pending row when the provider call fails", func(t *testing.T) {
		fixture := newPaymentFixture(&fakePaymentProvider{
			name:        entity.ProviderStripe,
			checkoutErr: assert.AnError,
		}, entity.CurrencyUSD)
		user := seedUser(fixture.store, "sara@example.com", "secret123", true)
		course := seedCourse(fixture.store, "baking-101", true)

		_, err := fixture.svc.Checkout(context.Background(), &usecase.CheckoutInput{
			UserID:   user.ID,
			CourseID: course.ID,
		})
		assert.ErrorIs(t, err, domainerrors.ErrCheckoutFailed)

		// The row stays pending for the cleanup worker; no order id was issued.
		require.Len(t, fixture.store.payments, 1)
		for _, payment := range fixture.store.payments {
			assert.Equal(t, entity.PaymentPending, payment.Status)
			assert.Empty(t, payment.ProviderOrderID)
		}
	})
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	checkout := func(t *testing.T, fixture *paymentFixture) *entity.Payment {
		t.Helper()
		user := seedUser(fixture.store, "sara@example.com", "secret123", true)
		course := seedCourse(fixture.store, "baking-101", true)
		output, err := fixture.svc.Checkout(context.Background(), &usecase.CheckoutInput{
			UserID:   user.ID,
			CourseID: course.ID,
		})
		require.NoError(t, err)

		return fixture.store.payments[output.PaymentID]
	}

	t.Run("repeated deliveries fulfill exactly once", func(t *testing.T) {
		fixture := newPaymentFixture(&fakePaymentProvider{
			name:    entity.ProviderStripe,
			session: &service.CheckoutSession{ProviderOrderID: "cs_123"},
		}, entity.CurrencyUSD)
		payment := checkout(t, fixture)
		fixture.provider.event = &service.WebhookEvent{ProviderOrderID: "cs_123", Paid: true}

		for range 3 {
			err := fixture.svc.HandleWebhook(context.Background(), entity.ProviderStripe, []byte("{}"), http.Header{}, nil)
			require.NoError(t, err)
		}

		assert.Equal(t, entity.PaymentPaid, fixture.store.payments[payment.ID].Status)
		assert.Len(t, fixture.store.enrollments, 1)
		assert.Len(t, fixture.dispatcher.tasks, 1)

		for _, enrollment := range fixture.store.enrollments {
			assert.Equal(t, payment.UserID, enrollment.UserID)
			assert.Equal(t, payment.CourseID, enrollment.CourseID)
			assert.Equal(t, entity.EnrollmentActive, enrollment.Status)
			assert.Equal(t, entity.EnrollTypePaid, enrollment.EnrollType)
			assert.Equal(t, payment.Amount, enrollment.Amount)
		}
		assert.Equal(t, service.MailEnrollment, fixture.dispatcher.tasks[0].Kind)
	})

	t.Run("rejects an unverifiable delivery", func(t *testing.T) {
		fixture := newPaymentFixture(&fakePaymentProvider{
			name:      entity.ProviderStripe,
			verifyErr: assert.AnError,
		}, entity.CurrencyUSD)

		err := fixture.svc.HandleWebhook(context.Background(), entity.ProviderStripe, []byte("{}"), http.Header{}, nil)
		assert.ErrorIs(t, err, domainerrors.ErrWebhookSignature)
	})

	t.Run("rejects a delivery for an unconfigured provider", func(t *testing.T) {
		fixture := newPaymentFixture(&fakePaymentProvider{name: entity.ProviderStripe}, entity.CurrencyUSD)

		err := fixture.svc.HandleWebhook(context.Background(), entity.ProviderPaymob, []byte("{}"), http.Header{}, nil)
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})

	t.Run("acknowledges events it does not act on", func(t *testing.T) {
		fixture := newPaymentFixture(&fakePaymentProvider{
			name:  entity.ProviderStripe,
			event: &service.WebhookEvent{},
		}, entity.CurrencyUSD)

		err := fixture.svc.HandleWebhook(context.Background(), entity.ProviderStripe, []byte("{}"), http.Header{}, nil)
		assert.NoError(t, err)
	})

	t.Run("leaves the payment pending on a non-final event", func(t *testing.T) {
		fixture := newPaymentFixture(&fakePaymentProvider{
			name:    entity.ProviderStripe,
			session: &service.CheckoutSession{ProviderOrderID: "cs_123"},
		}, entity.CurrencyUSD)
		payment := checkout(t, fixture)
		fixture.provider.event = &service.WebhookEvent{ProviderOrderID: "cs_123", Paid: false}

		require.NoError(t, fixture.svc.HandleWebhook(context.Background(), entity.ProviderStripe, []byte("{}"), http.Header{}, nil))
		assert.Equal(t, entity.PaymentPending, fixture.store.payments[payment.ID].Status)
		assert.Empty(t, fixture.store.enrollments)
	})

	t.Run("backfills the order id when the webhook arrives first", func(t *testing.T) {
		fixture := newPaymentFixture(&fakePaymentProvider{
			name:    entity.ProviderStripe,
			session: &service.CheckoutSession{},
		}, entity.CurrencyUSD)
		payment := checkout(t, fixture)
		require.Empty(t, payment.ProviderOrderID)

		fixture.provider.event = &service.WebhookEvent{
			PaymentID:       payment.ID,
			ProviderOrderID: "cs_late",
			Paid:            true,
		}

		require.NoError(t, fixture.svc.HandleWebhook(context.Background(), entity.ProviderStripe, []byte("{}"), http.Header{}, nil))

		stored := fixture.store.payments[payment.ID]
		assert.Equal(t, "cs_late", stored.ProviderOrderID)
		assert.Equal(t, entity.PaymentPaid, stored.Status)
	})

	t.Run("a second purchase of an owned course still settles", func(t *testing.T) {
		fixture := newPaymentFixture(&fakePaymentProvider{
			name:    entity.ProviderStripe,
			session: &service.CheckoutSession{ProviderOrderID: "cs_123"},
		}, entity.CurrencyUSD)
		payment := checkout(t, fixture)

		// The user already holds paid access from an earlier purchase.
		existingID := uuid.New()
		fixture.store.enrollments[existingID] = &entity.Enrollment{
			ID:         existingID,
			UserID:     payment.UserID,
			CourseID:   payment.CourseID,
			Status:     entity.EnrollmentActive,
			EnrollType: entity.EnrollTypePaid,
		}

		fixture.provider.event = &service.WebhookEvent{ProviderOrderID: "cs_123", Paid: true}
		require.NoError(t, fixture.svc.HandleWebhook(context.Background(), entity.ProviderStripe, []byte("{}"), http.Header{}, nil))

		assert.Equal(t, entity.PaymentPaid, fixture.store.payments[payment.ID].Status)
		assert.Len(t, fixture.store.enrollments, 1)
		assert.Empty(t, fixture.dispatcher.tasks)
	})
}

func TestPaymentService_VerifyPayment(t *testing.T) {
	checkout := func(t *testing.T, fixture *paymentFixture) *entity.Payment {
		t.Helper()
		user := seedUser(fixture.store, "sara@example.com", "secret123", true)
		course := seedCourse(fixture.store, "baking-101", true)
		output, err := fixture.svc.Checkout(context.Background(), &usecase.CheckoutInput{
			UserID:   user.ID,
			CourseID: course.ID,
		})
		require.NoError(t, err)

		return fixture.store.payments[output.PaymentID]
	}

	t.Run("polls the provider and finalizes a completed checkout", func(t *testing.T) {
		fixture := newPaymentFixture(&fakePaymentProvider{
			name:    entity.ProviderStripe,
			session: &service.CheckoutSession{ProviderOrderID: "cs_123"},
			polled:  true,
		}, entity.CurrencyUSD)
		payment := checkout(t, fixture)

		output, err := fixture.svc.VerifyPayment(context.Background(), &usecase.VerifyPaymentInput{
			UserID:    payment.UserID,
			PaymentID: payment.ID,
		})

		require.NoError(t, err)
		assert.Equal(t, entity.PaymentPaid, output.Status)
		require.NotNil(t, output.Enrollment)
		assert.Equal(t, payment.CourseID, output.Enrollment.CourseID)
	})

	t.Run("reports pending when the provider has not settled", func(t *testing.T) {
		fixture := newPaymentFixture(&fakePaymentProvider{
			name:    entity.ProviderStripe,
			session: &service.CheckoutSession{ProviderOrderID: "cs_123"},
			polled:  false,
		}, entity.CurrencyUSD)
		payment := checkout(t, fixture)

		output, err := fixture.svc.VerifyPayment(context.Background(), &usecase.VerifyPaymentInput{
			UserID:          payment.UserID,
			ProviderOrderID: "cs_123",
		})

		require.NoError(t, err)
		assert.Equal(t, entity.PaymentPending, output.Status)
		assert.Nil(t, output.Enrollment)
	})

	t.Run("a poll failure degrades to the stored status", func(t *testing.T) {
		fixture := newPaymentFixture(&fakePaymentProvider{
			name:    entity.ProviderStripe,
			session: &service.CheckoutSession{ProviderOrderID: "cs_123"},
			pollErr: assert.AnError,
		}, entity.CurrencyUSD)
		payment := checkout(t, fixture)

		output, err := fixture.svc.VerifyPayment(context.Background(), &usecase.VerifyPaymentInput{
			UserID:    payment.UserID,
			PaymentID: payment.ID,
		})

		require.NoError(t, err)
		assert.Equal(t, entity.PaymentPending, output.Status)
	})

	t.Run("refuses another user's payment", func(t *testing.T) {
		fixture := newPaymentFixture(&fakePaymentProvider{
			name:    entity.ProviderStripe,
			session: &service.CheckoutSession{ProviderOrderID: "cs_123"},
		}, entity.CurrencyUSD)
		payment := checkout(t, fixture)

		_, err := fixture.svc.VerifyPayment(context.Background(), &usecase.VerifyPaymentInput{
			UserID:    uuid.New(),
			PaymentID: payment.ID,
		})
		assert.ErrorIs(t, err, domainerrors.ErrForbidden)
	})

	t.Run("reports an unknown payment", func(t *testing.T) {
		fixture := newPaymentFixture(&fakePaymentProvider{name: entity.ProviderStripe}, entity.CurrencyUSD)

		_, err := fixture.svc.VerifyPayment(context.Background(), &usecase.VerifyPaymentInput{
			UserID:    uuid.New(),
			PaymentID: uuid.New(),
		})
		assert.ErrorIs(t, err, domainerrors.ErrPaymentNotFound)
	})
}
