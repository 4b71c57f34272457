package impl

import (
	"context"
	"log/slog"
	"net/http"

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

// paymentService implements the PaymentUsecase interface.
type paymentService struct {
	txManager      repository.TransactionManager
	paymentRepo    repository.PaymentRepository
	courseRepo     repository.CourseRepository
	userRepo       repository.UserRepository
	enrollmentRepo repository.EnrollmentRepository
	registry       service.ProviderRegistry
	region         service.RegionResolver
	dispatcher     service.MailDispatcher
	logger         *slog.Logger
}

// PaymentServiceParams holds dependencies for PaymentService, injected by Fx.
type PaymentServiceParams struct {
	fx.In

	TxManager      repository.TransactionManager
	PaymentRepo    repository.PaymentRepository
	CourseRepo     repository.CourseRepository
	UserRepo       repository.UserRepository
	EnrollmentRepo repository.EnrollmentRepository
	Registry       service.ProviderRegistry
	Region         service.RegionResolver
	Dispatcher     service.MailDispatcher
	Logger         *slog.Logger
}

// NewPaymentService is the constructor for paymentService.
func NewPaymentService(params PaymentServiceParams) usecase.PaymentUsecase {
	return &paymentService{
		txManager:      params.TxManager,
		paymentRepo:    params.PaymentRepo,
		courseRepo:     params.CourseRepo,
		userRepo:       params.UserRepo,
		enrollmentRepo: params.EnrollmentRepo,
		registry:       params.Registry,
		region:         params.Region,
		dispatcher:     params.Dispatcher,
		logger:         params.Logger,
	}
}

func (srv *paymentService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Checkout inserts a pending payment, then opens a provider checkout. The
// row is written before the provider call so a webhook racing the
// synchronous response can still be correlated.
func (srv *paymentService) Checkout(ctx context.Context, input *usecase.CheckoutInput) (*usecase.CheckoutOutput, error) {
	course, err := srv.courseRepo.FindByID(ctx, input.CourseID)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return nil, domainerrors.ErrCourseNotFound
		}

		return nil, errors.Wrap(err, "failed to find course")
	}
	if !course.IsPublished {
		return nil, domainerrors.ErrCourseNotFound
	}

	user, err := srv.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}

	countryCode := srv.region.CountryCode(input.ClientIP)
	provider, currency, err := srv.registry.Route(countryCode)
	if err != nil {
		srv.log(ctx).Warn("No payment provider available",
			slog.String("countryCode", countryCode))

		return nil, domainerrors.ErrCheckoutFailed
	}

	amount := course.PriceFor(currency)
	if amount <= 0 {
		return nil, domainerrors.ErrPriceUnavailable
	}

	payment := &entity.Payment{
		UserID:     user.ID,
		CourseID:   course.ID,
		Provider:   provider.Name(),
		Status:     entity.PaymentPending,
		Amount:     amount,
		Currency:   currency,
		EnrollType: entity.EnrollTypePaid,
	}
	if err := srv.paymentRepo.Create(ctx, payment); err != nil {
		return nil, errors.Wrap(err, "failed to create payment")
	}

	session, err := provider.CreateCheckout(ctx, &service.CheckoutIntent{
		PaymentID:     payment.ID,
		CourseID:      course.ID,
		CourseTitle:   course.Title,
		EnrollType:    payment.EnrollType,
		Amount:        amount,
		Currency:      currency,
		CustomerEmail: user.Email,
		CustomerName:  user.Name,
	})
	if err != nil {
		srv.log(ctx).Error("Provider checkout failed",
			slog.Any("paymentID", payment.ID),
			slog.String("provider", string(provider.Name())),
			slog.Any("error", err))

		return nil, domainerrors.ErrCheckoutFailed
	}

	payment.ProviderOrderID = session.ProviderOrderID
	if err := srv.paymentRepo.Update(ctx, payment); err != nil {
		return nil, errors.Wrap(err, "failed to store provider order id")
	}

	srv.log(ctx).Info("Checkout opened",
		slog.Any("paymentID", payment.ID),
		slog.String("provider", string(provider.Name())),
		slog.String("currency", currency))

	return &usecase.CheckoutOutput{
		PaymentID:   payment.ID,
		Provider:    provider.Name(),
		RedirectURL: session.RedirectURL,
	}, nil
}

// HandleWebhook authenticates a raw provider delivery and finalizes the
// referenced payment. Deliveries for events we do not act on are
// acknowledged silently.
func (srv *paymentService) HandleWebhook(ctx context.Context, providerName entity.PaymentProvider, payload []byte, header http.Header, query map[string]string) error {
	provider, err := srv.registry.Get(providerName)
	if err != nil {
		return domainerrors.ErrNotFound
	}

	event, err := provider.VerifyWebhook(payload, header, query)
	if err != nil {
		srv.log(ctx).Warn("Webhook verification failed",
			slog.String("provider", string(providerName)),
			slog.Any("error", err))

		return domainerrors.ErrWebhookSignature
	}

	// An authenticated delivery for an event kind we ignore.
	if event.PaymentID == uuid.Nil && event.ProviderOrderID == "" {
		return nil
	}

	payment, err := srv.locatePayment(ctx, event.PaymentID, event.ProviderOrderID)
	if err != nil {
		return err
	}

	// A webhook can land before the synchronous checkout response stored
	// the provider's order id; backfill it here.
	if payment.ProviderOrderID == "" && event.ProviderOrderID != "" {
		payment.ProviderOrderID = event.ProviderOrderID
		if err := srv.paymentRepo.Update(ctx, payment); err != nil {
			return errors.Wrap(err, "failed to backfill provider order id")
		}
	}

	if !event.Paid {
		srv.log(ctx).Info("Webhook reported non-final state",
			slog.Any("paymentID", payment.ID))

		return nil
	}

	return srv.finalize(ctx, payment)
}

// VerifyPayment reconciles a payment on demand for its owner. Pending
// payments are polled against the provider as the webhook fallback.
func (srv *paymentService) VerifyPayment(ctx context.Context, input *usecase.VerifyPaymentInput) (*usecase.VerifyPaymentOutput, error) {
	payment, err := srv.locatePayment(ctx, input.PaymentID, input.ProviderOrderID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != input.UserID {
		return nil, domainerrors.ErrForbidden
	}

	if !payment.Paid() && payment.ProviderOrderID != "" {
		provider, err := srv.registry.Get(payment.Provider)
		if err != nil {
			return nil, domainerrors.ErrNotFound
		}

		paid, err := provider.PollStatus(ctx, payment.ProviderOrderID)
		if err != nil {
			srv.log(ctx).Warn("Provider status poll failed",
				slog.Any("paymentID", payment.ID),
				slog.Any("error", err))
		} else if paid {
			if err := srv.finalize(ctx, payment); err != nil {
				return nil, err
			}
			payment.Status = entity.PaymentPaid
		}
	}

	output := &usecase.VerifyPaymentOutput{Status: payment.Status}
	if payment.Paid() {
		enrollment, err := srv.enrollmentRepo.Find(ctx, payment.UserID, payment.CourseID, payment.EnrollType)
		if err != nil && !errors.Is(err, repository.ErrEnrollmentNotFound) {
			return nil, errors.Wrap(err, "failed to load enrollment")
		}
		output.Enrollment = enrollment
	}

	return output, nil
}

// finalize transitions the payment to paid and grants the enrollment in one
// transaction. The conditional paid update makes repeated deliveries
// no-ops: only the first writer creates the enrollment and sends the mail.
func (srv *paymentService) finalize(ctx context.Context, payment *entity.Payment) error {
	fulfilled := false
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		changed, err := repoFactory.PaymentRepo().MarkPaid(ctx, payment.ID)
		if err != nil {
			return errors.Wrap(err, "failed to mark payment paid")
		}
		if !changed {
			// Another delivery already fulfilled this payment.
			return nil
		}

		enrollment := &entity.Enrollment{
			UserID:     payment.UserID,
			CourseID:   payment.CourseID,
			Status:     entity.EnrollmentActive,
			EnrollType: payment.EnrollType,
			Amount:     payment.Amount,
			Currency:   payment.Currency,
		}
		if err := repoFactory.EnrollmentRepo().Create(ctx, enrollment); err != nil {
			// The user already holds this access, typically via an earlier
			// payment for the same course. The paid transition still stands.
			if errors.Is(err, repository.ErrEnrollmentExists) {
				return nil
			}

			return errors.Wrap(err, "failed to create enrollment")
		}

		fulfilled = true

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to execute payment fulfillment transaction")
	}

	if fulfilled {
		srv.log(ctx).Info("Payment fulfilled",
			slog.Any("paymentID", payment.ID),
			slog.Any("courseID", payment.CourseID))
		srv.sendEnrollmentMail(ctx, payment)
	}

	return nil
}

// sendEnrollmentMail dispatches the confirmation after the transaction
// committed. Mail failures never undo a fulfillment.
func (srv *paymentService) sendEnrollmentMail(ctx context.Context, payment *entity.Payment) {
	user, err := srv.userRepo.FindByID(ctx, payment.UserID)
	if err != nil {
		srv.log(ctx).Warn("Failed to load user for enrollment mail",
			slog.Any("paymentID", payment.ID), slog.Any("error", err))

		return
	}
	course, err := srv.courseRepo.FindByID(ctx, payment.CourseID)
	if err != nil {
		srv.log(ctx).Warn("Failed to load course for enrollment mail",
			slog.Any("paymentID", payment.ID), slog.Any("error", err))

		return
	}

	task := &service.MailTask{
		Kind:        service.MailEnrollment,
		To:          user.Email,
		Name:        user.Name,
		CourseTitle: course.Title,
	}
	if err := srv.dispatcher.Dispatch(ctx, task); err != nil {
		srv.log(ctx).Warn("Failed to dispatch enrollment mail",
			slog.Any("paymentID", payment.ID), slog.Any("error", err))
	}
}

func (srv *paymentService) locatePayment(ctx context.Context, paymentID uuid.UUID, providerOrderID string) (*entity.Payment, error) {
	var (
		payment *entity.Payment
		err     error
	)
	switch {
	case paymentID != uuid.Nil:
		payment, err = srv.paymentRepo.FindByID(ctx, paymentID)
	case providerOrderID != "":
		payment, err = srv.paymentRepo.FindByProviderOrderID(ctx, providerOrderID)
	default:
		return nil, domainerrors.ErrPaymentNotFound
	}
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, domainerrors.ErrPaymentNotFound
		}

		return nil, errors.Wrap(err, "failed to find payment")
	}

	return payment, nil
}
