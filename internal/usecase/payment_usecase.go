package usecase

import (
	"context"
	"net/http"

	"coursehub/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// CheckoutInput starts a checkout for a course. The client IP drives the
// provider routing; an empty or unresolvable IP routes to the default.
type CheckoutInput struct {
	UserID   uuid.UUID
	CourseID uuid.UUID
	ClientIP string
}

// VerifyPaymentInput identifies the payment to reconcile. Exactly one of
// PaymentID or ProviderOrderID must be set.
type VerifyPaymentInput struct {
	UserID          uuid.UUID
	PaymentID       uuid.UUID
	ProviderOrderID string
}

// --- Output DTOs ---

// CheckoutOutput returns where to send the buyer.
type CheckoutOutput struct {
	PaymentID   uuid.UUID
	Provider    entity.PaymentProvider
	RedirectURL string
}

// VerifyPaymentOutput reports the reconciled state of a payment.
type VerifyPaymentOutput struct {
	Status     entity.PaymentStatus
	Enrollment *entity.Enrollment // Non-nil once the payment is paid.
}

// PaymentUsecase defines checkout creation and the two reconciliation
// paths: provider webhooks and client-driven verification polling.
type PaymentUsecase interface {
	// Checkout inserts a pending payment, then opens a provider checkout.
	// A zero price in the routed currency fails before any provider call.
	Checkout(ctx context.Context, input *CheckoutInput) (*CheckoutOutput, error)

	// HandleWebhook authenticates a raw provider delivery and, when it
	// signals payment, finalizes idempotently: repeated deliveries yield
	// one paid transition and one enrollment.
	HandleWebhook(ctx context.Context, provider entity.PaymentProvider, payload []byte, header http.Header, query map[string]string) error

	// VerifyPayment reconciles a payment on demand. Pending payments are
	// polled against the provider and finalized opportunistically.
	VerifyPayment(ctx context.Context, input *VerifyPaymentInput) (*VerifyPaymentOutput, error)
}
