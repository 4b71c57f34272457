// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"time"

	"coursehub/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrPaymentNotFound is returned when a payment row does not exist.
var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepository defines persistence operations for checkout payments.
type PaymentRepository interface {
	// Create persists a new pending payment and fills in its generated ID.
	Create(ctx context.Context, payment *entity.Payment) error

	// FindByID retrieves a payment by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)

	// FindByProviderOrderID retrieves a payment by the processor's
	// order identifier.
	FindByProviderOrderID(ctx context.Context, providerOrderID string) (*entity.Payment, error)

	// Update modifies an existing payment.
	Update(ctx context.Context, payment *entity.Payment) error

	// MarkPaid transitions a pending payment to paid. It reports whether
	// the row actually changed, so repeated webhook deliveries can detect
	// that fulfillment already happened.
	MarkPaid(ctx context.Context, id uuid.UUID) (bool, error)

	// DeleteStalePending removes pending payments created before the
	// cutoff. Returns the number of rows removed.
	DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}
