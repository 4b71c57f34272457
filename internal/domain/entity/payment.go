// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// PaymentProvider identifies the external processor handling a checkout.
type PaymentProvider string

const (
	// ProviderStripe routes checkout through Stripe hosted sessions.
	ProviderStripe PaymentProvider = "stripe"
	// ProviderPaymob routes checkout through Paymob iframe payments.
	ProviderPaymob PaymentProvider = "paymob"
)

// Supported checkout currencies.
const (
	CurrencyUSD = "USD"
	CurrencyEGP = "EGP"
)

// PaymentStatus is the reconciliation state of a payment.
// The machine is pending -> paid, one-directional and terminal.
type PaymentStatus string

const (
	// PaymentPending is set when checkout is initiated, before the provider confirms.
	PaymentPending PaymentStatus = "pending"
	// PaymentPaid is set exactly once, by webhook delivery or the polling fallback.
	PaymentPaid PaymentStatus = "paid"
)

// Payment records one checkout attempt. The row is inserted before the
// provider is contacted so a webhook arriving ahead of the synchronous
// response can still be correlated via ProviderOrderID or the metadata
// payment id.
type Payment struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	CourseID        uuid.UUID
	Provider        PaymentProvider
	ProviderOrderID string // The processor's identifier for this checkout.
	Status          PaymentStatus
	Amount          int64 // Minor units of Currency.
	Currency        string
	EnrollType      EnrollType
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Paid reports whether the payment has reached its terminal state.
func (p *Payment) Paid() bool {
	return p.Status == PaymentPaid
}
