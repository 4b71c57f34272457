package service

import (
	"context"
	"net/http"

	"coursehub/internal/domain/entity"

	"github.com/google/uuid"
)

// CheckoutIntent carries everything a provider needs to open a checkout.
type CheckoutIntent struct {
	PaymentID     uuid.UUID
	CourseID      uuid.UUID
	CourseTitle   string
	EnrollType    entity.EnrollType
	Amount        int64 // Minor units of Currency. Never zero.
	Currency      string
	CustomerEmail string
	CustomerName  string
}

// CheckoutSession is the provider's answer to a checkout request.
type CheckoutSession struct {
	ProviderOrderID string // Stored on the Payment row for correlation.
	RedirectURL     string // Where the client sends the buyer.
}

// WebhookEvent is the provider-neutral result of parsing a webhook delivery.
// Exactly one of PaymentID or ProviderOrderID identifies the local payment.
type WebhookEvent struct {
	PaymentID       uuid.UUID // From provider metadata; zero if absent.
	ProviderOrderID string
	Paid            bool
}

// PaymentProvider abstracts one external payment processor. Each variant
// implements checkout creation, webhook signature verification and a status
// poll used as the fallback when webhook delivery is late or absent.
type PaymentProvider interface {
	// Name identifies the provider variant.
	Name() entity.PaymentProvider

	// CreateCheckout opens a hosted checkout for the intent.
	CreateCheckout(ctx context.Context, intent *CheckoutIntent) (*CheckoutSession, error)

	// VerifyWebhook authenticates a raw webhook delivery and extracts the
	// provider-neutral event. Verification failure is a hard error.
	VerifyWebhook(payload []byte, header http.Header, query map[string]string) (*WebhookEvent, error)

	// PollStatus asks the provider whether the checkout completed.
	PollStatus(ctx context.Context, providerOrderID string) (bool, error)
}

// ProviderRegistry resolves configured payment providers: Route picks one
// for a buyer's country during checkout, Get looks one up by name for
// webhook deliveries.
type ProviderRegistry interface {
	// Get returns the named provider, or an error when it is not configured.
	Get(name entity.PaymentProvider) (PaymentProvider, error)

	// Route picks the provider and currency for a buyer's country code.
	Route(countryCode string) (PaymentProvider, string, error)
}

// RegionResolver maps a client address to an ISO country code.
// Empty string means unknown, which routes to the default provider.
type RegionResolver interface {
	CountryCode(ip string) string
}
