// Package payment implements the external checkout providers.
package payment

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"coursehub/config"
	"coursehub/internal/domain/entity"
	"coursehub/internal/domain/service"
)

const (
	metadataPaymentID  = "paymentId"
	metadataCourseID   = "courseId"
	metadataEnrollType = "enrollType"
)

// stripeProvider drives Stripe hosted checkout. The local payment ID rides
// along as session metadata so the webhook can correlate without lookups
// by provider order ID.
type stripeProvider struct {
	api           *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
}

// NewStripeProvider wires the Stripe client from configuration.
func NewStripeProvider(cfg *config.StripeConfig, frontend *config.FrontendConfig) service.PaymentProvider {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	p := &stripeProvider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
	}
	if frontend != nil {
		p.successURL = frontend.CheckoutSuccessURL
		p.cancelURL = frontend.CheckoutCancelURL
	}

	return p
}

func (p *stripeProvider) Name() entity.PaymentProvider {
	return entity.ProviderStripe
}

func (p *stripeProvider) CreateCheckout(ctx context.Context, intent *service.CheckoutIntent) (*service.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail:     stripe.String(intent.CustomerEmail),
		ClientReferenceID: stripe.String(intent.PaymentID.String()),
		SuccessURL:        stripe.String(p.successURL),
		CancelURL:         stripe.String(p.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(intent.Currency),
					UnitAmount: stripe.Int64(intent.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(intent.CourseTitle),
					},
				},
			},
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataPaymentID, intent.PaymentID.String())
	params.AddMetadata(metadataCourseID, intent.CourseID.String())
	params.AddMetadata(metadataEnrollType, string(intent.EnrollType))

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Stripe checkout session")
	}

	return &service.CheckoutSession{
		ProviderOrderID: sess.ID,
		RedirectURL:     sess.URL,
	}, nil
}

func (p *stripeProvider) VerifyWebhook(payload []byte, header http.Header, _ map[string]string) (*service.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, header.Get("Stripe-Signature"), p.webhookSecret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to verify Stripe webhook signature")
	}

	if event.Type != "checkout.session.completed" {
		// Authenticated but irrelevant; the caller treats this as a no-op.
		return &service.WebhookEvent{}, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, errors.Wrap(err, "failed to decode Stripe checkout session")
	}

	evt := &service.WebhookEvent{
		ProviderOrderID: sess.ID,
		Paid:            sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}
	if raw, ok := sess.Metadata[metadataPaymentID]; ok {
		if id, err := uuid.Parse(raw); err == nil {
			evt.PaymentID = id
		}
	}

	return evt, nil
}

func (p *stripeProvider) PollStatus(ctx context.Context, providerOrderID string) (bool, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.Get(providerOrderID, params)
	if err != nil {
		return false, errors.Wrap(err, "failed to fetch Stripe checkout session")
	}

	return sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid, nil
}
