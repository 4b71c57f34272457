package payment

import (
	"log/slog"

	"go.uber.org/fx"

	"coursehub/config"
	"coursehub/internal/domain/entity"
	"coursehub/internal/domain/errors"
	"coursehub/internal/domain/service"
)

// Registry holds the configured payment providers keyed by name. Providers
// left unconfigured are simply absent; routing falls back to whichever
// remains.
type Registry struct {
	providers map[entity.PaymentProvider]service.PaymentProvider
}

// RegistryParams holds dependencies for the provider registry, injected by Fx
type RegistryParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// NewRegistry builds the registry from configuration.
func NewRegistry(params RegistryParams) service.ProviderRegistry {
	cfg := params.Config
	logger := params.Logger

	providers := make(map[entity.PaymentProvider]service.PaymentProvider)

	if cfg.Stripe != nil && cfg.Stripe.SecretKey != "" {
		providers[entity.ProviderStripe] = NewStripeProvider(cfg.Stripe, cfg.Frontend)
		logger.Info("Stripe payment provider enabled")
	}
	if cfg.Paymob != nil && cfg.Paymob.APIKey != "" {
		providers[entity.ProviderPaymob] = NewPaymobProvider(cfg.Paymob)
		logger.Info("Paymob payment provider enabled")
	}

	if len(providers) == 0 {
		logger.Warn("No payment provider configured, checkout will be unavailable")
	}

	return &Registry{providers: providers}
}

// Get returns the named provider.
func (r *Registry) Get(name entity.PaymentProvider) (service.PaymentProvider, error) {
	provider, ok := r.providers[name]
	if !ok {
		return nil, errors.ErrCheckoutFailed
	}

	return provider, nil
}

// Has reports whether the named provider is configured.
func (r *Registry) Has(name entity.PaymentProvider) bool {
	_, ok := r.providers[name]

	return ok
}

// Route picks the provider for a buyer's country. Egyptian buyers pay in
// EGP through Paymob when it is configured; everyone else pays in USD
// through Stripe. An unknown country routes to the default.
func (r *Registry) Route(countryCode string) (service.PaymentProvider, string, error) {
	if countryCode == "EG" && r.Has(entity.ProviderPaymob) {
		provider, err := r.Get(entity.ProviderPaymob)

		return provider, entity.CurrencyEGP, err
	}

	if r.Has(entity.ProviderStripe) {
		provider, err := r.Get(entity.ProviderStripe)

		return provider, entity.CurrencyUSD, err
	}

	// Stripe missing entirely; fall back to Paymob if that is all we have.
	if r.Has(entity.ProviderPaymob) {
		provider, err := r.Get(entity.ProviderPaymob)

		return provider, entity.CurrencyEGP, err
	}

	return nil, "", errors.ErrCheckoutFailed
}
