package payment

import (
	"io"
	"log/slog"
	"testing"

	"coursehub/config"
	"coursehub/internal/domain/entity"
	"coursehub/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(stripe, paymob bool) service.ProviderRegistry {
	cfg := &config.Config{}
	if stripe {
		cfg.Stripe = &config.StripeConfig{SecretKey: "sk_test_123"}
	}
	if paymob {
		cfg.Paymob = &config.PaymobConfig{APIKey: "paymob-key", IntegrationID: 1, IframeID: 1}
	}

	return NewRegistry(RegistryParams{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestRegistry_RouteEgyptPrefersPaymob(t *testing.T) {
	registry := newTestRegistry(true, true)

	provider, currency, err := registry.Route("EG")
	require.NoError(t, err)
	assert.Equal(t, entity.ProviderPaymob, provider.Name())
	assert.Equal(t, entity.CurrencyEGP, currency)
}

func TestRegistry_RouteDefaultsToStripe(t *testing.T) {
	registry := newTestRegistry(true, true)

	for _, countryCode := range []string{"US", "DE", ""} {
		provider, currency, err := registry.Route(countryCode)
		require.NoError(t, err)
		assert.Equal(t, entity.ProviderStripe, provider.Name(), countryCode)
		assert.Equal(t, entity.CurrencyUSD, currency, countryCode)
	}
}

func TestRegistry_RouteEgyptWithoutPaymobFallsBackToStripe(t *testing.T) {
	registry := newTestRegistry(true, false)

	provider, currency, err := registry.Route("EG")
	require.NoError(t, err)
	assert.Equal(t, entity.ProviderStripe, provider.Name())
	assert.Equal(t, entity.CurrencyUSD, currency)
}

func TestRegistry_RoutePaymobOnly(t *testing.T) {
	registry := newTestRegistry(false, true)

	provider, currency, err := registry.Route("US")
	require.NoError(t, err)
	assert.Equal(t, entity.ProviderPaymob, provider.Name())
	assert.Equal(t, entity.CurrencyEGP, currency)
}

func TestRegistry_NoProvidersConfigured(t *testing.T) {
	registry := newTestRegistry(false, false)

	_, _, err := registry.Route("US")
	assert.Error(t, err)

	_, err = registry.Get(entity.ProviderStripe)
	assert.Error(t, err)
}

func TestRegistry_GetReturnsConfiguredProvider(t *testing.T) {
	registry := newTestRegistry(true, true)

	provider, err := registry.Get(entity.ProviderPaymob)
	require.NoError(t, err)
	assert.Equal(t, entity.ProviderPaymob, provider.Name())
}
