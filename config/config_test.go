package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "https://fakestoreapi.com", cfg.Catalog.BaseURL)
	assert.Equal(t, 1500*time.Millisecond, cfg.Checkout.PaymentLatency)
	assert.Equal(t, "usd", cfg.Checkout.Currency)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 10, cfg.Workers)
	assert.Empty(t, cfg.Postgres.DSN)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STOREFRONT_ENV", "production")
	t.Setenv("STOREFRONT_CATALOG_BASE_URL", "http://catalog.internal")
	t.Setenv("STOREFRONT_CATALOG_CACHE_TTL", "30s")
	t.Setenv("STOREFRONT_CHECKOUT_PAYMENT_LATENCY", "0s")
	t.Setenv("STOREFRONT_POSTGRES_DSN", "postgres://shop@localhost/shop")
	t.Setenv("STOREFRONT_REDIS_ADDR", "localhost:6379")
	t.Setenv("STOREFRONT_REDIS_DB", "2")
	t.Setenv("STOREFRONT_NATS_URL", "nats://localhost:4222")
	t.Setenv("STOREFRONT_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "http://catalog.internal", cfg.Catalog.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Catalog.CacheTTL)
	assert.Zero(t, cfg.Checkout.PaymentLatency)
	assert.Equal(t, "postgres://shop@localhost/shop", cfg.Postgres.DSN)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("workers", func(t *testing.T) {
		t.Setenv("STOREFRONT_WORKERS", "0")
		_, err := Load()
		assert.ErrorContains(t, err, "workers")
	})

	t.Run("duration", func(t *testing.T) {
		t.Setenv("STOREFRONT_SESSION_TTL", "soon")
		_, err := Load()
		assert.Error(t, err)
	})
}
