package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "STOREFRONT"

// Config is read from STOREFRONT_* environment variables. Nested groups add
// their own segment, e.g. STOREFRONT_CATALOG_BASE_URL or STOREFRONT_REDIS_ADDR.
type Config struct {
	Env      string `envconfig:"ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	Catalog  Catalog
	Checkout Checkout
	Postgres Postgres
	Redis    Redis
	NATS     NATS
	Session  Session
	Workers  int `envconfig:"WORKERS" default:"10"`
}

type Catalog struct {
	BaseURL  string        `envconfig:"BASE_URL" default:"https://fakestoreapi.com"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"10s"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"5m"`
}

type Checkout struct {
	PaymentLatency time.Duration `envconfig:"PAYMENT_LATENCY" default:"1500ms"`
	Currency       string        `envconfig:"CURRENCY" default:"usd"`
}

// Postgres is optional; without a DSN the catalog mirror and event log are
// disabled.
type Postgres struct {
	DSN string `envconfig:"DSN"`
}

// Redis is optional; without an address carts are not snapshotted and the
// catalog is not cached.
type Redis struct {
	Addr     string `envconfig:"ADDR"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

// NATS is optional; without a URL events are not published.
type NATS struct {
	URL string `envconfig:"URL"`
}

type Session struct {
	TTL time.Duration `envconfig:"TTL" default:"24h"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Catalog.Timeout <= 0 {
		return fmt.Errorf("invalid config: catalog timeout must be positive, got %s", c.Catalog.Timeout)
	}
	if c.Checkout.PaymentLatency < 0 {
		return fmt.Errorf("invalid config: payment latency must not be negative, got %s", c.Checkout.PaymentLatency)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("invalid config: session ttl must be positive, got %s", c.Session.TTL)
	}
	if c.Workers < 1 {
		return fmt.Errorf("invalid config: workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
