package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"goflare.io/storefront"
	"goflare.io/storefront/cart"
	"goflare.io/storefront/catalog"
	"goflare.io/storefront/config"
	"goflare.io/storefront/driver"
	"goflare.io/storefront/event"
	"goflare.io/storefront/order"
)

// app holds the connections and services one command runs with. Postgres,
// Redis and NATS are each optional.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	pool      *pgxpool.Pool
	redisConn *redis.Client
	natsConn  *nats.Conn

	remote   *catalog.Client
	cache    *catalog.CachedCatalog
	catalog  catalog.Catalog
	consumer *storefront.Consumer
	svc      storefront.Service
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	if err := a.connect(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) connect(ctx context.Context) (err error) {
	cfg, logger := a.cfg, a.logger

	if cfg.Postgres.DSN != "" {
		if a.pool, err = driver.ConnectSQL(ctx, cfg.Postgres.DSN); err != nil {
			return err
		}
	}
	if cfg.Redis.Addr != "" {
		if a.redisConn, err = driver.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger); err != nil {
			return err
		}
	}
	if cfg.NATS.URL != "" {
		if a.natsConn, err = driver.ConnectNATS(cfg.NATS.URL, "storefront", logger); err != nil {
			return err
		}
	}

	// 目錄來源：遠端 API -> Postgres 鏡像備援 -> Redis 快取
	a.remote = catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, logger)
	a.catalog = a.remote
	if a.pool != nil {
		a.catalog = catalog.NewFallbackCatalog(a.catalog, catalog.NewRepository(a.pool, logger), logger)
	}
	if a.redisConn != nil {
		a.cache = catalog.NewCachedCatalog(a.catalog, a.redisConn, cfg.Catalog.CacheTTL, logger)
		a.catalog = a.cache
	}

	opts := []storefront.Option{
		storefront.WithPaymentLatency(cfg.Checkout.PaymentLatency),
		storefront.WithCurrency(stripe.Currency(cfg.Checkout.Currency)),
	}
	if a.redisConn != nil {
		opts = append(opts,
			storefront.WithCartRepository(cart.NewRepository(a.redisConn, cfg.Session.TTL, logger)),
			storefront.WithOrderRepository(order.NewRepository(a.redisConn, cfg.Session.TTL, logger)))
	}
	if a.natsConn != nil {
		manager := storefront.NewEventManager(a.natsConn, logger)

		var events event.Repository
		if a.pool != nil {
			events = event.NewRepository(a.pool, logger)
		}
		if a.consumer, err = storefront.NewConsumer(manager, events, storefront.NewLogNotifier(logger), cfg.Workers, logger); err != nil {
			return fmt.Errorf("failed to start notification consumer: %w", err)
		}
		opts = append(opts, storefront.WithPublisher(manager))
	}

	a.svc = storefront.NewService(a.catalog, logger, opts...)
	return nil
}

func (a *app) close() {
	if a.svc != nil {
		a.svc.Close()
	}
	if a.natsConn != nil {
		if err := a.natsConn.Flush(); err != nil {
			a.logger.Warn("Failed to flush nats connection", zap.Error(err))
		}
	}
	if a.consumer != nil {
		a.consumer.Close()
	}
	if a.natsConn != nil {
		a.natsConn.Close()
	}
	if a.redisConn != nil {
		if err := a.redisConn.Close(); err != nil {
			a.logger.Warn("Failed to close redis connection", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
