package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"goflare.io/storefront/models"
)

var _ Catalog = (*FallbackCatalog)(nil)

const (
	breakerTripAfter = 5
	breakerOpenFor   = 30 * time.Second
)

// FallbackCatalog serves from primary and switches to secondary for any
// call the primary cannot answer because it is unavailable. Not-found
// answers from the primary are final. After repeated outages the primary
// is skipped until the breaker lets a probe through again.
type FallbackCatalog struct {
	primary   Catalog
	secondary Catalog
	breaker   *gobreaker.CircuitBreaker
	logger    *zap.Logger
}

func NewFallbackCatalog(primary, secondary Catalog, logger *zap.Logger) *FallbackCatalog {
	return &FallbackCatalog{
		primary:   primary,
		secondary: secondary,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "catalog",
			MaxRequests: 1,
			Timeout:     breakerOpenFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerTripAfter
			},
			// not found is an answer, not an outage
			IsSuccessful: func(err error) bool {
				return err == nil || !IsUnavailable(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Catalog breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}),
		logger: logger,
	}
}

func (c *FallbackCatalog) ListProducts(ctx context.Context) ([]models.Product, error) {
	return fallback(c, "list products", func(cat Catalog) ([]models.Product, error) {
		return cat.ListProducts(ctx)
	})
}

func (c *FallbackCatalog) GetProduct(ctx context.Context, id int) (models.Product, error) {
	return fallback(c, "get product", func(cat Catalog) (models.Product, error) {
		return cat.GetProduct(ctx, id)
	})
}

func (c *FallbackCatalog) ListCategories(ctx context.Context) ([]models.Category, error) {
	return fallback(c, "list categories", func(cat Catalog) ([]models.Category, error) {
		return cat.ListCategories(ctx)
	})
}

func (c *FallbackCatalog) ListProductsByCategory(ctx context.Context, category models.Category) ([]models.Product, error) {
	return fallback(c, "list products by category", func(cat Catalog) ([]models.Product, error) {
		return cat.ListProductsByCategory(ctx, category)
	})
}

func (c *FallbackCatalog) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	return fallback(c, "search products", func(cat Catalog) ([]models.Product, error) {
		return cat.SearchProducts(ctx, query)
	})
}

func fallback[T any](c *FallbackCatalog, op string, call func(Catalog) (T, error)) (T, error) {
	value, err := c.breaker.Execute(func() (interface{}, error) {
		return call(c.primary)
	})
	switch {
	case err == nil:
		return value.(T), nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.logger.Debug("Catalog breaker open, serving from fallback", zap.String("op", op))
		return call(c.secondary)
	case !IsUnavailable(err):
		var zero T
		return zero, err
	}

	c.logger.Warn("Primary catalog unavailable, serving from fallback", zap.String("op", op), zap.Error(err))
	return call(c.secondary)
}
