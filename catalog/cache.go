package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"goflare.io/storefront/models"
)

var _ Catalog = (*CachedCatalog)(nil)

// CachedCatalog is a cache-aside decorator over another Catalog. Concurrent
// misses on the same key share one upstream call. Cache failures are logged
// and fall through to the upstream catalog.
type CachedCatalog struct {
	next   Catalog
	conn   redis.Cmdable
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

func NewCachedCatalog(next Catalog, conn redis.Cmdable, ttl time.Duration, logger *zap.Logger) *CachedCatalog {
	return &CachedCatalog{
		next:   next,
		conn:   conn,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedCatalog) ListProducts(ctx context.Context) ([]models.Product, error) {
	return cached(ctx, c, "storefront:catalog:products", c.next.ListProducts)
}

func (c *CachedCatalog) GetProduct(ctx context.Context, id int) (models.Product, error) {
	return cached(ctx, c, fmt.Sprintf("storefront:catalog:product:%d", id), func(ctx context.Context) (models.Product, error) {
		return c.next.GetProduct(ctx, id)
	})
}

func (c *CachedCatalog) ListCategories(ctx context.Context) ([]models.Category, error) {
	return cached(ctx, c, "storefront:catalog:categories", c.next.ListCategories)
}

func (c *CachedCatalog) ListProductsByCategory(ctx context.Context, category models.Category) ([]models.Product, error) {
	return cached(ctx, c, "storefront:catalog:category:"+category, func(ctx context.Context) ([]models.Product, error) {
		return c.next.ListProductsByCategory(ctx, category)
	})
}

// SearchProducts filters the cached full listing.
func (c *CachedCatalog) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	products, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return search(products, query), nil
}

// Invalidate drops every cached catalog entry, e.g. after a mirror sync.
func (c *CachedCatalog) Invalidate(ctx context.Context) error {
	iter := c.conn.Scan(ctx, 0, "storefront:catalog:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.conn.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("Failed to invalidate catalog cache", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	return iter.Err()
}

func cached[T any](ctx context.Context, c *CachedCatalog, key string, fetch func(context.Context) (T, error)) (T, error) {
	var value T

	// 嘗試從快取中獲取
	payload, err := c.conn.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if err = json.Unmarshal(payload, &value); err == nil {
			return value, nil
		}
		c.logger.Warn("Failed to decode cached catalog entry", zap.String("key", key), zap.Error(err))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("Failed to get catalog entry from cache", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		fresh, err := fetch(ctx)
		if err != nil {
			return fresh, err
		}

		// 更新快取
		if payload, err := json.Marshal(fresh); err == nil {
			if err = c.conn.Set(ctx, key, payload, c.ttl).Err(); err != nil {
				c.logger.Warn("Failed to cache catalog entry", zap.String("key", key), zap.Error(err))
			}
		}
		return fresh, nil
	})
	if err != nil {
		return value, err
	}
	return v.(T), nil
}
