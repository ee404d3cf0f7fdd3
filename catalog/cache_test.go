package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCachedCatalog_CacheAside(t *testing.T) {
	upstream := newFakeCatalog(sampleProducts())
	rdb := newFakeRedis()
	c := NewCachedCatalog(upstream, rdb, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	first, err := c.ListProducts(ctx)
	require.NoError(t, err)
	second, err := c.ListProducts(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, upstream.count("ListProducts"))
	assert.True(t, rdb.has("storefront:catalog:products"))
	assert.Equal(t, ids(first), ids(second))
	assert.True(t, first[0].Price.Equal(second[0].Price))

	// search is served from the cached listing
	found, err := c.SearchProducts(ctx, "gold")
	require.NoError(t, err)
	assert.Equal(t, []int{6, 7, 8}, ids(found))
	assert.Equal(t, 1, upstream.count("ListProducts"))
	assert.Zero(t, upstream.count("SearchProducts"))

	p, err := c.GetProduct(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Dragon Bracelet", p.Title)
	_, err = c.GetProduct(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, upstream.count("GetProduct"))

	_, err = c.ListProductsByCategory(ctx, "jewelery")
	require.NoError(t, err)
	assert.True(t, rdb.has("storefront:catalog:category:jewelery"))
}

func TestCachedCatalog_NotFoundIsNotCached(t *testing.T) {
	upstream := newFakeCatalog(sampleProducts())
	rdb := newFakeRedis()
	c := NewCachedCatalog(upstream, rdb, time.Minute, zaptest.NewLogger(t))

	_, err := c.GetProduct(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.GetProduct(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 2, upstream.count("GetProduct"))
	assert.False(t, rdb.has("storefront:catalog:product:404"))
}

func TestCachedCatalog_RedisFailureFallsThrough(t *testing.T) {
	upstream := newFakeCatalog(sampleProducts())
	rdb := newFakeRedis()
	rdb.getErr = errors.New("connection refused")
	rdb.setErr = errors.New("connection refused")
	c := NewCachedCatalog(upstream, rdb, time.Minute, zaptest.NewLogger(t))

	categories, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 3)

	_, err = c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.count("ListCategories"))
}

func TestCachedCatalog_UpstreamError(t *testing.T) {
	upstream := newFakeCatalog(nil)
	upstream.err = &TransportError{Op: "list products", StatusCode: 503}
	c := NewCachedCatalog(upstream, newFakeRedis(), time.Minute, zaptest.NewLogger(t))

	_, err := c.ListProducts(context.Background())
	assert.True(t, IsUnavailable(err))
}
