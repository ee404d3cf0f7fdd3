package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"goflare.io/storefront/models"
)

type fakeRedis struct {
	redis.Cmdable

	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (r *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return redis.NewStringResult("", r.getErr)
	}
	value, ok := r.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(value), nil)
}

func (r *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := value.([]byte)
	if !ok {
		return redis.NewStatusResult("", errors.New("unsupported value type"))
	}
	r.data[key] = v
	r.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (r *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := r.data[key]; ok {
			delete(r.data, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRepository_SaveLoadDelete(t *testing.T) {
	conn := newFakeRedis()
	repo := NewRepository(conn, time.Hour, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := repo.Load(ctx, "s-1")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	lines := []models.CartLine{
		{Product: models.Product{ID: 1, Title: "Backpack", Price: decimal.RequireFromString("19.99")}, Quantity: 2},
		{Product: models.Product{ID: 2, Title: "Tee", Price: decimal.RequireFromString("5.00")}, Quantity: 1},
	}
	require.NoError(t, repo.Save(ctx, "s-1", lines))
	assert.Equal(t, time.Hour, conn.ttls["storefront:cart:s-1"])

	loaded, err := repo.Load(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Backpack", loaded[0].Product.Title)
	assert.Equal(t, 2, loaded[0].Quantity)
	assert.True(t, loaded[0].Product.Price.Equal(decimal.RequireFromString("19.99")))

	require.NoError(t, repo.Delete(ctx, "s-1"))
	_, err = repo.Load(ctx, "s-1")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestRepository_LoadErrors(t *testing.T) {
	conn := newFakeRedis()
	repo := NewRepository(conn, time.Hour, zaptest.NewLogger(t))
	ctx := context.Background()

	conn.data["storefront:cart:broken"] = []byte("{not json")
	_, err := repo.Load(ctx, "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSnapshotNotFound)

	conn.getErr = errors.New("connection refused")
	_, err = repo.Load(ctx, "s-1")
	assert.EqualError(t, err, "connection refused")
}
