package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"goflare.io/storefront/models"
)

var _ Repository = (*repository)(nil)

var ErrOrderNotFound = errors.New("order not found")

// Repository keeps the confirmed order of a session so the confirmation
// can be shown again until the session expires.
type Repository interface {
	Save(ctx context.Context, order *models.Order) error
	GetLatest(ctx context.Context, sessionID string) (*models.Order, error)
}

type repository struct {
	conn   redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewRepository(conn redis.Cmdable, ttl time.Duration, logger *zap.Logger) Repository {
	return &repository{
		conn:   conn,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *repository) Save(ctx context.Context, order *models.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to encode order %s: %w", order.ID, err)
	}

	if err = r.conn.Set(ctx, latestKey(order.SessionID), payload, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save order", zap.String("order_id", order.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *repository) GetLatest(ctx context.Context, sessionID string) (*models.Order, error) {
	payload, err := r.conn.Get(ctx, latestKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get order", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	var order models.Order
	if err = json.Unmarshal(payload, &order); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}
	return &order, nil
}

func latestKey(sessionID string) string {
	return fmt.Sprintf("storefront:order:%s", sessionID)
}
