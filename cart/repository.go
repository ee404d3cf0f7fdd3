package cart

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

var ErrSnapshotNotFound = errors.New("cart snapshot not found")

// Repository keeps a session-scoped copy of the cart lines. Entries expire
// with the session.
type Repository interface {
	Save(ctx context.Context, sessionID string, lines []models.CartLine) error
	Load(ctx context.Context, sessionID string) ([]models.CartLine, error)
	Delete(ctx context.Context, sessionID string) error
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

func (r *repository) Save(ctx context.Context, sessionID string, lines []models.CartLine) error {
	payload, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}

	if err = r.conn.Set(ctx, snapshotKey(sessionID), payload, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save cart snapshot", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}
	return nil
}

func (r *repository) Load(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	payload, err := r.conn.Get(ctx, snapshotKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		r.logger.Error("Failed to load cart snapshot", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	var lines []models.CartLine
	if err = json.Unmarshal(payload, &lines); err != nil {
		return nil, fmt.Errorf("failed to decode cart snapshot: %w", err)
	}
	return lines, nil
}

func (r *repository) Delete(ctx context.Context, sessionID string) error {
	return r.conn.Del(ctx, snapshotKey(sessionID)).Err()
}

func snapshotKey(sessionID string) string {
	return fmt.Sprintf("storefront:cart:%s", sessionID)
}
