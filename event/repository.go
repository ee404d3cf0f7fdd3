package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goflare.io/storefront/driver"
	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
)

var _ Repository = (*repository)(nil)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrEventExists   = errors.New("event already recorded")
)

// Repository is the log of storefront events seen by the consumer, used to
// skip redeliveries.
type Repository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	MarkAsProcessed(ctx context.Context, id string) error
}

type repository struct {
	conn   driver.PostgresPool
	logger *zap.Logger
}

func NewRepository(conn driver.PostgresPool, logger *zap.Logger) Repository {
	return &repository{
		conn:   conn,
		logger: logger,
	}
}

// Create records event as unprocessed. ErrEventExists is returned when the
// id was recorded before.
func (r *repository) Create(ctx context.Context, event *models.Event) error {
	tag, err := r.conn.Exec(ctx, `
		INSERT INTO storefront_events (id, type, session_id, data, processed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, string(event.Type), event.SessionID, []byte(event.Data), event.Processed, event.CreatedAt, event.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create event", zap.String("event_id", event.ID), zap.Error(err))
		return fmt.Errorf("failed to create event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEventExists
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	var (
		event     models.Event
		eventType string
		data      []byte
	)
	err := r.conn.QueryRow(ctx, `
		SELECT id, type, session_id, data, processed, created_at, updated_at
		FROM storefront_events WHERE id = $1`, id).
		Scan(&event.ID, &eventType, &event.SessionID, &data, &event.Processed, &event.CreatedAt, &event.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	event.Type = enum.EventType(eventType)
	event.Data = data
	return &event, nil
}

func (r *repository) MarkAsProcessed(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx,
		`UPDATE storefront_events SET processed = TRUE, updated_at = $2 WHERE id = $1`, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}
