package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"goflare.io/storefront/models"
)

// Transactor runs fn inside one database transaction.
type Transactor interface {
	ExecuteTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type SyncResult struct {
	Products   int
	Categories int
	Duration   time.Duration
}

// Syncer copies the remote catalog into the Postgres mirror.
type Syncer struct {
	source Catalog
	mirror Repository
	tm     Transactor
	logger *zap.Logger
}

func NewSyncer(source Catalog, mirror Repository, tm Transactor, logger *zap.Logger) *Syncer {
	return &Syncer{
		source: source,
		mirror: mirror,
		tm:     tm,
		logger: logger,
	}
}

// Sync fetches products and categories concurrently and replaces the mirror
// in a single transaction. The mirror is left untouched when any fetch
// fails.
func (s *Syncer) Sync(ctx context.Context) (SyncResult, error) {
	started := time.Now()

	var (
		products   []models.Product
		categories []models.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if products, err = s.source.ListProducts(gctx); err != nil {
			return fmt.Errorf("failed to fetch products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if categories, err = s.source.ListCategories(gctx); err != nil {
			return fmt.Errorf("failed to fetch categories: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Catalog sync aborted", zap.Error(err))
		return SyncResult{}, err
	}

	if err := s.tm.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.mirror.ReplaceAll(ctx, tx, products, categories)
	}); err != nil {
		s.logger.Error("Failed to replace catalog mirror", zap.Error(err))
		return SyncResult{}, fmt.Errorf("failed to replace catalog mirror: %w", err)
	}

	result := SyncResult{
		Products:   len(products),
		Categories: len(categories),
		Duration:   time.Since(started),
	}
	s.logger.Info("Catalog synced",
		zap.Int("products", result.Products),
		zap.Int("categories", result.Categories),
		zap.Duration("duration", result.Duration))
	return result, nil
}
