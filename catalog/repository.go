package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"goflare.io/storefront/driver"
	"goflare.io/storefront/models"
)

var (
	_ Repository = (*repository)(nil)
	_ Catalog    = (*repository)(nil)
)

// Repository is the Postgres mirror of the remote catalog. It answers the
// Catalog queries and is refreshed wholesale by ReplaceAll.
type Repository interface {
	Catalog
	ReplaceAll(ctx context.Context, tx pgx.Tx, products []models.Product, categories []models.Category) error
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

const productColumns = `id, title, price::text, description, category, image, rating_rate, rating_count`

func (r *repository) ListProducts(ctx context.Context) ([]models.Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM catalog_products ORDER BY id`)
}

func (r *repository) GetProduct(ctx context.Context, id int) (models.Product, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+productColumns+` FROM catalog_products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get product", zap.Int("product_id", id), zap.Error(err))
		return models.Product{}, &TransportError{Op: "get product", Err: err}
	}
	return product, nil
}

func (r *repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.conn.Query(ctx, `SELECT name FROM catalog_categories ORDER BY position`)
	if err != nil {
		r.logger.Error("Failed to list categories", zap.Error(err))
		return nil, &TransportError{Op: "list categories", Err: err}
	}

	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, &TransportError{Op: "list categories", Err: err}
	}
	return categories, nil
}

func (r *repository) ListProductsByCategory(ctx context.Context, category models.Category) ([]models.Product, error) {
	return r.queryProducts(ctx,
		`SELECT `+productColumns+` FROM catalog_products WHERE category = $1 ORDER BY id`, category)
}

func (r *repository) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	return r.queryProducts(ctx, `
		SELECT `+productColumns+` FROM catalog_products
		WHERE strpos(lower(title), lower($1)) > 0
		   OR strpos(lower(description), lower($1)) > 0
		   OR strpos(lower(category), lower($1)) > 0
		ORDER BY id`, query)
}

// ReplaceAll swaps the mirrored catalog for the given snapshot inside tx.
func (r *repository) ReplaceAll(ctx context.Context, tx pgx.Tx, products []models.Product, categories []models.Category) error {
	// 1. 清空舊資料
	if _, err := tx.Exec(ctx, `DELETE FROM catalog_products`); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM catalog_categories`); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}

	// 2. 批次寫入
	batch := &pgx.Batch{}
	for position, name := range categories {
		batch.Queue(`INSERT INTO catalog_categories (name, position) VALUES ($1, $2)`, name, position)
	}
	for _, p := range products {
		batch.Queue(`
			INSERT INTO catalog_products (id, title, price, description, category, image, rating_rate, rating_count, synced_at)
			VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, now())`,
			p.ID, p.Title, p.Price.String(), p.Description, p.Category, p.Image, p.Rating.Rate, p.Rating.Count)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to write catalog row %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close catalog batch: %w", err)
	}

	r.logger.Info("Catalog mirror replaced",
		zap.Int("products", len(products)),
		zap.Int("categories", len(categories)))
	return nil
}

func (r *repository) queryProducts(ctx context.Context, sql string, args ...any) ([]models.Product, error) {
	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		r.logger.Error("Failed to query products", zap.Error(err))
		return nil, &TransportError{Op: "query products", Err: err}
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, &TransportError{Op: "scan product", Err: err}
		}
		products = append(products, product)
	}
	if err = rows.Err(); err != nil {
		return nil, &TransportError{Op: "query products", Err: err}
	}
	return products, nil
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var (
		p     models.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Title, &price, &p.Description, &p.Category, &p.Image, &p.Rating.Rate, &p.Rating.Count); err != nil {
		return models.Product{}, err
	}

	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return models.Product{}, fmt.Errorf("invalid price %q: %w", price, err)
	}
	p.Price = parsed
	return p, nil
}
