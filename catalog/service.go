package catalog

import (
	"context"
	"errors"
	"fmt"

	"goflare.io/storefront/models"
)

var ErrNotFound = errors.New("product not found")

// Catalog is the read-only product source the storefront browses.
type Catalog interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int) (models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListProductsByCategory(ctx context.Context, category models.Category) ([]models.Product, error)
	// SearchProducts matches query case-insensitively against title,
	// description and category over the whole catalog.
	SearchProducts(ctx context.Context, query string) ([]models.Product, error)
}

// TransportError reports a failed exchange with a catalog backend.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog %s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err means the backend could not be reached
// or answered with a failure, as opposed to a missing product.
func IsUnavailable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func search(products []models.Product, query string) []models.Product {
	matched := make([]models.Product, 0, len(products))
	for i := range products {
		if products[i].Matches(query) {
			matched = append(matched, products[i])
		}
	}
	return matched
}
