package storefront

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"goflare.io/storefront/catalog"
	"goflare.io/storefront/models"
)

// ProductQuery selects a product listing. A non-blank Search ignores
// Category. The price range applies to either listing.
type ProductQuery struct {
	Search   string
	Category models.Category
	Price    catalog.PriceRange
}

func (s *service) Browse(ctx context.Context, query ProductQuery) ([]models.Product, error) {
	var (
		products []models.Product
		err      error
	)

	search := strings.TrimSpace(query.Search)
	switch {
	case search != "":
		products, err = s.catalog.SearchProducts(ctx, search)
	case query.Category != "":
		products, err = s.catalog.ListProductsByCategory(ctx, query.Category)
	default:
		products, err = s.catalog.ListProducts(ctx)
	}
	if err != nil {
		s.logger.Warn("Failed to browse catalog",
			zap.String("search", search),
			zap.String("category", query.Category),
			zap.Error(err))
		return nil, fmt.Errorf("failed to browse catalog: %w", err)
	}

	return catalog.FilterByPrice(products, query.Price), nil
}

func (s *service) FeaturedProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	return catalog.Featured(products), nil
}

// ProductDetail returns the product and up to four others from its
// category. A failure to load the related products is logged and yields an
// empty list.
func (s *service) ProductDetail(ctx context.Context, id int) (models.Product, []models.Product, error) {
	product, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, nil, err
	}

	siblings, err := s.catalog.ListProductsByCategory(ctx, product.Category)
	if err != nil {
		s.logger.Warn("Failed to load related products", zap.Int("product_id", id), zap.Error(err))
		return product, []models.Product{}, nil
	}
	return product, catalog.Related(siblings, product), nil
}

func (s *service) Categories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
