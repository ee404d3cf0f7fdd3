package catalog

import (
	"github.com/shopspring/decimal"

	"goflare.io/storefront/models"
)

const (
	FeaturedLimit = 8
	RelatedLimit  = 4
)

// PriceRange bounds a product listing. Nil bounds are open.
type PriceRange struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// FilterByPrice keeps products with Min <= price <= Max, preserving order.
func FilterByPrice(products []models.Product, r PriceRange) []models.Product {
	filtered := make([]models.Product, 0, len(products))
	for i := range products {
		if products[i].InPriceRange(r.Min, r.Max) {
			filtered = append(filtered, products[i])
		}
	}
	return filtered
}

// Featured returns the first FeaturedLimit products.
func Featured(products []models.Product) []models.Product {
	n := min(len(products), FeaturedLimit)
	out := make([]models.Product, n)
	copy(out, products[:n])
	return out
}

// Related returns up to RelatedLimit other products sharing the category of
// product.
func Related(products []models.Product, product models.Product) []models.Product {
	related := make([]models.Product, 0, RelatedLimit)
	for i := range products {
		if products[i].ID == product.ID || products[i].Category != product.Category {
			continue
		}
		related = append(related, products[i])
		if len(related) == RelatedLimit {
			break
		}
	}
	return related
}
