package cart

import (
	"github.com/shopspring/decimal"

	"goflare.io/storefront/models"
)

// Service is the cart surface consumed by the presentation layer and the
// checkout flow.
type Service interface {
	Add(product models.Product, quantity int) error
	Remove(productID int)
	UpdateQuantity(productID, quantity int)
	Clear()

	Count() int
	Total() decimal.Decimal
	Summary() models.OrderSummary
	Lines() []models.CartLine
	Line(productID int) (models.CartLine, bool)
	IsEmpty() bool
}
