package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product 代表目錄中的商品，由遠端目錄 API 提供，核心只讀
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Image       string          `json:"image"`
	Rating      Rating          `json:"rating"`
}

// Rating 商品評分
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Category 商品分類標籤
type Category = string

// Matches reports whether query is a case-insensitive substring of the
// title, description or category.
func (p *Product) Matches(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Description), q) ||
		strings.Contains(strings.ToLower(p.Category), q)
}

// InPriceRange reports min <= price <= max. A nil bound is open.
func (p *Product) InPriceRange(min, max *decimal.Decimal) bool {
	if min != nil && p.Price.LessThan(*min) {
		return false
	}
	if max != nil && p.Price.GreaterThan(*max) {
		return false
	}
	return true
}
