package models

import (
	"github.com/shopspring/decimal"
)

// CartLine 代表購物車中的單個商品項目
type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

func NewCartLine(product Product, quantity int) CartLine {
	return CartLine{
		Product:  product,
		Quantity: quantity,
	}
}

// Subtotal is price × quantity, exact.
func (l CartLine) Subtotal() decimal.Decimal {
	return LineTotal(l.Price, l.Quantity)
}

// OrderSummary 訂單金額摘要
type OrderSummary struct {
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Summarize builds the order summary for the given lines. Shipping is free.
func Summarize(lines []CartLine) OrderSummary {
	count := 0
	subtotal := decimal.Zero
	for _, line := range lines {
		count += line.Quantity
		subtotal = subtotal.Add(line.Subtotal())
	}

	tax := Tax(subtotal)
	return OrderSummary{
		Count:    count,
		Subtotal: subtotal,
		Shipping: decimal.Zero,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

func CloneLines(src []CartLine) []CartLine {
	if len(src) == 0 {
		return []CartLine{}
	}
	dst := make([]CartLine, len(src))
	copy(dst, src)
	return dst
}
