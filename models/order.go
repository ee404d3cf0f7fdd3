package models

import (
	"time"

	"github.com/stripe/stripe-go/v79"
)

// Order 代表確認頁顯示的訂單，僅供顯示
type Order struct {
	ID               string          `json:"id"`
	SessionID        string          `json:"session_id"`
	Currency         stripe.Currency `json:"currency"`
	Lines            []CartLine      `json:"lines"`
	Summary          OrderSummary    `json:"summary"`
	Shipping         ShippingDetails `json:"shipping"`
	PaymentReference string          `json:"payment_reference"`
	PlacedAt         time.Time       `json:"placed_at"`
}
