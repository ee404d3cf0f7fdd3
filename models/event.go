package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"goflare.io/storefront/models/enum"
)

// Event 代表 storefront 發出的事件
type Event struct {
	ID        string          `json:"id"`
	Type      enum.EventType  `json:"type"`
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Processed bool            `json:"processed"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewEvent 建立新事件，data 以 JSON 編碼
func NewEvent(eventType enum.EventType, sessionID string, data any, now time.Time) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: sessionID,
		Data:      payload,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CartEventData cart.* 事件內容
type CartEventData struct {
	ProductID int    `json:"product_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
	Count     int    `json:"count"`
	// Checkout 為 true 表示由結帳完成清空
	Checkout bool `json:"checkout,omitempty"`
}

// CheckoutEventData checkout.* 事件內容
type CheckoutEventData struct {
	OrderID string `json:"order_id,omitempty"`
	Email   string `json:"email,omitempty"`
	Total   string `json:"total,omitempty"`
	Reason  string `json:"reason,omitempty"`
}
