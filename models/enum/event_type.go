package enum

// EventType 表示 storefront 事件種類
type EventType string

const (
	EventTypeCartItemAdded       EventType = "cart.item_added"
	EventTypeCartItemRemoved     EventType = "cart.item_removed"
	EventTypeCartQuantityUpdated EventType = "cart.quantity_updated"
	EventTypeCartCleared         EventType = "cart.cleared"
	EventTypeCheckoutStarted     EventType = "checkout.started"
	EventTypeCheckoutRefused     EventType = "checkout.refused"
	EventTypeShippingSubmitted   EventType = "checkout.shipping_submitted"
	EventTypeOrderConfirmed      EventType = "checkout.order_confirmed"
	EventTypePaymentDeclined     EventType = "checkout.payment_declined"
	EventTypeCheckoutAbandoned   EventType = "checkout.abandoned"
)
