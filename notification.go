package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"goflare.io/storefront/event"
	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
)

// Notifier shows a notification to the visitor.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

type NotifierFunc func(ctx context.Context, n models.Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n models.Notification) error {
	return f(ctx, n)
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, note models.Notification) error {
	n.logger.Info(note.Message,
		zap.String("session_id", note.SessionID),
		zap.String("level", string(note.Level)),
		zap.String("event_id", note.EventID))
	return nil
}

// Consumer turns storefront events into visitor notifications.
type Consumer struct {
	manager  *EventManager
	pool     *WorkerPool
	notifier Notifier
	logger   *zap.Logger
}

// NewConsumer registers the notification handlers on manager and starts
// consuming on a pool of the given size. events may be nil, in which case
// redeliveries are not detected.
func NewConsumer(manager *EventManager, events event.Repository, notifier Notifier, workers int, logger *zap.Logger) (*Consumer, error) {
	c := &Consumer{
		manager:  manager,
		notifier: notifier,
		logger:   logger,
	}
	c.registerEventHandlers()

	c.pool = NewWorkerPool(workers, &eventProcessor{
		manager: manager,
		events:  events,
		logger:  logger,
	}, logger)

	// 訂閱事件
	if err := manager.SubscribeToEvents(c.pool); err != nil {
		c.pool.Shutdown()
		return nil, err
	}
	return c, nil
}

// Close stops the subscription and drains queued events.
func (c *Consumer) Close() {
	c.manager.Unsubscribe()
	c.pool.Shutdown()
}

func (c *Consumer) registerEventHandlers() {
	eventHandlers := map[enum.EventType]EventHandler{
		// Cart Events
		enum.EventTypeCartItemAdded:   c.handleCartItemAdded,
		enum.EventTypeCartItemRemoved: c.handleCartItemRemoved,
		enum.EventTypeCartCleared:     c.handleCartCleared,

		// Checkout Events
		enum.EventTypeCheckoutRefused: c.handleCheckoutRefused,
		enum.EventTypeOrderConfirmed:  c.handleOrderConfirmed,
		enum.EventTypePaymentDeclined: c.handlePaymentDeclined,
	}

	for eventType, handler := range eventHandlers {
		c.manager.RegisterHandler(eventType, handler)
	}
}

func (c *Consumer) handleCartItemAdded(ctx context.Context, e *models.Event) error {
	var data models.CartEventData
	if err := decodeEventData(e, &data); err != nil {
		return err
	}
	return c.notify(ctx, e, models.NotificationSuccess, fmt.Sprintf("%s added to cart", data.Title))
}

func (c *Consumer) handleCartItemRemoved(ctx context.Context, e *models.Event) error {
	var data models.CartEventData
	if err := decodeEventData(e, &data); err != nil {
		return err
	}
	return c.notify(ctx, e, models.NotificationInfo, fmt.Sprintf("%s removed from cart", data.Title))
}

func (c *Consumer) handleCartCleared(ctx context.Context, e *models.Event) error {
	var data models.CartEventData
	if err := decodeEventData(e, &data); err != nil {
		return err
	}
	// 結帳成功已有訂單通知
	if data.Checkout {
		return nil
	}
	return c.notify(ctx, e, models.NotificationInfo, "Cart cleared")
}

func (c *Consumer) handleCheckoutRefused(ctx context.Context, e *models.Event) error {
	return c.notify(ctx, e, models.NotificationError, "Your cart is empty. Add items before checkout.")
}

func (c *Consumer) handleOrderConfirmed(ctx context.Context, e *models.Event) error {
	var data models.CheckoutEventData
	if err := decodeEventData(e, &data); err != nil {
		return err
	}
	message := fmt.Sprintf("Order %s placed. A confirmation email has been sent to %s", data.OrderID, data.Email)
	return c.notify(ctx, e, models.NotificationSuccess, message)
}

func (c *Consumer) handlePaymentDeclined(ctx context.Context, e *models.Event) error {
	var data models.CheckoutEventData
	if err := decodeEventData(e, &data); err != nil {
		return err
	}
	return c.notify(ctx, e, models.NotificationError, "Payment declined: "+data.Reason)
}

func (c *Consumer) notify(ctx context.Context, e *models.Event, level models.NotificationLevel, message string) error {
	return c.notifier.Notify(ctx, models.Notification{
		SessionID: e.SessionID,
		EventID:   e.ID,
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

func decodeEventData(e *models.Event, out any) error {
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s event data: %w", e.Type, err)
	}
	return nil
}
