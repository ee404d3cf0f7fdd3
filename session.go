package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"goflare.io/storefront/cart"
	"goflare.io/storefront/checkout"
	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
	"goflare.io/storefront/order"
)

// sideEffectTimeout bounds snapshot writes and event publishing triggered by
// a cart change.
const sideEffectTimeout = 3 * time.Second

var ErrSessionClosed = errors.New("session closed")

// Session is one visitor's storefront state: a cart and at most one active
// checkout.
type Session struct {
	id   string
	cart *cart.Store
	svc  *service

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	flow *checkout.Flow

	// persistMu orders snapshot writes so the last one wins.
	persistMu sync.Mutex

	logger *zap.Logger
}

func newSession(id string, store *cart.Store, svc *service) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		id:     id,
		cart:   store,
		svc:    svc,
		ctx:    ctx,
		cancel: cancel,
		logger: svc.logger.With(zap.String("session_id", id)),
	}
	store.Subscribe(sess.onCartChange)
	return sess
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Cart() cart.Service {
	return s.cart
}

// AddToCart looks the product up in the catalog and adds it. Catalog
// failures leave the cart untouched.
func (s *Session) AddToCart(ctx context.Context, productID, quantity int) error {
	if s.ctx.Err() != nil {
		return ErrSessionClosed
	}

	product, err := s.svc.catalog.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to get product %d: %w", productID, err)
	}
	return s.cart.Add(product, quantity)
}

// StartCheckout opens a new checkout over the session cart, abandoning any
// checkout still in progress. An empty cart is refused with
// checkout.ErrEmptyCart.
func (s *Session) StartCheckout() (*checkout.Flow, error) {
	if s.ctx.Err() != nil {
		return nil, ErrSessionClosed
	}

	// 持鎖完成替換，確保同時只有一個進行中的結帳
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.flow != nil {
		s.flow.Abandon()
		s.flow = nil
	}

	flow, err := checkout.Start(s.ctx, s.cart, s.svc.checkoutOptions(s)...)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			s.publish(enum.EventTypeCheckoutRefused, models.CheckoutEventData{Reason: err.Error()})
		}
		return nil, err
	}
	s.flow = flow
	return flow, nil
}

// Checkout returns the checkout started last, if any.
func (s *Session) Checkout() (*checkout.Flow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow, s.flow != nil
}

// Close abandons the active checkout and releases the session. The saved
// cart snapshot is kept until it expires.
func (s *Session) Close() {
	s.mu.Lock()
	flow := s.flow
	s.mu.Unlock()
	if flow != nil {
		flow.Abandon()
	}

	s.cancel()
	s.svc.forget(s.id)
	s.logger.Info("Session closed")
}

func (s *Session) onCartChange(change cart.Change) {
	s.persist()

	var eventType enum.EventType
	switch change.Type {
	case enum.CartChangeAdded:
		eventType = enum.EventTypeCartItemAdded
	case enum.CartChangeRemoved:
		eventType = enum.EventTypeCartItemRemoved
	case enum.CartChangeUpdated:
		eventType = enum.EventTypeCartQuantityUpdated
	case enum.CartChangeCleared:
		eventType = enum.EventTypeCartCleared
	default:
		return
	}
	data := models.CartEventData{
		ProductID: change.ProductID,
		Title:     change.Title,
		Quantity:  change.Quantity,
		Count:     change.Count(),
	}
	if change.Type == enum.CartChangeCleared {
		if flow, ok := s.Checkout(); ok && flow.Step() == enum.CheckoutStepConfirmation {
			data.Checkout = true
		}
	}
	s.publish(eventType, data)
}

// LastOrder returns the order confirmed in this session, preferring the
// active checkout and then the saved copy.
func (s *Session) LastOrder(ctx context.Context) (models.Order, error) {
	if flow, ok := s.Checkout(); ok {
		if confirmed, ok := flow.Order(); ok {
			return confirmed, nil
		}
	}
	if s.svc.orders == nil {
		return models.Order{}, order.ErrOrderNotFound
	}

	saved, err := s.svc.orders.GetLatest(ctx, s.id)
	if err != nil {
		return models.Order{}, err
	}
	return *saved, nil
}

func (s *Session) onTransition(t checkout.Transition) {
	if t.Order != nil && s.svc.orders != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		if err := s.svc.orders.Save(ctx, t.Order); err != nil {
			s.logger.Warn("Failed to save confirmed order", zap.String("order_id", t.Order.ID), zap.Error(err))
		}
		cancel()
	}

	data := models.CheckoutEventData{
		Email:  t.Shipping.Email,
		Reason: t.Reason,
	}
	if t.Order != nil {
		data.OrderID = t.Order.ID
		data.Total = models.FormatPrice(t.Order.Summary.Total)
	}
	s.publish(t.Event, data)
}

// persist saves the current cart, not the change's snapshot, so racing
// listeners cannot leave a stale snapshot behind.
func (s *Session) persist() {
	if s.svc.carts == nil {
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	lines := s.cart.Lines()
	var err error
	if len(lines) == 0 {
		err = s.svc.carts.Delete(ctx, s.id)
	} else {
		err = s.svc.carts.Save(ctx, s.id, lines)
	}
	if err != nil {
		s.logger.Warn("Failed to persist cart snapshot", zap.Error(err))
	}
}

func (s *Session) publish(eventType enum.EventType, data any) {
	if s.svc.publisher == nil {
		return
	}

	event, err := models.NewEvent(eventType, s.id, data, time.Now())
	if err != nil {
		s.logger.Error("Failed to build event", zap.String("event_type", string(eventType)), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	if err = s.svc.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("event_type", string(eventType)),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}
