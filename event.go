package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"goflare.io/storefront/event"
	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
)

const eventSubjectPrefix = "storefront.event."

// Conn is the part of *nats.Conn the event manager uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

var _ Conn = (*nats.Conn)(nil)

type EventHandler func(context.Context, *models.Event) error

var _ Publisher = (*EventManager)(nil)

// EventManager publishes storefront events on NATS and dispatches received
// ones to registered handlers.
type EventManager struct {
	natsConn Conn

	mu       sync.RWMutex
	handlers map[enum.EventType]EventHandler
	subs     []*nats.Subscription

	logger *zap.Logger
}

func NewEventManager(natsConn Conn, logger *zap.Logger) *EventManager {
	return &EventManager{
		natsConn: natsConn,
		handlers: make(map[enum.EventType]EventHandler),
		logger:   logger,
	}
}

func Subject(eventType enum.EventType) string {
	return eventSubjectPrefix + string(eventType)
}

func (em *EventManager) RegisterHandler(eventType enum.EventType, handler EventHandler) {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.handlers[eventType] = handler
}

func (em *EventManager) GetHandler(eventType enum.EventType) (EventHandler, bool) {
	em.mu.RLock()
	defer em.mu.RUnlock()
	handler, exists := em.handlers[eventType]
	return handler, exists
}

func (em *EventManager) Publish(_ context.Context, e *models.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", e.ID, err)
	}
	if err = em.natsConn.Publish(Subject(e.Type), data); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", e.ID, err)
	}
	em.logger.Debug("Event published", zap.String("event_type", string(e.Type)), zap.String("event_id", e.ID))
	return nil
}

// SubscribeToEvents feeds every storefront event into wp.
func (em *EventManager) SubscribeToEvents(wp *WorkerPool) error {
	sub, err := em.natsConn.Subscribe(eventSubjectPrefix+">", func(msg *nats.Msg) {
		var e models.Event
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			em.logger.Error("Failed to unmarshal event", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}

		wp.Submit(context.Background(), &e)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	em.mu.Lock()
	em.subs = append(em.subs, sub)
	em.mu.Unlock()
	return nil
}

// Unsubscribe drops every subscription made by SubscribeToEvents.
func (em *EventManager) Unsubscribe() {
	em.mu.Lock()
	subs := em.subs
	em.subs = nil
	em.mu.Unlock()

	for _, sub := range subs {
		if sub == nil {
			continue
		}
		if err := sub.Unsubscribe(); err != nil {
			em.logger.Warn("Failed to unsubscribe", zap.String("subject", sub.Subject), zap.Error(err))
		}
	}
}

var _ EventProcessor = (*eventProcessor)(nil)

// eventProcessor runs the registered handler for each event once. With an
// event repository, redelivered events that were already handled are
// skipped.
type eventProcessor struct {
	manager *EventManager
	events  event.Repository
	logger  *zap.Logger
}

func (p *eventProcessor) ProcessEvent(ctx context.Context, e *models.Event) error {
	// 1. 檢查是否已處理
	if p.events != nil {
		stored, err := p.events.GetByID(ctx, e.ID)
		switch {
		case err == nil && stored.Processed:
			p.logger.Debug("Skipping processed event", zap.String("event_id", e.ID))
			return nil
		case errors.Is(err, event.ErrEventNotFound):
			if err = p.events.Create(ctx, e); err != nil && !errors.Is(err, event.ErrEventExists) {
				return err
			}
		case err != nil:
			return fmt.Errorf("failed to look up event %s: %w", e.ID, err)
		}
	}

	// 2. 執行對應的處理器
	handler, ok := p.manager.GetHandler(e.Type)
	if !ok {
		p.logger.Debug("No handler for event", zap.String("event_type", string(e.Type)))
	} else if err := handler(ctx, e); err != nil {
		return fmt.Errorf("failed to handle %s event: %w", e.Type, err)
	}

	// 3. 標記為已處理
	if p.events != nil {
		if err := p.events.MarkAsProcessed(ctx, e.ID); err != nil {
			return err
		}
	}
	return nil
}
