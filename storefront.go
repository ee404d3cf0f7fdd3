package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"goflare.io/storefront/cart"
	"goflare.io/storefront/catalog"
	"goflare.io/storefront/checkout"
	"goflare.io/storefront/models"
	"goflare.io/storefront/order"
)

// Publisher delivers storefront events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event *models.Event) error
}

type Service interface {
	NewSession(ctx context.Context) (*Session, error)
	ResumeSession(ctx context.Context, sessionID string) (*Session, error)

	Browse(ctx context.Context, query ProductQuery) ([]models.Product, error)
	FeaturedProducts(ctx context.Context) ([]models.Product, error)
	ProductDetail(ctx context.Context, id int) (models.Product, []models.Product, error)
	Categories(ctx context.Context) ([]models.Category, error)

	Close()
}

type Option func(*service)

// WithCartRepository persists session carts so they can be resumed.
func WithCartRepository(repo cart.Repository) Option {
	return func(s *service) {
		s.carts = repo
	}
}

// WithOrderRepository keeps each session's confirmed order for redisplay.
func WithOrderRepository(repo order.Repository) Option {
	return func(s *service) {
		s.orders = repo
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *service) {
		s.publisher = p
	}
}

// WithProcessor overrides the simulated payment processor.
func WithProcessor(p checkout.Processor) Option {
	return func(s *service) {
		s.processor = p
	}
}

func WithPaymentLatency(d time.Duration) Option {
	return func(s *service) {
		s.paymentLatency = d
	}
}

func WithCurrency(currency stripe.Currency) Option {
	return func(s *service) {
		s.currency = currency
	}
}

// WithStrictInvariants makes restored carts panic on duplicate lines.
func WithStrictInvariants() Option {
	return func(s *service) {
		s.strict = true
	}
}

type service struct {
	catalog   catalog.Catalog
	carts     cart.Repository
	orders    order.Repository
	publisher Publisher
	processor checkout.Processor

	paymentLatency time.Duration
	currency       stripe.Currency
	strict         bool

	mu       sync.Mutex
	sessions map[string]*Session

	logger *zap.Logger
}

func NewService(catalog catalog.Catalog, logger *zap.Logger, opts ...Option) Service {
	s := &service{
		catalog:        catalog,
		paymentLatency: checkout.DefaultLatency,
		currency:       stripe.CurrencyUSD,
		sessions:       make(map[string]*Session),
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.processor == nil {
		s.processor = checkout.NewSimulatedProcessor(s.paymentLatency, logger)
	}
	return s
}

func (s *service) NewSession(ctx context.Context) (*Session, error) {
	return s.openSession(ctx, uuid.NewString(), nil), nil
}

// ResumeSession reopens sessionID with its saved cart. A session whose
// snapshot expired starts over with an empty cart under the same id.
func (s *service) ResumeSession(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}

	s.mu.Lock()
	existing, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if ok {
		return existing, nil
	}

	if s.carts == nil {
		return s.openSession(ctx, sessionID, nil), nil
	}

	lines, err := s.carts.Load(ctx, sessionID)
	switch {
	case errors.Is(err, cart.ErrSnapshotNotFound):
		s.logger.Info("No cart snapshot, starting fresh", zap.String("session_id", sessionID))
		lines = nil
	case err != nil:
		return nil, fmt.Errorf("failed to load cart for session %s: %w", sessionID, err)
	}

	return s.openSession(ctx, sessionID, lines), nil
}

func (s *service) Close() {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

// openSession registers a session for id. When another caller registered
// the id first, that session is returned and lines are dropped.
func (s *service) openSession(_ context.Context, id string, lines []models.CartLine) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		return existing
	}

	opts := []cart.Option{cart.WithLogger(s.logger.With(zap.String("session_id", id)))}
	if s.strict {
		opts = append(opts, cart.WithStrictInvariants())
	}
	store := cart.NewStore(opts...)
	if len(lines) > 0 {
		store.Restore(lines)
	}

	sess := newSession(id, store, s)
	s.sessions[id] = sess

	s.logger.Info("Session opened", zap.String("session_id", id), zap.Int("cart_count", store.Count()))
	return sess
}

func (s *service) forget(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *service) checkoutOptions(sess *Session) []checkout.Option {
	return []checkout.Option{
		checkout.WithProcessor(s.processor),
		checkout.WithCurrency(s.currency),
		checkout.WithSessionID(sess.id),
		checkout.WithLogger(s.logger.With(zap.String("session_id", sess.id))),
		checkout.WithHook(sess.onTransition),
	}
}
