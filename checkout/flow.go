package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
)

var (
	ErrEmptyCart         = errors.New("your cart is empty, add items before checkout")
	ErrInvalidStep       = errors.New("operation not allowed in the current checkout step")
	ErrPaymentInProgress = errors.New("payment is already being processed")
	ErrCheckoutComplete  = errors.New("checkout already completed")
	ErrCheckoutAbandoned = errors.New("checkout abandoned")
)

// Cart is the part of the cart store the flow depends on.
type Cart interface {
	IsEmpty() bool
	Lines() []models.CartLine
	Clear()
}

// Transition is reported to hooks after the flow changed state. Hooks run
// outside the flow's lock.
type Transition struct {
	FlowID   string
	Event    enum.EventType
	Step     enum.CheckoutStep
	Shipping models.ShippingDetails
	Order    *models.Order
	Reason   string
}

type Hook func(Transition)

type Option func(*Flow)

func WithProcessor(p Processor) Option {
	return func(f *Flow) {
		f.processor = p
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(f *Flow) {
		f.logger = logger
	}
}

func WithHook(h Hook) Option {
	return func(f *Flow) {
		f.hooks = append(f.hooks, h)
	}
}

func WithCurrency(currency stripe.Currency) Option {
	return func(f *Flow) {
		f.currency = currency
	}
}

// WithID sets the flow id; it defaults to a random UUID.
func WithID(id string) Option {
	return func(f *Flow) {
		f.id = id
	}
}

// WithSessionID ties charges and the order to the visitor's session. It
// defaults to the flow id.
func WithSessionID(id string) Option {
	return func(f *Flow) {
		f.sessionID = id
	}
}

func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		f.now = now
	}
}

// attempt is one payment submission. done is closed once it resolves.
type attempt struct {
	done chan struct{}
	err  error
}

func (a *attempt) finish(err error) {
	a.err = err
	close(a.done)
}

// Flow drives one checkout from shipping through payment to confirmation.
type Flow struct {
	mu sync.Mutex

	id        string
	sessionID string
	step      enum.CheckoutStep
	form      models.CheckoutForm
	cart      Cart
	processor Processor
	currency  stripe.Currency
	hooks     []Hook
	now       func() time.Time
	logger    *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	pending *attempt
	last    *attempt
	order   *models.Order
	decline *DeclineError
}

// Start opens a checkout over cart. It refuses an empty cart; the check is
// made only here, so a cart emptied later does not interrupt the flow.
// Cancelling ctx abandons the flow.
func Start(ctx context.Context, cart Cart, opts ...Option) (*Flow, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	f := &Flow{
		id:       uuid.NewString(),
		step:     enum.CheckoutStepShipping,
		form:     models.NewCheckoutForm(),
		cart:     cart,
		currency: stripe.CurrencyUSD,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.processor == nil {
		f.processor = NewSimulatedProcessor(DefaultLatency, f.logger)
	}
	if f.sessionID == "" {
		f.sessionID = f.id
	}
	f.ctx, f.cancel = context.WithCancel(ctx)

	f.logger.Info("Checkout started", zap.String("flow_id", f.id))
	f.emit(Transition{Event: enum.EventTypeCheckoutStarted, Step: f.step})
	return f, nil
}

func (f *Flow) ID() string {
	return f.id
}

func (f *Flow) Step() enum.CheckoutStep {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Processing reports whether a payment attempt is pending.
func (f *Flow) Processing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending != nil
}

// Form returns the values entered so far, for prefilling.
func (f *Flow) Form() models.CheckoutForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

// Order returns the confirmed order once the flow reached confirmation.
func (f *Flow) Order() (models.Order, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.order == nil {
		return models.Order{}, false
	}
	return *f.order, true
}

// LastDecline returns the reason the most recent payment attempt failed, or
// nil.
func (f *Flow) LastDecline() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.decline == nil {
		return nil
	}
	return f.decline
}

func (f *Flow) SubmitShipping(details models.ShippingDetails) error {
	f.mu.Lock()
	if err := f.checkStepLocked(enum.CheckoutStepShipping); err != nil {
		f.mu.Unlock()
		return err
	}

	f.form.Shipping = details
	if err := ValidateShipping(details); err != nil {
		f.mu.Unlock()
		return err
	}
	f.moveLocked(enum.CheckoutStepPayment)
	f.mu.Unlock()

	f.logger.Info("Shipping details accepted", zap.String("flow_id", f.id))
	f.emit(Transition{Event: enum.EventTypeShippingSubmitted, Step: enum.CheckoutStepPayment, Shipping: details})
	return nil
}

// BackToShipping returns to the shipping step keeping the entered values.
func (f *Flow) BackToShipping() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkStepLocked(enum.CheckoutStepPayment); err != nil {
		return err
	}
	f.moveLocked(enum.CheckoutStepShipping)
	return nil
}

// SubmitPayment validates the card details and starts a payment attempt in
// the background. It returns as soon as the attempt is under way; use Wait
// or Processing to follow it.
func (f *Flow) SubmitPayment(details models.PaymentDetails) error {
	f.mu.Lock()
	if err := f.checkStepLocked(enum.CheckoutStepPayment); err != nil {
		f.mu.Unlock()
		return err
	}

	f.form.Payment = details
	if err := ValidatePayment(details); err != nil {
		f.mu.Unlock()
		return err
	}

	lines := f.cart.Lines()
	summary := models.Summarize(lines)
	charge := Charge{
		SessionID: f.sessionID,
		Amount:    summary.Total,
		Currency:  f.currency,
		CardLast4: last4(details.CardNumber),
	}

	a := &attempt{done: make(chan struct{})}
	f.pending = a
	f.last = a
	f.decline = nil
	ctx := f.ctx
	f.mu.Unlock()

	f.logger.Info("Payment processing started",
		zap.String("flow_id", f.id),
		zap.String("amount", charge.Amount.StringFixed(2)))

	go f.process(ctx, a, charge, lines, summary)
	return nil
}

// Wait blocks until the latest payment attempt resolves and returns its
// outcome. It returns nil at once when no attempt was made.
func (f *Flow) Wait(ctx context.Context) error {
	f.mu.Lock()
	a := f.last
	f.mu.Unlock()

	if a == nil {
		return nil
	}
	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Abandon cancels the flow. A pending payment completion is discarded and
// will not touch the cart.
func (f *Flow) Abandon() {
	f.mu.Lock()
	if f.step.IsTerminal() || f.ctx.Err() != nil {
		f.mu.Unlock()
		return
	}
	f.cancel()
	f.pending = nil
	step := f.step
	f.mu.Unlock()

	f.logger.Info("Checkout abandoned", zap.String("flow_id", f.id), zap.String("step", string(step)))
	f.emit(Transition{Event: enum.EventTypeCheckoutAbandoned, Step: step})
}

func (f *Flow) process(ctx context.Context, a *attempt, charge Charge, lines []models.CartLine, summary models.OrderSummary) {
	receipt, err := f.processor.Charge(ctx, charge)

	f.mu.Lock()
	if f.pending != a || ctx.Err() != nil {
		if f.pending == a {
			f.pending = nil
		}
		f.mu.Unlock()
		f.logger.Info("Discarded payment completion for abandoned checkout", zap.String("flow_id", f.id))
		a.finish(ErrCheckoutAbandoned)
		return
	}
	f.pending = nil

	if err != nil {
		var decline *DeclineError
		if !errors.As(err, &decline) {
			decline = &DeclineError{Reason: err.Error()}
		}
		f.decline = decline
		f.mu.Unlock()

		f.logger.Warn("Payment declined", zap.String("flow_id", f.id), zap.Error(err))
		f.emit(Transition{Event: enum.EventTypePaymentDeclined, Step: enum.CheckoutStepPayment, Reason: decline.Reason})
		a.finish(decline)
		return
	}

	order := &models.Order{
		ID:               newOrderID(),
		SessionID:        f.sessionID,
		Currency:         f.currency,
		Lines:            lines,
		Summary:          summary,
		Shipping:         f.form.Shipping,
		PaymentReference: receipt.Reference,
		PlacedAt:         f.now(),
	}
	f.order = order
	f.moveLocked(enum.CheckoutStepConfirmation)
	f.mu.Unlock()

	// 付款成功，清空購物車
	f.cart.Clear()
	f.cancel()

	f.logger.Info("Order confirmed",
		zap.String("flow_id", f.id),
		zap.String("order_id", order.ID),
		zap.String("total", order.Summary.Total.StringFixed(2)))
	confirmed := *order
	f.emit(Transition{Event: enum.EventTypeOrderConfirmed, Step: enum.CheckoutStepConfirmation, Shipping: order.Shipping, Order: &confirmed})
	a.finish(nil)
}

func (f *Flow) checkStepLocked(want enum.CheckoutStep) error {
	if f.step.IsTerminal() {
		return ErrCheckoutComplete
	}
	if f.ctx.Err() != nil {
		return ErrCheckoutAbandoned
	}
	if f.pending != nil {
		return ErrPaymentInProgress
	}
	if f.step != want {
		return fmt.Errorf("%w: in %s, want %s", ErrInvalidStep, f.step, want)
	}
	return nil
}

func (f *Flow) moveLocked(next enum.CheckoutStep) {
	if !f.step.AllowTransition(next) {
		panic(fmt.Sprintf("checkout: illegal transition %s -> %s", f.step, next))
	}
	f.step = next
}

func (f *Flow) emit(t Transition) {
	t.FlowID = f.id
	for _, h := range f.hooks {
		h(t)
	}
}

func newOrderID() string {
	return fmt.Sprintf("ORD-%X", uuid.New().ID())
}
