package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"
)

// DefaultLatency is how long the simulated processor takes to "authorise".
const DefaultLatency = 1500 * time.Millisecond

// Charge is the request handed to a Processor.
type Charge struct {
	SessionID string
	Amount    decimal.Decimal
	Currency  stripe.Currency
	CardLast4 string
}

type Receipt struct {
	Reference   string
	ProcessedAt time.Time
}

// Processor settles a charge. A *DeclineError keeps the flow on the payment
// step with the reason surfaced; any other error is reported the same way.
type Processor interface {
	Charge(ctx context.Context, charge Charge) (Receipt, error)
}

type DeclineError struct {
	Reason string
}

func (e *DeclineError) Error() string {
	return "payment declined: " + e.Reason
}

var _ Processor = (*SimulatedProcessor)(nil)

// SimulatedProcessor waits a fixed latency and always succeeds.
type SimulatedProcessor struct {
	latency time.Duration
	logger  *zap.Logger
}

func NewSimulatedProcessor(latency time.Duration, logger *zap.Logger) *SimulatedProcessor {
	if latency < 0 {
		latency = DefaultLatency
	}
	return &SimulatedProcessor{
		latency: latency,
		logger:  logger,
	}
}

func (p *SimulatedProcessor) Charge(ctx context.Context, charge Charge) (Receipt, error) {
	timer := time.NewTimer(p.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	case <-timer.C:
	}

	receipt := Receipt{
		Reference:   "sim_" + uuid.NewString(),
		ProcessedAt: time.Now(),
	}
	p.logger.Info("Simulated payment authorised",
		zap.String("session_id", charge.SessionID),
		zap.String("amount", charge.Amount.StringFixed(2)),
		zap.String("currency", string(charge.Currency)),
		zap.String("reference", receipt.Reference))
	return receipt, nil
}

func last4(cardNumber string) string {
	digits := NormalizeCardNumber(cardNumber)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}
