package checkout

import (
	"context"

	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
)

var _ Service = (*Flow)(nil)

// Service is the checkout surface consumed by the presentation layer.
type Service interface {
	ID() string
	Step() enum.CheckoutStep
	Processing() bool
	Form() models.CheckoutForm
	Order() (models.Order, bool)
	LastDecline() error

	SubmitShipping(details models.ShippingDetails) error
	SubmitPayment(details models.PaymentDetails) error
	BackToShipping() error
	Wait(ctx context.Context) error
	Abandon()
}
