package enum

// CheckoutStep 表示結帳流程目前所在步驟
type CheckoutStep string

const (
	CheckoutStepShipping     CheckoutStep = "shipping"
	CheckoutStepPayment      CheckoutStep = "payment"
	CheckoutStepConfirmation CheckoutStep = "confirmation" // 終止狀態
)

func (s CheckoutStep) IsTerminal() bool {
	return s == CheckoutStepConfirmation
}

// AllowTransition reports whether the flow may move from s to next.
func (s CheckoutStep) AllowTransition(next CheckoutStep) bool {
	switch s {
	case CheckoutStepShipping:
		return next == CheckoutStepPayment
	case CheckoutStepPayment:
		return next == CheckoutStepShipping || next == CheckoutStepConfirmation
	default:
		return false
	}
}
