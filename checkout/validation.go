package checkout

import (
	"regexp"
	"strings"

	"goflare.io/storefront/models"
)

// Reason 表示驗證失敗的原因
type Reason string

const (
	ReasonMissing   Reason = "missing"
	ReasonMalformed Reason = "malformed"
)

// ValidationError names the first field that failed validation.
type ValidationError struct {
	Field   string
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	cardPattern  = regexp.MustCompile(`^\d{16}$`)
)

type formField struct {
	name  string
	label string
	value string
}

// ValidateShipping checks required fields in declaration order, then the
// email format. Only the empty string counts as missing, and the email is
// matched as entered.
func ValidateShipping(d models.ShippingDetails) error {
	fields := []formField{
		{name: "firstName", label: "first name", value: d.FirstName},
		{name: "lastName", label: "last name", value: d.LastName},
		{name: "email", label: "email", value: d.Email},
		{name: "phone", label: "phone", value: d.Phone},
		{name: "address", label: "address", value: d.Address},
		{name: "city", label: "city", value: d.City},
		{name: "state", label: "state", value: d.State},
		{name: "zip", label: "zip", value: d.Zip},
		{name: "country", label: "country", value: d.Country},
	}
	for _, f := range fields {
		if f.value == "" {
			return &ValidationError{
				Field:   f.name,
				Reason:  ReasonMissing,
				Message: "please enter your " + f.label,
			}
		}
	}

	if !emailPattern.MatchString(d.Email) {
		return &ValidationError{
			Field:   "email",
			Reason:  ReasonMalformed,
			Message: "please enter a valid email address",
		}
	}
	return nil
}

// ValidatePayment requires all card fields and a 16 digit card number once
// whitespace is removed.
func ValidatePayment(d models.PaymentDetails) error {
	fields := []formField{
		{name: "cardNumber", value: d.CardNumber},
		{name: "cardName", value: d.CardName},
		{name: "expiryDate", value: d.ExpiryDate},
		{name: "cvv", value: d.CVV},
	}
	for _, f := range fields {
		if f.value == "" {
			return &ValidationError{
				Field:   f.name,
				Reason:  ReasonMissing,
				Message: "please fill in all payment details",
			}
		}
	}

	if !cardPattern.MatchString(NormalizeCardNumber(d.CardNumber)) {
		return &ValidationError{
			Field:   "cardNumber",
			Reason:  ReasonMalformed,
			Message: "please enter a valid card number",
		}
	}
	return nil
}

// NormalizeCardNumber strips every whitespace rune.
func NormalizeCardNumber(number string) string {
	return strings.Join(strings.Fields(number), "")
}
