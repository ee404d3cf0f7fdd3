package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goflare.io/storefront/models"
)

func validShipping() models.ShippingDetails {
	return models.ShippingDetails{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "a@b.co",
		Phone:     "555-0100",
		Address:   "12 Analytical St",
		City:      "London",
		State:     "LDN",
		Zip:       "10001",
		Country:   models.DefaultCountry,
	}
}

func validPayment() models.PaymentDetails {
	return models.PaymentDetails{
		CardNumber: "4111 1111 1111 1111",
		CardName:   "Ada Lovelace",
		ExpiryDate: "12/30",
		CVV:        "123",
	}
}

func TestValidateShipping(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateShipping(validShipping()))
	})

	t.Run("first missing field wins", func(t *testing.T) {
		d := validShipping()
		d.Phone = ""
		d.City = ""

		var verr *ValidationError
		require.ErrorAs(t, ValidateShipping(d), &verr)
		assert.Equal(t, "phone", verr.Field)
		assert.Equal(t, ReasonMissing, verr.Reason)
		assert.Equal(t, "please enter your phone", verr.Message)
	})

	t.Run("whitespace only is not missing", func(t *testing.T) {
		d := validShipping()
		d.FirstName = "   "
		assert.NoError(t, ValidateShipping(d))
	})

	t.Run("padded email is malformed", func(t *testing.T) {
		for _, email := range []string{" a@b.co", "a@b.co ", "\ta@b.co"} {
			d := validShipping()
			d.Email = email

			var verr *ValidationError
			require.ErrorAs(t, ValidateShipping(d), &verr, email)
			assert.Equal(t, "email", verr.Field)
			assert.Equal(t, ReasonMalformed, verr.Reason)
		}
	})

	t.Run("malformed email", func(t *testing.T) {
		for _, email := range []string{"a@b", "ab.co", "a b@c.de", "@b.co"} {
			d := validShipping()
			d.Email = email

			var verr *ValidationError
			require.ErrorAs(t, ValidateShipping(d), &verr, email)
			assert.Equal(t, "email", verr.Field)
			assert.Equal(t, ReasonMalformed, verr.Reason)
		}
	})

	t.Run("missing fields are reported before a bad email", func(t *testing.T) {
		d := validShipping()
		d.Email = "nope"
		d.Country = ""

		var verr *ValidationError
		require.ErrorAs(t, ValidateShipping(d), &verr)
		assert.Equal(t, "country", verr.Field)
	})
}

func TestValidatePayment(t *testing.T) {
	assert.NoError(t, ValidatePayment(validPayment()))

	d := validPayment()
	d.CardNumber = "4111111111111111"
	assert.NoError(t, ValidatePayment(d))

	d = validPayment()
	d.CVV = ""
	var verr *ValidationError
	require.ErrorAs(t, ValidatePayment(d), &verr)
	assert.Equal(t, "cvv", verr.Field)
	assert.Equal(t, "please fill in all payment details", verr.Message)

	for _, number := range []string{"   ", "123", "4111 1111 1111 111", "4111-1111-1111-1111", "4111 1111 1111 11112"} {
		d = validPayment()
		d.CardNumber = number

		verr = nil
		require.ErrorAs(t, ValidatePayment(d), &verr, number)
		assert.Equal(t, "cardNumber", verr.Field)
		assert.Equal(t, ReasonMalformed, verr.Reason)
	}
}

func TestNormalizeCardNumber(t *testing.T) {
	assert.Equal(t, "4111111111111111", NormalizeCardNumber(" 4111 1111\t1111 1111 "))
	assert.Equal(t, "1111", last4("4111 1111 1111 1111"))
	assert.Equal(t, "12", last4("12"))
}
