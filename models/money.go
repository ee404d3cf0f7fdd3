package models

import (
	"github.com/shopspring/decimal"
)

// TaxRate is the flat sales tax applied to every order (10%).
var TaxRate = decimal.New(1, -1)

// LineTotal returns price × quantity without rounding.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// Tax returns the tax owed on subtotal rounded to cents.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate).Round(2)
}

// FormatPrice renders an amount with two decimals and a dollar sign, e.g. "$44.98".
func FormatPrice(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
