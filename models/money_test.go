package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	lines := []CartLine{
		NewCartLine(Product{ID: 1, Price: decimal.RequireFromString("19.99")}, 2),
		NewCartLine(Product{ID: 2, Price: decimal.RequireFromString("5.00")}, 1),
	}

	summary := Summarize(lines)

	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, "44.98", summary.Subtotal.StringFixed(2))
	assert.True(t, summary.Shipping.IsZero())
	assert.Equal(t, "4.50", summary.Tax.StringFixed(2))
	assert.Equal(t, "49.48", summary.Total.StringFixed(2))
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.Count)
	assert.True(t, summary.Subtotal.IsZero())
	assert.True(t, summary.Total.IsZero())
}

func TestLineTotalIsExact(t *testing.T) {
	// 0.1 × 3 drifts in binary floating point
	total := decimal.Zero
	for i := 0; i < 1000; i++ {
		total = total.Add(LineTotal(decimal.RequireFromString("0.10"), 3))
	}
	assert.True(t, total.Equal(decimal.NewFromInt(300)))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$5.00", FormatPrice(decimal.NewFromInt(5)))
	assert.Equal(t, "$44.98", FormatPrice(decimal.RequireFromString("44.98")))
	assert.Equal(t, "$0.00", FormatPrice(decimal.Zero))
}

func TestProductMatches(t *testing.T) {
	p := Product{
		Title:       "Mens Cotton Jacket",
		Description: "great outerwear jackets for Spring",
		Category:    "men's clothing",
	}

	assert.True(t, p.Matches("JACKET"))
	assert.True(t, p.Matches("outerwear"))
	assert.True(t, p.Matches("men's"))
	assert.False(t, p.Matches("laptop"))
}

func TestProductInPriceRange(t *testing.T) {
	p := Product{Price: decimal.RequireFromString("55.99")}
	lo := decimal.NewFromInt(50)
	hi := decimal.NewFromInt(60)
	low := decimal.NewFromInt(10)

	assert.True(t, p.InPriceRange(nil, nil))
	assert.True(t, p.InPriceRange(&lo, &hi))
	assert.True(t, p.InPriceRange(&lo, nil))
	assert.False(t, p.InPriceRange(nil, &low))
}
