package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pump() LineItem {
	return LineItem{Description: "Solar Pump 2kW", Quantity: d("2"), Unit: "unit", UnitPrice: d("1500.00"), Total: d("3000.00")}
}

func TestCalculateTotalsNoDiscount(t *testing.T) {
	totals := CalculateTotals([]LineItem{pump()}, d("16"), decimal.Zero)

	assert.True(t, totals.Subtotal.Equal(d("3000.00")), "subtotal %s", totals.Subtotal)
	assert.True(t, totals.Tax.Equal(d("480.00")), "tax %s", totals.Tax)
	assert.True(t, totals.TotalAmount.Equal(d("3480.00")), "total %s", totals.TotalAmount)
}

func TestCalculateTotalsWithDiscount(t *testing.T) {
	totals := CalculateTotals([]LineItem{pump()}, d("16"), d("500"))

	assert.True(t, totals.AfterDiscount.Equal(d("2500.00")))
	assert.True(t, totals.Tax.Equal(d("400.00")))
	assert.True(t, totals.TotalAmount.Equal(d("2900.00")))
}

func TestCalculateTotalsDiscountExceedsSubtotal(t *testing.T) {
	totals := CalculateTotals([]LineItem{pump()}, d("10"), d("3500"))

	assert.True(t, totals.AfterDiscount.Equal(d("-500")))
	assert.True(t, totals.Tax.Equal(d("-50")))
	assert.True(t, totals.TotalAmount.Equal(d("-550")))
}

func TestCalculateTotalsIgnoresSuppliedLineTotal(t *testing.T) {
	item := pump()
	item.Total = d("1.00")

	totals := CalculateTotals([]LineItem{item}, decimal.Zero, decimal.Zero)
	assert.True(t, totals.Subtotal.Equal(d("3000")))
}

func TestCalculateTotalsNoDrift(t *testing.T) {
	items := make([]LineItem, 0, 1000)
	for i := 0; i < 1000; i++ {
		items = append(items, LineItem{Description: "cable", Quantity: d("1"), Unit: "m", UnitPrice: d("0.10")})
	}

	totals := CalculateTotals(items, decimal.Zero, decimal.Zero)
	assert.Equal(t, "100.00", totals.Subtotal.StringFixed(2))
	assert.True(t, totals.TotalAmount.Equal(d("100")))
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	items := []LineItem{{Description: "x", Quantity: d("3"), UnitPrice: d("2.5"), Total: d("0")}}

	out := Normalize(items)
	require.Len(t, out, 1)
	assert.True(t, out[0].Total.Equal(d("7.5")))
	assert.True(t, items[0].Total.Equal(d("0")))
}

func TestLineTotalRoundsToCents(t *testing.T) {
	assert.Equal(t, "0.33", LineTotal(d("1"), d("0.333")).StringFixed(2))
	assert.Equal(t, "1.01", LineTotal(d("3"), d("0.3366")).StringFixed(2))
}

func TestCalculateTotalsRoundsToCents(t *testing.T) {
	totals := CalculateTotals([]LineItem{pump()}, d("16"), d("0.005"))

	assert.Equal(t, "0.01", totals.Discount.String())
	assert.Equal(t, "2999.99", totals.AfterDiscount.String())
	assert.Equal(t, "480", totals.Tax.String())
	assert.Equal(t, "3479.99", totals.TotalAmount.String())
}

func TestCalculateTotalsFractionalRate(t *testing.T) {
	totals := CalculateTotals([]LineItem{pump()}, d("7.5"), d("0.01"))

	assert.Equal(t, "225", totals.Tax.String())
	assert.Equal(t, "3224.99", totals.TotalAmount.String())
}

func TestHasCents(t *testing.T) {
	assert.True(t, HasCents(d("16")))
	assert.True(t, HasCents(d("12.50")))
	assert.True(t, HasCents(d("12.500")))
	assert.False(t, HasCents(d("0.005")))
	assert.False(t, HasCents(d("16.125")))
}
