// Package pricing computes quotation totals with decimal arithmetic.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// LineItem is one priced row of a quotation.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
}

// Totals is the result of CalculateTotals.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	AfterDiscount decimal.Decimal `json:"afterDiscount"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	Tax           decimal.Decimal `json:"tax"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

// LineTotal returns quantity * unitPrice rounded to cents.
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}

// Normalize returns a copy of items with every Total recomputed from
// Quantity and UnitPrice. Caller supplied totals are discarded.
func Normalize(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		item.Total = LineTotal(item.Quantity, item.UnitPrice)
		out[i] = item
	}
	return out
}

// HasCents reports whether v carries no digits beyond the second decimal
// place.
func HasCents(v decimal.Decimal) bool {
	return v.Equal(v.Round(2))
}

// CalculateTotals sums the line items, subtracts the absolute discount and
// applies taxRate (a percentage) to the discounted amount. Every amount in
// the result is rounded half away from zero to cents.
//
// The discount is not clamped: a discount larger than the subtotal yields a
// negative pre-tax amount, and therefore negative tax and total.
func CalculateTotals(items []LineItem, taxRate, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range Normalize(items) {
		subtotal = subtotal.Add(item.Total)
	}
	discount = discount.Round(2)
	afterDiscount := subtotal.Sub(discount)
	tax := afterDiscount.Mul(taxRate).Div(hundred).Round(2)
	return Totals{
		Subtotal:      subtotal,
		Discount:      discount,
		AfterDiscount: afterDiscount,
		TaxRate:       taxRate,
		Tax:           tax,
		TotalAmount:   afterDiscount.Add(tax).Round(2),
	}
}
