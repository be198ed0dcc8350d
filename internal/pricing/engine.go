// Package pricing implements the monetary arithmetic behind cart and order
// totals. All amounts are tax-inclusive decimals rounded half-up to two
// places after every arithmetic step, so repeated recomputation over the
// same line items always lands on the same figures.
package pricing

import "github.com/shopspring/decimal"

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Policy holds the fixed business constants the engine computes with.
type Policy struct {
	// TaxRate is the tax fraction already contained in catalog prices, e.g. 0.20.
	TaxRate decimal.Decimal
	// FreeShippingThreshold is the exclusive lower bound for free shipping:
	// a subtotal strictly above it ships free, a subtotal equal to it pays.
	FreeShippingThreshold decimal.Decimal
	// ShippingFee is charged whenever the subtotal does not clear the threshold.
	ShippingFee decimal.Decimal
}

// DefaultPolicy returns the stock policy: 20% tax, free shipping above 100.00,
// 10.00 flat fee otherwise.
func DefaultPolicy() Policy {
	return Policy{
		TaxRate:               decimal.New(20, -2),
		FreeShippingThreshold: decimal.NewFromInt(100),
		ShippingFee:           decimal.NewFromInt(10),
	}
}

// Item describes a line item used for totals calculation.
type Item struct {
	// UnitPrice is the tax-inclusive price captured at validation time.
	UnitPrice decimal.Decimal
	Qty       int
}

// Totals aggregates the four derived monetary fields of a cart or order.
type Totals struct {
	// ItemsSubtotal is the tax-inclusive sum over all line items.
	ItemsSubtotal decimal.Decimal `json:"itemsSubtotal"`
	Shipping      decimal.Decimal `json:"shipping"`
	// Tax is the amount already contained in ItemsSubtotal, by extraction.
	Tax   decimal.Decimal `json:"tax"`
	Total decimal.Decimal `json:"total"`
}

// ZeroTotals returns totals with every field at 0.00.
func ZeroTotals() Totals {
	zero := round2(decimal.Zero)
	return Totals{ItemsSubtotal: zero, Shipping: zero, Tax: zero, Total: zero}
}

// Engine performs pure price computation under a fixed policy.
type Engine struct {
	policy Policy
}

// NewEngine constructs an engine bound to the provided policy.
func NewEngine(policy Policy) Engine {
	return Engine{policy: policy}
}

// Policy returns the policy the engine was constructed with.
func (e Engine) Policy() Policy {
	return e.policy
}

// ExtractTax splits a tax-inclusive price into its tax-exclusive part and the
// tax amount it contains. round2(exclusive + tax) equals round2(inclusive)
// within one rounding unit.
func (e Engine) ExtractTax(inclusive decimal.Decimal) (exclusive, tax decimal.Decimal) {
	exclusive = round2(inclusive.Div(one.Add(e.policy.TaxRate)))
	tax = round2(inclusive.Sub(exclusive))
	return exclusive, tax
}

// Shipping returns the shipping cost for a tax-inclusive items subtotal.
// A subtotal exactly at the threshold still pays shipping.
func (e Engine) Shipping(itemsSubtotal decimal.Decimal) decimal.Decimal {
	if itemsSubtotal.GreaterThan(e.policy.FreeShippingThreshold) {
		return round2(decimal.Zero)
	}
	return round2(e.policy.ShippingFee)
}

// OrderTotals derives the four monetary fields from the given line items.
// Items with a non-positive quantity contribute nothing. The convention is
// items-as-inclusive: Total = ItemsSubtotal + Shipping, Tax by extraction.
func (e Engine) OrderTotals(items []Item) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		line := round2(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Qty))))
		subtotal = round2(subtotal.Add(line))
	}
	shipping := e.Shipping(subtotal)
	_, tax := e.ExtractTax(subtotal)
	return Totals{
		ItemsSubtotal: round2(subtotal),
		Shipping:      shipping,
		Tax:           tax,
		Total:         round2(subtotal.Add(shipping)),
	}
}

// ApplyPercentDiscount discounts a tax-inclusive price by the given percentage.
// Percentages outside (0, 100] leave the price unchanged.
func (e Engine) ApplyPercentDiscount(price decimal.Decimal, percent decimal.Decimal) decimal.Decimal {
	if !percent.IsPositive() || percent.GreaterThan(hundred) {
		return price
	}
	return round2(price.Mul(hundred.Sub(percent)).Div(hundred))
}

// round2 rounds half-up to two decimal places. Applied after every arithmetic
// combination, not only at the output boundary.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
