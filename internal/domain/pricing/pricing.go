// Package pricing computes cart totals: subtotal, discount, shipping, tax.
//
// Compute is a pure function of its inputs so it can run on every state
// change; all arithmetic uses decimals and nothing is rounded until the
// final result fields.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/maisonnoir/storefront/internal/domain/coupon"
)

var hundred = decimal.NewFromInt(100)

// Config holds the shipping and tax policy applied to every cart.
type Config struct {
	// FreeShippingThreshold is compared against the raw subtotal,
	// pre-discount. Carts at or above it ship free.
	FreeShippingThreshold decimal.Decimal
	// FlatShippingFee is charged when the threshold is not met.
	FlatShippingFee decimal.Decimal
	// TaxRate applies to the discounted subtotal. Shipping is not taxed.
	TaxRate decimal.Decimal
}

// Item is one cart line as the engine sees it.
type Item struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Result holds the computed totals. All fields are rounded to 2 decimal
// places and satisfy Total = Subtotal - Discount + Shipping + Tax.
type Result struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// InvalidInputError indicates a caller bug: a negative quantity or unit
// price reached the engine.
type InvalidInputError struct {
	Index  int
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid pricing input at line %d: %s", e.Index, e.Reason)
}

// Compute prices the given items under cfg, applying rule when non-nil.
// The rule must already be resolved; unknown-code rejection happens before
// the engine is called.
func Compute(items []Item, rule *coupon.Rule, cfg Config) (Result, error) {
	subtotal := decimal.Zero
	for i, item := range items {
		if item.Quantity < 0 {
			return Result{}, &InvalidInputError{Index: i, Reason: "negative quantity"}
		}
		if item.UnitPrice.IsNegative() {
			return Result{}, &InvalidInputError{Index: i, Reason: "negative unit price"}
		}
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}

	discount := decimal.Zero
	if rule != nil {
		discount = subtotal.Mul(rule.Percent).Div(hundred)
	}

	// Threshold compares against the raw subtotal, not the discounted one.
	shipping := cfg.FlatShippingFee
	if subtotal.GreaterThanOrEqual(cfg.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Sub(discount).Mul(cfg.TaxRate)

	subtotal = subtotal.Round(2)
	discount = discount.Round(2)
	shipping = shipping.Round(2)
	tax = tax.Round(2)

	// Total from the rounded components so the identity holds exactly.
	total := subtotal.Sub(discount).Add(shipping).Add(tax)

	return Result{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shipping,
		Tax:      tax,
		Total:    total,
	}, nil
}
