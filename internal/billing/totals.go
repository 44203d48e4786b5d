// Package billing computes cart totals from line items and the per-session
// tax, discount and round-off inputs. Everything here is pure; callers
// recompute on every read instead of caching derived amounts.
package billing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Errors returned by Params.Validate.
var (
	ErrNegativeTax   = errors.New("tax percent must be >= 0")
	ErrDiscountRange = errors.New("discount percent must be between 0 and 100")
)

// Line is the part of a cart row that matters for money.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Params are the billing inputs of one cart session. The zero value means
// no tax, no discount and no round-off.
type Params struct {
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	// RoundOff is an absolute, signed amount subtracted from the total.
	RoundOff decimal.Decimal `json:"round_off"`
}

// Validate checks the percentage bounds. RoundOff is unrestricted.
func (p Params) Validate() error {
	if p.TaxPercent.IsNegative() {
		return ErrNegativeTax
	}
	if p.DiscountPercent.IsNegative() || p.DiscountPercent.GreaterThan(hundred) {
		return ErrDiscountRange
	}
	return nil
}

// Totals holds unrounded amounts. Use Fixed for display.
type Totals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	RoundOff       decimal.Decimal
	Total          decimal.Decimal
}

// FixedTotals is Totals formatted with two decimal places.
type FixedTotals struct {
	Subtotal       string `json:"subtotal"`
	TaxAmount      string `json:"tax_amount"`
	DiscountAmount string `json:"discount_amount"`
	RoundOff       string `json:"round_off"`
	Total          string `json:"total"`
}

// Fixed rounds every amount to 2 places. Only call this at the output edge.
func (t Totals) Fixed() FixedTotals {
	return FixedTotals{
		Subtotal:       t.Subtotal.StringFixed(2),
		TaxAmount:      t.TaxAmount.StringFixed(2),
		DiscountAmount: t.DiscountAmount.StringFixed(2),
		RoundOff:       t.RoundOff.StringFixed(2),
		Total:          t.Total.StringFixed(2),
	}
}

// Subtotal sums unit price times quantity over all lines.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// TaxAmount is subtotal * percent / 100.
func TaxAmount(subtotal, percent decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(percent).Div(hundred)
}

// DiscountAmount is subtotal * percent / 100.
func DiscountAmount(subtotal, percent decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(percent).Div(hundred)
}

// Compute derives all totals:
//
//	total = subtotal + tax - discount - roundOff
//
// A negative total is clamped to zero.
func Compute(lines []Line, p Params) Totals {
	subtotal := Subtotal(lines)
	tax := TaxAmount(subtotal, p.TaxPercent)
	discount := DiscountAmount(subtotal, p.DiscountPercent)

	total := subtotal.Add(tax).Sub(discount).Sub(p.RoundOff)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		DiscountAmount: discount,
		RoundOff:       p.RoundOff,
		Total:          total,
	}
}
