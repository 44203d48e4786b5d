package billing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSubtotal(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("100"), Quantity: 3},
		{UnitPrice: dec("12.50"), Quantity: 2},
	}
	if got := Subtotal(lines); !got.Equal(dec("325")) {
		t.Fatalf("subtotal: got %s, want 325", got)
	}
}

func TestSubtotal_Empty(t *testing.T) {
	if got := Subtotal(nil); !got.IsZero() {
		t.Fatalf("subtotal of empty cart: got %s, want 0", got)
	}
}

func TestCompute_Formula(t *testing.T) {
	lines := []Line{{UnitPrice: dec("1000"), Quantity: 1}}
	got := Compute(lines, Params{
		TaxPercent:      dec("5"),
		DiscountPercent: dec("10"),
		RoundOff:        dec("5"),
	})

	if !got.Subtotal.Equal(dec("1000")) {
		t.Errorf("subtotal: got %s, want 1000", got.Subtotal)
	}
	if !got.TaxAmount.Equal(dec("50")) {
		t.Errorf("tax: got %s, want 50", got.TaxAmount)
	}
	if !got.DiscountAmount.Equal(dec("100")) {
		t.Errorf("discount: got %s, want 100", got.DiscountAmount)
	}
	if !got.Total.Equal(dec("945")) {
		t.Errorf("total: got %s, want 945", got.Total)
	}
}

func TestCompute_NegativeRoundOffAddsToTotal(t *testing.T) {
	got := Compute([]Line{{UnitPrice: dec("99.60"), Quantity: 1}}, Params{RoundOff: dec("-0.40")})
	if !got.Total.Equal(dec("100")) {
		t.Fatalf("total: got %s, want 100", got.Total)
	}
}

func TestCompute_ClampsNegativeTotal(t *testing.T) {
	got := Compute(nil, Params{RoundOff: dec("5")})
	if !got.Subtotal.IsZero() {
		t.Errorf("subtotal: got %s, want 0", got.Subtotal)
	}
	if !got.Total.IsZero() {
		t.Errorf("total: got %s, want 0", got.Total)
	}
}

func TestCompute_KeepsPrecisionUntilFixed(t *testing.T) {
	// 3 x 33.333 = 99.999; 7.5% tax = 7.499925
	got := Compute([]Line{{UnitPrice: dec("33.333"), Quantity: 3}}, Params{TaxPercent: dec("7.5")})
	if !got.TaxAmount.Equal(dec("7.499925")) {
		t.Fatalf("tax kept unrounded: got %s", got.TaxAmount)
	}

	fixed := got.Fixed()
	if fixed.Subtotal != "100.00" {
		t.Errorf("fixed subtotal: got %s, want 100.00", fixed.Subtotal)
	}
	if fixed.TaxAmount != "7.50" {
		t.Errorf("fixed tax: got %s, want 7.50", fixed.TaxAmount)
	}
	if fixed.Total != "107.50" {
		t.Errorf("fixed total: got %s, want 107.50", fixed.Total)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr error
	}{
		{"zero value", Params{}, nil},
		{"normal", Params{TaxPercent: dec("18"), DiscountPercent: dec("10"), RoundOff: dec("-3")}, nil},
		{"full discount", Params{DiscountPercent: dec("100")}, nil},
		{"negative tax", Params{TaxPercent: dec("-1")}, ErrNegativeTax},
		{"discount over 100", Params{DiscountPercent: dec("100.01")}, ErrDiscountRange},
		{"negative discount", Params{DiscountPercent: dec("-5")}, ErrDiscountRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}
