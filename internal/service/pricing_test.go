package service

import (
	"errors"
	"testing"

	"github.com/mdsrtech/internal/models"
)

func TestComputeTaxFloorsToCents(t *testing.T) {
	calc, err := NewPriceCalculator("0.13")
	if err != nil {
		t.Fatalf("new calculator failed: %v", err)
	}
	cases := []struct {
		subtotal int64
		shipping int64
		want     int64
	}{
		{subtotal: 2000, shipping: 500, want: 325},
		{subtotal: 1000, shipping: 0, want: 130},
		{subtotal: 999, shipping: 0, want: 129},
		{subtotal: 1, shipping: 0, want: 0},
		{subtotal: 7, shipping: 1, want: 1},
		{subtotal: 1999, shipping: 1499, want: 454},
		{subtotal: 0, shipping: 0, want: 0},
	}
	for _, tc := range cases {
		if got := calc.ComputeTax(tc.subtotal, tc.shipping); got != tc.want {
			t.Fatalf("tax(%d,%d) want %d got %d", tc.subtotal, tc.shipping, tc.want, got)
		}
	}
}

func TestTotalsRejectNegativeAmounts(t *testing.T) {
	calc, _ := NewPriceCalculator("0.13")
	if _, err := calc.Totals(-1, 0); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
	totals, err := calc.Totals(2000, 500)
	if err != nil {
		t.Fatalf("totals failed: %v", err)
	}
	if totals.TotalCents != 2825 {
		t.Fatalf("unexpected total: %+v", totals)
	}
}

func TestNewPriceCalculatorValidatesRate(t *testing.T) {
	if _, err := NewPriceCalculator("abc"); err == nil {
		t.Fatalf("expected invalid rate error")
	}
	if _, err := NewPriceCalculator("-0.1"); err == nil {
		t.Fatalf("expected negative rate error")
	}
	calc, err := NewPriceCalculator("")
	if err != nil || !calc.TaxRate().IsZero() {
		t.Fatalf("empty rate should mean zero tax: %v", err)
	}
}

func TestPriceCartItemsRejectsNegativePrice(t *testing.T) {
	negative := int64(-5)
	items := []models.CartItem{{
		ID:       1,
		Quantity: 1,
		Product:  &models.Product{ID: 3, IsActive: true, IsOnSale: true, SalePriceCents: &negative, PriceCents: 100},
	}}
	if _, err := priceCartItems(items); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}

func TestFormatCents(t *testing.T) {
	if got := FormatCents(2825); got != "28.25" {
		t.Fatalf("unexpected format: %s", got)
	}
	if got := FormatCents(5); got != "0.05" {
		t.Fatalf("unexpected format: %s", got)
	}
}
