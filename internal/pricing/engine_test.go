package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sellside/storefront/internal/pricing"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestExtractTax(t *testing.T) {
	eng := pricing.NewEngine(pricing.DefaultPolicy())

	cases := []struct {
		name      string
		inclusive string
		exclusive string
		tax       string
	}{
		{"round figure", "120.00", "100.00", "20.00"},
		{"small price", "0.01", "0.01", "0.00"},
		{"zero", "0.00", "0.00", "0.00"},
		{"odd cents", "59.99", "49.99", "10.00"},
		{"single unit", "1.00", "0.83", "0.17"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exclusive, tax := eng.ExtractTax(dec(t, tc.inclusive))
			require.True(t, dec(t, tc.exclusive).Equal(exclusive), "exclusive got %s", exclusive)
			require.True(t, dec(t, tc.tax).Equal(tax), "tax got %s", tax)
		})
	}
}

func TestExtractTaxRoundTrip(t *testing.T) {
	eng := pricing.NewEngine(pricing.DefaultPolicy())
	cent := decimal.New(1, -2)

	prices := []string{"0.00", "0.01", "0.03", "1.00", "9.99", "10.01", "49.95", "100.00", "120.00", "999.99", "12345.67"}
	for _, p := range prices {
		inclusive := dec(t, p)
		exclusive, tax := eng.ExtractTax(inclusive)
		sum := exclusive.Add(tax).Round(2)
		diff := sum.Sub(inclusive.Round(2)).Abs()
		require.True(t, diff.LessThanOrEqual(cent), "price %s drifted by %s", p, diff)
	}
}

func TestShippingThresholdBoundary(t *testing.T) {
	eng := pricing.NewEngine(pricing.DefaultPolicy())

	require.True(t, dec(t, "10.00").Equal(eng.Shipping(dec(t, "100.00"))))
	require.True(t, dec(t, "0.00").Equal(eng.Shipping(dec(t, "100.01"))))
	require.True(t, dec(t, "10.00").Equal(eng.Shipping(dec(t, "99.99"))))
	require.True(t, dec(t, "10.00").Equal(eng.Shipping(dec(t, "0.00"))))
}

func TestOrderTotals(t *testing.T) {
	eng := pricing.NewEngine(pricing.DefaultPolicy())

	t.Run("end to end scenario", func(t *testing.T) {
		totals := eng.OrderTotals([]pricing.Item{{UnitPrice: dec(t, "60.00"), Qty: 2}})
		require.True(t, dec(t, "120.00").Equal(totals.ItemsSubtotal))
		require.True(t, dec(t, "0.00").Equal(totals.Shipping))
		require.True(t, dec(t, "20.00").Equal(totals.Tax))
		require.True(t, dec(t, "120.00").Equal(totals.Total))
	})

	t.Run("under free shipping threshold", func(t *testing.T) {
		totals := eng.OrderTotals([]pricing.Item{{UnitPrice: dec(t, "30.00"), Qty: 3}})
		require.True(t, dec(t, "90.00").Equal(totals.ItemsSubtotal))
		require.True(t, dec(t, "10.00").Equal(totals.Shipping))
		require.True(t, dec(t, "15.00").Equal(totals.Tax))
		require.True(t, dec(t, "100.00").Equal(totals.Total))
	})

	t.Run("empty items", func(t *testing.T) {
		totals := eng.OrderTotals(nil)
		require.True(t, totals.ItemsSubtotal.IsZero())
		require.True(t, dec(t, "10.00").Equal(totals.Shipping))
		require.True(t, totals.Tax.IsZero())
		require.True(t, dec(t, "10.00").Equal(totals.Total))
	})

	t.Run("non positive quantities are skipped", func(t *testing.T) {
		totals := eng.OrderTotals([]pricing.Item{
			{UnitPrice: dec(t, "10.00"), Qty: 0},
			{UnitPrice: dec(t, "10.00"), Qty: -2},
			{UnitPrice: dec(t, "10.00"), Qty: 1},
		})
		require.True(t, dec(t, "10.00").Equal(totals.ItemsSubtotal))
	})

	t.Run("idempotent recompute", func(t *testing.T) {
		items := []pricing.Item{
			{UnitPrice: dec(t, "19.99"), Qty: 3},
			{UnitPrice: dec(t, "4.50"), Qty: 7},
		}
		first := eng.OrderTotals(items)
		second := eng.OrderTotals(items)
		require.True(t, first.ItemsSubtotal.Equal(second.ItemsSubtotal))
		require.True(t, first.Shipping.Equal(second.Shipping))
		require.True(t, first.Tax.Equal(second.Tax))
		require.True(t, first.Total.Equal(second.Total))
	})
}

func TestApplyPercentDiscount(t *testing.T) {
	eng := pricing.NewEngine(pricing.DefaultPolicy())
	price := dec(t, "50.00")

	require.True(t, price.Equal(eng.ApplyPercentDiscount(price, dec(t, "0"))))
	require.True(t, price.Equal(eng.ApplyPercentDiscount(price, dec(t, "150"))))
	require.True(t, price.Equal(eng.ApplyPercentDiscount(price, dec(t, "-10"))))
	require.True(t, dec(t, "45.00").Equal(eng.ApplyPercentDiscount(price, dec(t, "10"))))
	require.True(t, dec(t, "0.00").Equal(eng.ApplyPercentDiscount(price, dec(t, "100"))))
}

func TestAlternatePolicy(t *testing.T) {
	eng := pricing.NewEngine(pricing.Policy{
		TaxRate:               dec(t, "0.10"),
		FreeShippingThreshold: dec(t, "50.00"),
		ShippingFee:           dec(t, "5.00"),
	})
	totals := eng.OrderTotals([]pricing.Item{{UnitPrice: dec(t, "11.00"), Qty: 4}})
	require.True(t, dec(t, "44.00").Equal(totals.ItemsSubtotal))
	require.True(t, dec(t, "5.00").Equal(totals.Shipping))
	require.True(t, dec(t, "4.00").Equal(totals.Tax))
	require.True(t, dec(t, "49.00").Equal(totals.Total))
}

func TestZeroTotals(t *testing.T) {
	z := pricing.ZeroTotals()
	require.True(t, z.ItemsSubtotal.IsZero())
	require.True(t, z.Shipping.IsZero())
	require.True(t, z.Tax.IsZero())
	require.True(t, z.Total.IsZero())
}
