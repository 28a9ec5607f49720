package pricing

import (
	"testing"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(s))
}

func requireDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.True(t, d(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestComputeTotals(t *testing.T) {
	in := Input{
		Lines: []Line{
			{ProductID: 1, Price: d("50.00"), DiscountPrice: nd("40.00"), Quantity: 2, AvailableStock: 10},
			{ProductID: 2, Price: d("19.99"), Quantity: 3, AvailableStock: 3},
		},
		CouponDiscount: d("5.00"),
		DeliveryFee:    d("7.50"),
	}

	s := Compute(in)
	assert.Equal(t, 5, s.TotalItems)
	requireDecimal(t, "159.97", s.Subtotal)
	requireDecimal(t, "20.00", s.ProductDiscount)
	requireDecimal(t, "5.00", s.CouponDiscount)
	requireDecimal(t, "25.00", s.TotalDiscount)
	requireDecimal(t, "7.50", s.DeliveryFee)
	requireDecimal(t, "0", s.Tax)
	requireDecimal(t, "142.47", s.Total)
	assert.Empty(t, s.UnavailableItems)
	assert.False(t, s.HasUnavailable())
}

func TestComputeIsPure(t *testing.T) {
	in := Input{
		Lines: []Line{
			{ProductID: 1, Price: d("10.01"), Quantity: 3, AvailableStock: 5},
			{ProductID: 2, Price: d("0.10"), DiscountPrice: nd("0.07"), Quantity: 7, AvailableStock: 5},
		},
		CouponDiscount: d("1.333"),
		DeliveryFee:    d("2.00"),
		TaxRate:        d("0.075"),
	}

	first := Compute(in)
	for i := 0; i < 20; i++ {
		again := Compute(in)
		require.True(t, first.Total.Equal(again.Total))
		require.Equal(t, first.UnavailableItems, again.UnavailableItems)
	}

	// total = max(0, subtotal - totalDiscount) + deliveryFee + tax
	expected := decimal.Max(decimal.Zero, first.Subtotal.Sub(first.TotalDiscount)).Add(first.DeliveryFee).Add(first.Tax)
	require.True(t, expected.Equal(first.Total))
	require.Equal(t, int32(-2), first.Total.Exponent())
}

func TestComputeRoundsOnceAtTheEnd(t *testing.T) {
	// 每行 0.005 的折扣逐行 round 會變成 0.03，整體只 round 一次是 0.02
	lines := make([]Line, 3)
	for i := range lines {
		lines[i] = Line{ProductID: uint(i + 1), Price: d("1.005"), DiscountPrice: nd("1.000"), Quantity: 1, AvailableStock: 1}
	}
	s := Compute(Input{Lines: lines})
	requireDecimal(t, "0.02", s.ProductDiscount)
	requireDecimal(t, "3.02", s.Subtotal)
}

func TestComputeClampsNegativeTotal(t *testing.T) {
	s := Compute(Input{
		Lines:          []Line{{ProductID: 1, Price: d("10"), Quantity: 1, AvailableStock: 1}},
		CouponDiscount: d("25"),
		DeliveryFee:    d("3"),
		TaxRate:        d("0.1"),
	})
	requireDecimal(t, "0", s.Tax)
	requireDecimal(t, "3", s.Total)
}

func TestComputeTax(t *testing.T) {
	s := Compute(Input{
		Lines:          []Line{{ProductID: 1, Price: d("100"), Quantity: 1, AvailableStock: 1}},
		CouponDiscount: d("20"),
		TaxRate:        d("0.075"),
	})
	requireDecimal(t, "6.00", s.Tax)
	requireDecimal(t, "86.00", s.Total)
}

func TestComputeReportsUnavailableWithoutBlocking(t *testing.T) {
	s := Compute(Input{
		Lines: []Line{
			{ProductID: 9, Price: d("30"), Quantity: 2, AvailableStock: 1},
			{ProductID: 10, Price: d("5"), Quantity: 1, AvailableStock: 4},
		},
	})
	require.True(t, s.HasUnavailable())
	require.Equal(t, []UnavailableItem{{ProductID: 9, Requested: 2, Available: 1}}, s.UnavailableItems)
	// 不可售的明細仍計入小計
	requireDecimal(t, "65", s.Subtotal)
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(Input{})
	assert.Equal(t, 0, s.TotalItems)
	requireDecimal(t, "0", s.Total)
	assert.NotNil(t, s.UnavailableItems)
}

func TestLinesFromCart(t *testing.T) {
	cart := &model.Cart{Items: []model.CartItem{
		{ProductID: 1, Quantity: 2, Product: &model.Product{ID: 1, Price: d("10"), StockQuantity: 1}},
		{ProductID: 2, Quantity: 1},
	}}
	lines := LinesFromCart(cart)
	require.Len(t, lines, 1)
	require.Equal(t, 1, lines[0].AvailableStock)
	require.Nil(t, LinesFromCart(nil))
}
