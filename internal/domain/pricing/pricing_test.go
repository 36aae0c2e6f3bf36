package pricing

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maisonnoir/storefront/internal/domain/coupon"
)

func testConfig() Config {
	return Config{
		FreeShippingThreshold: decimal.NewFromInt(100000),
		FlatShippingFee:       decimal.NewFromInt(5000),
		TaxRate:               decimal.NewFromFloat(0.18),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func percentRule(percent string) *coupon.Rule {
	return &coupon.Rule{Code: "SAVE", Percent: dec(percent)}
}

func TestCompute_CouponAboveFreeShippingThreshold(t *testing.T) {
	// One line at 100000 x2 with a 10% coupon. The raw subtotal clears the
	// free shipping threshold even though the discounted one would too.
	items := []Item{{UnitPrice: dec("100000"), Quantity: 2}}

	res, err := Compute(items, percentRule("10"), testConfig())
	require.NoError(t, err)

	assert.True(t, res.Subtotal.Equal(dec("200000")), "subtotal = %s", res.Subtotal)
	assert.True(t, res.Discount.Equal(dec("20000")), "discount = %s", res.Discount)
	assert.True(t, res.Shipping.IsZero(), "shipping = %s", res.Shipping)
	assert.True(t, res.Tax.Equal(dec("32400")), "tax = %s", res.Tax)
	assert.True(t, res.Total.Equal(dec("212400")), "total = %s", res.Total)
}

func TestCompute_EmptyCart(t *testing.T) {
	// An empty cart is below the threshold, so the flat fee applies and the
	// total is exactly the shipping.
	res, err := Compute(nil, nil, testConfig())
	require.NoError(t, err)

	assert.True(t, res.Subtotal.IsZero())
	assert.True(t, res.Discount.IsZero())
	assert.True(t, res.Shipping.Equal(dec("5000")))
	assert.True(t, res.Tax.IsZero())
	assert.True(t, res.Total.Equal(dec("5000")))
}

func TestCompute_BelowThresholdChargesFlatFee(t *testing.T) {
	items := []Item{{UnitPrice: dec("40000"), Quantity: 1}}

	res, err := Compute(items, nil, testConfig())
	require.NoError(t, err)

	assert.True(t, res.Shipping.Equal(dec("5000")))
	// tax = 40000 * 0.18, shipping untaxed
	assert.True(t, res.Tax.Equal(dec("7200")))
	assert.True(t, res.Total.Equal(dec("52200")))
}

func TestCompute_ThresholdIsInclusive(t *testing.T) {
	items := []Item{{UnitPrice: dec("100000"), Quantity: 1}}

	res, err := Compute(items, nil, testConfig())
	require.NoError(t, err)

	assert.True(t, res.Shipping.IsZero(), "subtotal == threshold ships free")
}

func TestCompute_ThresholdUsesRawSubtotal(t *testing.T) {
	// 50% off 100000 discounts below the threshold, but the threshold check
	// happens on the raw subtotal so shipping stays free.
	items := []Item{{UnitPrice: dec("100000"), Quantity: 1}}

	res, err := Compute(items, percentRule("50"), testConfig())
	require.NoError(t, err)

	assert.True(t, res.Shipping.IsZero())
	assert.True(t, res.Discount.Equal(dec("50000")))
	// tax on the discounted subtotal
	assert.True(t, res.Tax.Equal(dec("9000")))
}

func TestCompute_TaxExcludesShipping(t *testing.T) {
	items := []Item{{UnitPrice: dec("10000"), Quantity: 1}}

	res, err := Compute(items, nil, testConfig())
	require.NoError(t, err)

	// 10000 * 0.18 = 1800; the 5000 shipping is not in the tax base.
	assert.True(t, res.Tax.Equal(dec("1800")))
	assert.True(t, res.Total.Equal(dec("16800")))
}

func TestCompute_RoundsToTwoPlaces(t *testing.T) {
	// 3 x 33.33 = 99.99, 7% off = 6.9993 -> 7.00
	items := []Item{{UnitPrice: dec("33.33"), Quantity: 3}}

	res, err := Compute(items, percentRule("7"), testConfig())
	require.NoError(t, err)

	assert.Equal(t, "99.99", res.Subtotal.String())
	assert.Equal(t, "7", res.Discount.String())
	assert.True(t, res.Discount.Equal(dec("7.00")))
}

func TestCompute_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		items  []Item
		index  int
		reason string
	}{
		{
			name:   "negative quantity",
			items:  []Item{{UnitPrice: dec("100"), Quantity: 1}, {UnitPrice: dec("100"), Quantity: -1}},
			index:  1,
			reason: "negative quantity",
		},
		{
			name:   "negative unit price",
			items:  []Item{{UnitPrice: dec("-1"), Quantity: 1}},
			index:  0,
			reason: "negative unit price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.items, nil, testConfig())

			var invalid *InvalidInputError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.index, invalid.Index)
			assert.Equal(t, tt.reason, invalid.Reason)
		})
	}
}

func TestCompute_ZeroQuantityLineContributesNothing(t *testing.T) {
	items := []Item{
		{UnitPrice: dec("100000"), Quantity: 0},
		{UnitPrice: dec("1000"), Quantity: 1},
	}

	res, err := Compute(items, nil, testConfig())
	require.NoError(t, err)

	assert.True(t, res.Subtotal.Equal(dec("1000")))
}

func TestCompute_TotalIdentityHolds(t *testing.T) {
	// Property: for random carts and coupons, the rounded components always
	// reassemble into the total exactly.
	rng := rand.New(rand.NewSource(42))

	for range 200 {
		n := rng.Intn(6)
		items := make([]Item, n)
		for i := range items {
			cents := rng.Intn(50_000_00)
			items[i] = Item{
				UnitPrice: decimal.New(int64(cents), -2),
				Quantity:  rng.Intn(5),
			}
		}

		var rule *coupon.Rule
		if rng.Intn(2) == 1 {
			rule = percentRule(decimal.NewFromInt(int64(rng.Intn(101))).String())
		}

		res, err := Compute(items, rule, testConfig())
		require.NoError(t, err)

		sum := res.Subtotal.Sub(res.Discount).Add(res.Shipping).Add(res.Tax)
		assert.True(t, res.Total.Equal(sum),
			"total %s != subtotal %s - discount %s + shipping %s + tax %s",
			res.Total, res.Subtotal, res.Discount, res.Shipping, res.Tax)
	}
}

func TestCompute_IsDeterministic(t *testing.T) {
	items := []Item{
		{UnitPrice: dec("123.45"), Quantity: 3},
		{UnitPrice: dec("9.99"), Quantity: 7},
	}
	rule := percentRule("12.5")

	first, err := Compute(items, rule, testConfig())
	require.NoError(t, err)

	second, err := Compute(items, rule, testConfig())
	require.NoError(t, err)

	assert.True(t, first.Total.Equal(second.Total))
	assert.True(t, first.Tax.Equal(second.Tax))
}
