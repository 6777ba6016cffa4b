package discount_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/marketplace-discounts/internal/discount"
)

func eligibility(subtotal int64, quantity int32) discount.Eligibility {
	return discount.Eligibility{Subtotal: subtotal, Quantity: quantity}
}

func TestComputePercentage(t *testing.T) {
	t.Parallel()
	r := percentageRule(1, 1, "10% off", 1000)
	require.Equal(t, discount.Money(2000), discount.Compute(r, eligibility(20000, 10)))
}

func TestComputePercentageTruncatesTowardZero(t *testing.T) {
	t.Parallel()
	r := percentageRule(1, 1, "3.33% off", 333)
	// 9999 * 333 / 10000 = 332.96… → 332
	require.Equal(t, discount.Money(332), discount.Compute(r, eligibility(9999, 1)))
}

func TestComputeFixedAmount(t *testing.T) {
	t.Parallel()
	r := discount.Rule{Policy: discount.Policy{Kind: discount.KindFixedAmount, Amount: 500}}
	require.Equal(t, discount.Money(500), discount.Compute(r, eligibility(20000, 2)))
}

func TestComputeFixedAmountClampedToSubtotal(t *testing.T) {
	t.Parallel()
	r := discount.Rule{Policy: discount.Policy{Kind: discount.KindFixedAmount, Amount: 5000}}
	require.Equal(t, discount.Money(1200), discount.Compute(r, eligibility(1200, 1)))
}

func TestComputeTieredPicksQuantityBand(t *testing.T) {
	t.Parallel()
	r := discount.Rule{Policy: discount.Policy{Kind: discount.KindTiered, Tiers: []discount.Tier{
		{MinQty: 1, MaxQty: qty(9), PercentBps: bps(500)},
		{MinQty: 10, MaxQty: qty(19), PercentBps: bps(1000)},
		{MinQty: 20, PercentBps: bps(1500)},
	}}}

	require.Equal(t, discount.Money(500), discount.Compute(r, eligibility(10000, 5)))
	require.Equal(t, discount.Money(1000), discount.Compute(r, eligibility(10000, 12)))
	require.Equal(t, discount.Money(1500), discount.Compute(r, eligibility(10000, 25)))
}

func TestComputeTieredNoMatchingBand(t *testing.T) {
	t.Parallel()
	r := discount.Rule{Policy: discount.Policy{Kind: discount.KindTiered, Tiers: []discount.Tier{
		{MinQty: 10, PercentBps: bps(1000)},
	}}}
	require.Equal(t, discount.Money(0), discount.Compute(r, eligibility(10000, 3)))
}

func TestComputeTieredPercentTakesPrecedenceOverAmount(t *testing.T) {
	t.Parallel()
	r := discount.Rule{Policy: discount.Policy{Kind: discount.KindTiered, Tiers: []discount.Tier{
		{MinQty: 1, PercentBps: bps(1000), Amount: money(99)},
	}}}
	require.Equal(t, discount.Money(1000), discount.Compute(r, eligibility(10000, 2)))
}

func TestComputeTieredAmountFallback(t *testing.T) {
	t.Parallel()
	r := discount.Rule{Policy: discount.Policy{Kind: discount.KindTiered, Tiers: []discount.Tier{
		{MinQty: 1, Amount: money(750)},
	}}}
	require.Equal(t, discount.Money(750), discount.Compute(r, eligibility(10000, 2)))
}

func TestComputeBulkPricingIgnoresAmountOnlyTiers(t *testing.T) {
	t.Parallel()
	r := discount.Rule{Policy: discount.Policy{Kind: discount.KindBulkPricing, Tiers: []discount.Tier{
		{MinQty: 1, Amount: money(750)},
	}}}
	require.Equal(t, discount.Money(0), discount.Compute(r, eligibility(10000, 2)))
}

func TestComputeBulkPricingPercent(t *testing.T) {
	t.Parallel()
	r := discount.Rule{Policy: discount.Policy{Kind: discount.KindBulkPricing, Tiers: []discount.Tier{
		{MinQty: 10, PercentBps: bps(2000)},
	}}}
	require.Equal(t, discount.Money(2000), discount.Compute(r, eligibility(10000, 10)))
}

func TestComputeMaxDiscountClamp(t *testing.T) {
	t.Parallel()
	r := percentageRule(1, 1, "50% capped", 5000)
	r.MaxDiscount = money(1500)
	require.Equal(t, discount.Money(1500), discount.Compute(r, eligibility(20000, 4)))
}

func TestComputeZeroSubtotal(t *testing.T) {
	t.Parallel()
	r := percentageRule(1, 1, "10% off", 1000)
	require.Equal(t, discount.Money(0), discount.Compute(r, eligibility(0, 0)))
}
