package discount_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/marketplace-discounts/internal/discount"
)

func TestParsePolicyPercentage(t *testing.T) {
	t.Parallel()
	p, err := discount.ParsePolicy("percentage", 0, 1500, nil)
	require.NoError(t, err)
	require.Equal(t, discount.KindPercentage, p.Kind)
	require.Equal(t, int32(1500), p.PercentBps)
	require.Empty(t, p.Tiers)
}

func TestParsePolicyUnknownKind(t *testing.T) {
	t.Parallel()
	_, err := discount.ParsePolicy("mystery", 0, 0, nil)
	require.ErrorIs(t, err, discount.ErrUnknownPolicyKind)
}

func TestParsePolicyTiersSortedAndNormalised(t *testing.T) {
	t.Parallel()
	raw := []byte(`[
		{"min_qty": 10, "max_qty": 19, "percent_bps": 1000},
		{"min_qty": 1, "max_qty": 9, "percent_bps": 500},
		{"min_qty": 20, "percent_bps": 1500}
	]`)
	p, err := discount.ParsePolicy("tiered", 0, 0, raw)
	require.NoError(t, err)
	require.Len(t, p.Tiers, 3)
	require.Equal(t, int32(1), p.Tiers[0].MinQty)
	require.Equal(t, int32(10), p.Tiers[1].MinQty)
	require.Equal(t, int32(20), p.Tiers[2].MinQty)
	require.Nil(t, p.Tiers[2].MaxQty)
}

func TestParsePolicyDropsOverlappingTiers(t *testing.T) {
	t.Parallel()
	raw := []byte(`[
		{"min_qty": 1, "max_qty": 10, "percent_bps": 500},
		{"min_qty": 5, "max_qty": 15, "percent_bps": 800}
	]`)
	p, err := discount.ParsePolicy("tiered", 0, 0, raw)
	require.NoError(t, err)
	require.Len(t, p.Tiers, 1)
	require.Equal(t, int32(1), p.Tiers[0].MinQty)
}

func TestParsePolicyMalformedTiersYieldsNone(t *testing.T) {
	t.Parallel()
	p, err := discount.ParsePolicy("bulk_pricing", 0, 0, []byte(`{"not":"an array"}`))
	require.NoError(t, err)
	require.Empty(t, p.Tiers)
}

func TestMatchTier(t *testing.T) {
	t.Parallel()
	tiers := []discount.Tier{
		{MinQty: 1, MaxQty: qty(9), PercentBps: bps(500)},
		{MinQty: 10, PercentBps: bps(1000)},
	}

	tier, ok := discount.MatchTier(tiers, 5)
	require.True(t, ok)
	require.Equal(t, int32(500), *tier.PercentBps)

	tier, ok = discount.MatchTier(tiers, 50)
	require.True(t, ok)
	require.Equal(t, int32(1000), *tier.PercentBps)

	_, ok = discount.MatchTier(tiers, 0)
	require.False(t, ok)
}

func TestParseTargetIDs(t *testing.T) {
	t.Parallel()
	require.Equal(t, []int64{3, 7, 11}, discount.ParseTargetIDs([]byte(`[3,7,11]`)))
	require.Nil(t, discount.ParseTargetIDs(nil))
	require.Nil(t, discount.ParseTargetIDs([]byte(`"oops"`)))
}
