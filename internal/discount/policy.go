package discount

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// PolicyKind tags the discount formula a rule uses.
type PolicyKind string

// Supported policy kinds. The strings match the discount_type column.
const (
	KindPercentage  PolicyKind = "percentage"
	KindFixedAmount PolicyKind = "fixed_amount"
	KindTiered      PolicyKind = "tiered"
	KindBulkPricing PolicyKind = "bulk_pricing"
)

// ErrUnknownPolicyKind is returned when a rule row carries an unrecognised
// discount_type value.
var ErrUnknownPolicyKind = errors.New("discount: unknown policy kind")

// Tier is one quantity band of a tiered or bulk-pricing rule. MaxQty nil
// means open-ended. PercentBps takes precedence over Amount when both are set.
type Tier struct {
	MinQty     int32  `json:"min_qty"`
	MaxQty     *int32 `json:"max_qty,omitempty"`
	PercentBps *int32 `json:"percent_bps,omitempty"`
	Amount     *Money `json:"amount,omitempty"`
}

// Matches reports whether the quantity falls inside the tier band.
func (t Tier) Matches(qty int32) bool {
	if qty < t.MinQty {
		return false
	}
	return t.MaxQty == nil || qty <= *t.MaxQty
}

// Policy is the parsed, strongly-typed form of a rule's discount_type plus
// its value/percent/volume_tiers columns.
type Policy struct {
	Kind       PolicyKind `json:"kind"`
	PercentBps int32      `json:"percentBps,omitempty"`
	Amount     Money      `json:"amount,omitempty"`
	Tiers      []Tier     `json:"tiers,omitempty"`
}

// ParsePolicy builds a Policy from raw rule columns. Tiers are decoded from
// jsonb and normalised; a malformed tiers payload yields a policy with no
// tiers, which simply computes to zero instead of failing the whole vendor
// over one dirty rule row.
func ParsePolicy(kind string, amount Money, percentBps int32, tiersJSON []byte) (Policy, error) {
	p := Policy{Kind: PolicyKind(kind), Amount: amount, PercentBps: percentBps}
	switch p.Kind {
	case KindPercentage, KindFixedAmount:
		return p, nil
	case KindTiered, KindBulkPricing:
		p.Tiers = parseTiers(tiersJSON)
		return p, nil
	default:
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownPolicyKind, kind)
	}
}

func parseTiers(raw []byte) []Tier {
	if len(raw) == 0 {
		return nil
	}
	var tiers []Tier
	if err := json.Unmarshal(raw, &tiers); err != nil {
		return nil
	}
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].MinQty < tiers[j].MinQty })
	out := tiers[:0]
	var prevMax *int32
	for _, t := range tiers {
		if t.MinQty < 0 {
			continue
		}
		if t.MaxQty != nil && *t.MaxQty < t.MinQty {
			continue
		}
		// an earlier open-ended tier shadows everything after it
		if prevMax == nil && len(out) > 0 {
			continue
		}
		// drop bands overlapping the previous one
		if prevMax != nil && t.MinQty <= *prevMax {
			continue
		}
		out = append(out, t)
		prevMax = t.MaxQty
	}
	return out
}

// ParseTargetIDs decodes the jsonb target_ids column. Malformed payloads
// yield nil, which makes a scoped rule match nothing.
func ParseTargetIDs(raw []byte) []int64 {
	if len(raw) == 0 {
		return nil
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil
	}
	return ids
}

// MatchTier returns the tier containing qty, if any.
func MatchTier(tiers []Tier, qty int32) (Tier, bool) {
	for _, t := range tiers {
		if t.Matches(qty) {
			return t, true
		}
	}
	return Tier{}, false
}
