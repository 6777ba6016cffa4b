package discount

// Compute determines the candidate discount amount for a rule given the
// applicable subtotal and quantity of its scoped items. The amount is clamped
// to the rule's maximum and to the applicable subtotal, and is never negative.
func Compute(r Rule, e Eligibility) Money {
	if e.Subtotal <= 0 {
		return 0
	}

	var amount Money
	switch r.Policy.Kind {
	case KindPercentage:
		if r.Policy.PercentBps > 0 {
			amount = (e.Subtotal * Money(r.Policy.PercentBps)) / 10000
		}
	case KindFixedAmount:
		amount = r.Policy.Amount
	case KindTiered:
		if tier, ok := MatchTier(r.Policy.Tiers, e.Quantity); ok {
			switch {
			case tier.PercentBps != nil && *tier.PercentBps > 0:
				amount = (e.Subtotal * Money(*tier.PercentBps)) / 10000
			case tier.Amount != nil:
				amount = *tier.Amount
			}
		}
	case KindBulkPricing:
		// amount-only tiers are not honoured for bulk pricing
		if tier, ok := MatchTier(r.Policy.Tiers, e.Quantity); ok {
			if tier.PercentBps != nil && *tier.PercentBps > 0 {
				amount = (e.Subtotal * Money(*tier.PercentBps)) / 10000
			}
		}
	}

	if r.MaxDiscount != nil && amount > *r.MaxDiscount {
		amount = *r.MaxDiscount
	}
	if amount > e.Subtotal {
		amount = e.Subtotal
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}
