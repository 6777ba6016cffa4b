package discount

import "sort"

// Allocate distributes amount across the scoped items proportionally to each
// item's share of the applicable subtotal. Integer remainders left by the
// proportional division are assigned one minor unit at a time to the items
// with the largest fractional share, so the allocations always sum exactly to
// amount. A zero applicable subtotal yields no allocation.
func Allocate(items []LineItem, applicableSubtotal, amount Money) []AppliedItem {
	if applicableSubtotal <= 0 || amount <= 0 || len(items) == 0 {
		return nil
	}

	type share struct {
		idx       int
		base      Money
		remainder Money
	}
	shares := make([]share, len(items))
	var allocated Money
	for i, it := range items {
		scaled := amount * it.Subtotal()
		shares[i] = share{
			idx:       i,
			base:      scaled / applicableSubtotal,
			remainder: scaled % applicableSubtotal,
		}
		allocated += shares[i].base
	}

	leftover := amount - allocated
	if leftover > 0 {
		order := make([]share, len(shares))
		copy(order, shares)
		sort.SliceStable(order, func(i, j int) bool { return order[i].remainder > order[j].remainder })
		for i := 0; leftover > 0 && i < len(order); i++ {
			shares[order[i].idx].base++
			leftover--
		}
	}

	out := make([]AppliedItem, len(items))
	for i, it := range items {
		itemAmount := shares[i].base
		discounted := it.UnitPrice
		if it.Qty > 0 {
			discounted = it.UnitPrice - itemAmount/Money(it.Qty)
		}
		if discounted < 0 {
			discounted = 0
		}
		out[i] = AppliedItem{
			CartItemID:      it.CartItemID,
			OriginalPrice:   it.UnitPrice,
			DiscountedPrice: discounted,
			Amount:          itemAmount,
		}
	}
	return out
}
