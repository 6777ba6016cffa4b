package discount

// Selection is the winning rule for a vendor group together with the scoped
// eligibility view it was computed against.
type Selection struct {
	Rule        Rule
	Eligibility Eligibility
	Amount      Money
}

// SelectBest evaluates every rule against the vendor's items and returns the
// one producing the strictly greatest discount amount. Rules arrive ordered
// priority DESC, discount_id ASC, and ties keep the first-seen rule, so
// priority acts purely as a stable tie-break. ok is false when no rule is
// eligible or every eligible rule computes to zero.
func SelectBest(rules []Rule, items []LineItem, categories map[int64]int64) (Selection, bool) {
	var best Selection
	for _, r := range rules {
		e, eligible := Eligible(r, items, categories)
		if !eligible {
			continue
		}
		amount := Compute(r, e)
		if amount > best.Amount {
			best = Selection{Rule: r, Eligibility: e, Amount: amount}
		}
	}
	return best, best.Amount > 0
}

// Apply turns a selection into the vendor-level output: the discount is
// allocated across the scoped items while subtotals are recorded over the
// whole vendor group, not just the scoped items.
func Apply(sel Selection, group VendorGroup, vendorName string) VendorDiscount {
	var vendorSubtotal Money
	for _, it := range group.Items {
		vendorSubtotal += it.Subtotal()
	}
	return VendorDiscount{
		VendorID:       group.VendorID,
		VendorName:     vendorName,
		DiscountID:     sel.Rule.DiscountID,
		DiscountName:   sel.Rule.Name,
		DiscountType:   sel.Rule.Policy.Kind,
		Amount:         sel.Amount,
		Items:          Allocate(sel.Eligibility.Items, sel.Eligibility.Subtotal, sel.Amount),
		SubtotalBefore: vendorSubtotal,
		SubtotalAfter:  vendorSubtotal - sel.Amount,
	}
}

// VendorDisplayName returns the first non-empty vendor name carried by the
// group's items. An empty result marks a data-integrity gap the caller must
// treat as skip-with-warning.
func VendorDisplayName(items []LineItem) string {
	for _, it := range items {
		if it.VendorName != "" {
			return it.VendorName
		}
	}
	return ""
}

// NeedsCategories reports whether any rule requires a category lookup.
func NeedsCategories(rules []Rule) bool {
	for _, r := range rules {
		if r.Scope == ScopeCategories {
			return true
		}
	}
	return false
}
