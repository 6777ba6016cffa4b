package discount

// VendorGroup is one vendor's slice of the cart, in cart order.
type VendorGroup struct {
	VendorID int64
	Items    []LineItem
}

// GroupByVendor partitions line items per vendor preserving item order within
// each group. Groups appear in first-seen order, which the loader query makes
// vendor-id ascending. An empty cart yields no groups.
func GroupByVendor(items []LineItem) []VendorGroup {
	var groups []VendorGroup
	index := make(map[int64]int, len(items))
	for _, it := range items {
		i, ok := index[it.VendorID]
		if !ok {
			i = len(groups)
			index[it.VendorID] = i
			groups = append(groups, VendorGroup{VendorID: it.VendorID})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

// Eligibility is the scoped view of a vendor group under one rule.
type Eligibility struct {
	Items    []LineItem
	Subtotal Money
	Quantity int32
}

// Eligible checks a rule against a vendor's items. Minimum-order and
// minimum-quantity thresholds are evaluated over the whole vendor group; the
// returned applicable subtotal/quantity cover the scoped items only.
// categories maps productID to categoryID and is consulted only for
// category-scoped rules.
func Eligible(r Rule, items []LineItem, categories map[int64]int64) (Eligibility, bool) {
	var vendorSubtotal Money
	var vendorQty int32
	for _, it := range items {
		vendorSubtotal += it.Subtotal()
		vendorQty += it.Qty
	}
	if vendorSubtotal < r.MinOrderValue || vendorQty < r.MinQuantity {
		return Eligibility{}, false
	}

	scoped := items
	switch r.Scope {
	case ScopeProducts:
		scoped = filterItems(items, func(it LineItem) bool {
			return containsID(r.TargetIDs, it.ProductID)
		})
	case ScopeCategories:
		scoped = filterItems(items, func(it LineItem) bool {
			cat, ok := categories[it.ProductID]
			return ok && containsID(r.TargetIDs, cat)
		})
	}
	if len(scoped) == 0 {
		return Eligibility{}, false
	}

	var e Eligibility
	e.Items = scoped
	for _, it := range scoped {
		e.Subtotal += it.Subtotal()
		e.Quantity += it.Qty
	}
	return e, true
}

func filterItems(items []LineItem, keep func(LineItem) bool) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
