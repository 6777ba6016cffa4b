package discount

import "time"

// Money represents a monetary value stored in minor units.
type Money = int64

// Scope controls which of a vendor's cart items a rule may discount.
type Scope string

// Supported rule scopes.
const (
	ScopeAll        Scope = "all"
	ScopeProducts   Scope = "specific_products"
	ScopeCategories Scope = "specific_categories"
)

// LineItem is an immutable snapshot of a cart line joined with product and
// vendor metadata, read once at evaluation time.
type LineItem struct {
	CartItemID  int64
	ProductID   int64
	VendorID    int64
	Qty         int32
	UnitPrice   Money
	ProductName string
	VendorName  string
}

// Subtotal returns quantity times unit price.
func (it LineItem) Subtotal() Money {
	if it.Qty <= 0 || it.UnitPrice <= 0 {
		return 0
	}
	return Money(it.Qty) * it.UnitPrice
}

// Rule is a vendor-authored automatic promotion. It is read-only to the
// engine; jsonb columns are parsed into Policy once at load time.
type Rule struct {
	DiscountID    int64
	VendorID      int64
	Name          string
	Policy        Policy
	MinOrderValue Money
	MaxDiscount   *Money
	MinQuantity   int32
	Scope         Scope
	TargetIDs     []int64
	Priority      int32
	ValidFrom     time.Time
	ValidUntil    *time.Time
}

// AppliedItem records the allocation of a vendor discount onto one cart line.
type AppliedItem struct {
	CartItemID      int64 `json:"cartItemId"`
	OriginalPrice   Money `json:"originalPrice"`
	DiscountedPrice Money `json:"discountedPrice"`
	Amount          Money `json:"discountAmount"`
}

// VendorDiscount is the engine output for one vendor: the winning rule, the
// total amount, and the per-item allocation.
type VendorDiscount struct {
	VendorID       int64         `json:"vendorId"`
	VendorName     string        `json:"vendorName"`
	DiscountID     int64         `json:"discountId"`
	DiscountName   string        `json:"discountName"`
	DiscountType   PolicyKind    `json:"discountType"`
	Amount         Money         `json:"discountAmount"`
	Items          []AppliedItem `json:"appliedItems"`
	SubtotalBefore Money         `json:"subtotalBefore"`
	SubtotalAfter  Money         `json:"subtotalAfter"`
}

// Result aggregates a full cart evaluation.
type Result struct {
	Applied          []VendorDiscount `json:"appliedDiscounts"`
	TotalDiscount    Money            `json:"totalDiscountAmount"`
	VendorsProcessed int              `json:"vendorsProcessed"`
}
