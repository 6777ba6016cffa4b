package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/noah-isme/marketplace-discounts/internal/discount"
)

// DB abstracts the pgx query surface so pools and transactions are interchangeable.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Discounts provides Postgres-backed access to carts, rules, and applied discounts.
type Discounts struct {
	DB     DB
	Logger zerolog.Logger
}

const cartItemsSQL = `
SELECT ci.id, ci.product_id, p.vendor_id, ci.quantity, p.price_cents, p.name, v.name
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
LEFT JOIN vendors v ON v.id = p.vendor_id
WHERE ci.cart_id = $1
ORDER BY p.vendor_id, ci.id`

// CartItems loads the cart snapshot joined with product and vendor metadata.
func (r Discounts) CartItems(ctx context.Context, cartID int64) ([]discount.LineItem, error) {
	rows, err := r.DB.Query(ctx, cartItemsSQL, cartID)
	if err != nil {
		return nil, fmt.Errorf("repo: load cart items: %w", err)
	}
	defer rows.Close()

	var items []discount.LineItem
	for rows.Next() {
		var (
			it         discount.LineItem
			vendorName *string
		)
		if err := rows.Scan(&it.CartItemID, &it.ProductID, &it.VendorID, &it.Qty, &it.UnitPrice, &it.ProductName, &vendorName); err != nil {
			return nil, fmt.Errorf("repo: scan cart item: %w", err)
		}
		if vendorName != nil {
			it.VendorName = *vendorName
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: iterate cart items: %w", err)
	}
	return items, nil
}

const activeRulesSQL = `
SELECT id, vendor_id, name, discount_type, discount_value_cents, discount_percent_bps,
       volume_tiers, min_order_value_cents, max_discount_cents, min_quantity,
       applicable_scope, target_ids, priority, valid_from, valid_until
FROM vendor_discounts
WHERE vendor_id = $1
  AND is_active
  AND is_automatic
  AND valid_from <= $2
  AND (valid_until IS NULL OR valid_until >= $2)
ORDER BY priority DESC, id`

// ActiveAutomaticRules loads the automatic rules valid for the vendor at the
// given instant. Rows with an unparseable policy are skipped with a warning
// rather than failing the whole vendor.
func (r Discounts) ActiveAutomaticRules(ctx context.Context, vendorID int64, now time.Time) ([]discount.Rule, error) {
	rows, err := r.DB.Query(ctx, activeRulesSQL, vendorID, now)
	if err != nil {
		return nil, fmt.Errorf("repo: load vendor rules: %w", err)
	}
	defer rows.Close()

	var rules []discount.Rule
	for rows.Next() {
		var (
			rule       discount.Rule
			kind       string
			amount     int64
			percentBps int32
			tiersJSON  []byte
			scope      string
			targetsRaw []byte
		)
		if err := rows.Scan(
			&rule.DiscountID, &rule.VendorID, &rule.Name, &kind, &amount, &percentBps,
			&tiersJSON, &rule.MinOrderValue, &rule.MaxDiscount, &rule.MinQuantity,
			&scope, &targetsRaw, &rule.Priority, &rule.ValidFrom, &rule.ValidUntil,
		); err != nil {
			return nil, fmt.Errorf("repo: scan vendor rule: %w", err)
		}
		policy, err := discount.ParsePolicy(kind, amount, percentBps, tiersJSON)
		if err != nil {
			r.Logger.Warn().Err(err).Int64("discount_id", rule.DiscountID).Int64("vendor_id", vendorID).Msg("skipping rule with unknown policy")
			continue
		}
		rule.Policy = policy
		rule.Scope = discount.Scope(scope)
		rule.TargetIDs = discount.ParseTargetIDs(targetsRaw)
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: iterate vendor rules: %w", err)
	}
	return rules, nil
}

// CategoryIDs resolves the category of each product in the slice.
func (r Discounts) CategoryIDs(ctx context.Context, productIDs []int64) (map[int64]int64, error) {
	if len(productIDs) == 0 {
		return map[int64]int64{}, nil
	}
	rows, err := r.DB.Query(ctx, `SELECT id, category_id FROM products WHERE id = ANY($1)`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("repo: load categories: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]int64, len(productIDs))
	for rows.Next() {
		var productID int64
		var categoryID *int64
		if err := rows.Scan(&productID, &categoryID); err != nil {
			return nil, fmt.Errorf("repo: scan category: %w", err)
		}
		if categoryID != nil {
			out[productID] = *categoryID
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: iterate categories: %w", err)
	}
	return out, nil
}

const upsertDiscountSQL = `
INSERT INTO cart_vendor_discounts (
	cart_id, vendor_id, discount_id, discount_name, discount_type,
	discount_amount_cents, applied_items, subtotal_before_cents, subtotal_after_cents, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
ON CONFLICT (cart_id, vendor_id) DO UPDATE SET
	discount_id = EXCLUDED.discount_id,
	discount_name = EXCLUDED.discount_name,
	discount_type = EXCLUDED.discount_type,
	discount_amount_cents = EXCLUDED.discount_amount_cents,
	applied_items = EXCLUDED.applied_items,
	subtotal_before_cents = EXCLUDED.subtotal_before_cents,
	subtotal_after_cents = EXCLUDED.subtotal_after_cents,
	updated_at = now()`

// UpsertVendorDiscount writes the applied discount for one vendor, replacing
// any previous row for the same cart and vendor.
func (r Discounts) UpsertVendorDiscount(ctx context.Context, cartID int64, d discount.VendorDiscount) error {
	items, err := json.Marshal(d.Items)
	if err != nil {
		return fmt.Errorf("repo: marshal applied items: %w", err)
	}
	_, err = r.DB.Exec(ctx, upsertDiscountSQL,
		cartID, d.VendorID, d.DiscountID, d.DiscountName, string(d.DiscountType),
		d.Amount, items, d.SubtotalBefore, d.SubtotalAfter,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("repo: cart %d no longer exists: %w", cartID, discount.ErrNotFound)
		}
		return fmt.Errorf("repo: upsert vendor discount: %w", err)
	}
	return nil
}

const vendorDiscountsSQL = `
SELECT vendor_id, COALESCE(v.name, ''), discount_id, discount_name, discount_type,
       discount_amount_cents, applied_items, subtotal_before_cents, subtotal_after_cents
FROM cart_vendor_discounts cvd
LEFT JOIN vendors v ON v.id = cvd.vendor_id
WHERE cvd.cart_id = $1
ORDER BY cvd.vendor_id`

// VendorDiscounts returns the persisted discount rows for a cart.
func (r Discounts) VendorDiscounts(ctx context.Context, cartID int64) ([]discount.VendorDiscount, error) {
	rows, err := r.DB.Query(ctx, vendorDiscountsSQL, cartID)
	if err != nil {
		return nil, fmt.Errorf("repo: load cart discounts: %w", err)
	}
	defer rows.Close()

	var out []discount.VendorDiscount
	for rows.Next() {
		var (
			d        discount.VendorDiscount
			kind     string
			itemsRaw []byte
		)
		if err := rows.Scan(&d.VendorID, &d.VendorName, &d.DiscountID, &d.DiscountName, &kind,
			&d.Amount, &itemsRaw, &d.SubtotalBefore, &d.SubtotalAfter); err != nil {
			return nil, fmt.Errorf("repo: scan cart discount: %w", err)
		}
		d.DiscountType = discount.PolicyKind(kind)
		if len(itemsRaw) > 0 {
			if err := json.Unmarshal(itemsRaw, &d.Items); err != nil {
				return nil, fmt.Errorf("repo: decode applied items: %w", err)
			}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: iterate cart discounts: %w", err)
	}
	return out, nil
}

// DeleteVendorDiscounts removes every persisted discount row for the cart.
func (r Discounts) DeleteVendorDiscounts(ctx context.Context, cartID int64) error {
	if _, err := r.DB.Exec(ctx, `DELETE FROM cart_vendor_discounts WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("repo: delete cart discounts: %w", err)
	}
	return nil
}
