package discount_test

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/marketplace-discounts/internal/discount"
)

func money(v int64) *discount.Money {
	m := discount.Money(v)
	return &m
}

func bps(v int32) *int32 { return &v }

func qty(v int32) *int32 { return &v }

func item(cartItemID, productID, vendorID int64, quantity int32, unitPrice int64, productName, vendorName string) discount.LineItem {
	return discount.LineItem{
		CartItemID:  cartItemID,
		ProductID:   productID,
		VendorID:    vendorID,
		Qty:         quantity,
		UnitPrice:   unitPrice,
		ProductName: productName,
		VendorName:  vendorName,
	}
}

func percentageRule(id, vendorID int64, name string, percentBps int32) discount.Rule {
	return discount.Rule{
		DiscountID: id,
		VendorID:   vendorID,
		Name:       name,
		Policy:     discount.Policy{Kind: discount.KindPercentage, PercentBps: percentBps},
		Scope:      discount.ScopeAll,
		ValidFrom:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

type upsertCall struct {
	cartID int64
	d      discount.VendorDiscount
}

type mockRepo struct {
	mu sync.Mutex

	items    []discount.LineItem
	itemsErr error

	rules    map[int64][]discount.Rule
	rulesErr map[int64]error

	categories    map[int64]int64
	categoriesErr error

	upserts   []upsertCall
	upsertErr error

	stored    []discount.VendorDiscount
	storedErr error

	deleted   []int64
	deleteErr error
}

func (m *mockRepo) CartItems(_ context.Context, _ int64) ([]discount.LineItem, error) {
	if m.itemsErr != nil {
		return nil, m.itemsErr
	}
	return m.items, nil
}

func (m *mockRepo) ActiveAutomaticRules(_ context.Context, vendorID int64, _ time.Time) ([]discount.Rule, error) {
	if err := m.rulesErr[vendorID]; err != nil {
		return nil, err
	}
	return m.rules[vendorID], nil
}

func (m *mockRepo) CategoryIDs(_ context.Context, _ []int64) (map[int64]int64, error) {
	if m.categoriesErr != nil {
		return nil, m.categoriesErr
	}
	return m.categories, nil
}

func (m *mockRepo) UpsertVendorDiscount(_ context.Context, cartID int64, d discount.VendorDiscount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts = append(m.upserts, upsertCall{cartID: cartID, d: d})
	return m.upsertErr
}

func (m *mockRepo) VendorDiscounts(_ context.Context, _ int64) ([]discount.VendorDiscount, error) {
	if m.storedErr != nil {
		return nil, m.storedErr
	}
	return m.stored, nil
}

func (m *mockRepo) DeleteVendorDiscounts(_ context.Context, cartID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, cartID)
	return m.deleteErr
}

func (m *mockRepo) upsertCalls() []upsertCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]upsertCall, len(m.upserts))
	copy(out, m.upserts)
	return out
}

type mockScheduler struct {
	mu    sync.Mutex
	calls []upsertCall
	err   error
}

func (m *mockScheduler) SchedulePersist(_ context.Context, _ string, cartID int64, d discount.VendorDiscount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, upsertCall{cartID: cartID, d: d})
	return m.err
}

func (m *mockScheduler) scheduled() []upsertCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]upsertCall, len(m.calls))
	copy(out, m.calls)
	return out
}
