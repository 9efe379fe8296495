package valuation

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/id"
)

// MemoryCostStore is an in-memory CostStore for unit tests.
type MemoryCostStore struct {
	mu    sync.Mutex
	items map[id.ID]ItemCost

	UpdateCalls int
}

// NewMemoryCostStore creates an empty store.
func NewMemoryCostStore() *MemoryCostStore {
	return &MemoryCostStore{items: make(map[id.ID]ItemCost)}
}

// AddInventoryItem registers a tracked product with a starting average.
func (m *MemoryCostStore) AddInventoryItem(itemID id.ID, avg decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[itemID] = ItemCost{Tracked: true, AverageCost: avg}
}

// AddServiceItem registers an untracked product.
func (m *MemoryCostStore) AddServiceItem(itemID id.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[itemID] = ItemCost{}
}

// AverageCost returns the stored average of a product.
func (m *MemoryCostStore) AverageCost(itemID id.ID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[itemID].AverageCost
}

// TrackedItems lets the store double as the stock item-kind lookup.
func (m *MemoryCostStore) TrackedItems(_ context.Context, itemIDs []id.ID) (map[id.ID]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[id.ID]bool, len(itemIDs))
	for _, itemID := range itemIDs {
		if c, ok := m.items[itemID]; ok {
			out[itemID] = c.Tracked
		}
	}
	return out, nil
}

func (m *MemoryCostStore) ItemCosts(_ context.Context, itemIDs []id.ID) (map[id.ID]ItemCost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[id.ID]ItemCost, len(itemIDs))
	for _, itemID := range itemIDs {
		if c, ok := m.items[itemID]; ok {
			out[itemID] = c
		}
	}
	return out, nil
}

func (m *MemoryCostStore) UpdateAverageCost(_ context.Context, itemID id.ID, cost decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.items[itemID]
	c.AverageCost = cost
	m.items[itemID] = c
	m.UpdateCalls++
	return nil
}

var _ CostStore = (*MemoryCostStore)(nil)
