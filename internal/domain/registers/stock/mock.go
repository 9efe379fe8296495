package stock

import (
	"context"
	"sort"
	"sync"
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// MemoryRepository is an in-memory Repository for unit tests.
// It counts write round trips so tests can assert batching.
type MemoryRepository struct {
	mu     sync.Mutex
	levels map[Key]Level

	// FailLookup makes FindLevels report an error for these pairs.
	FailLookup map[Key]error
	// FailWrites makes UpdateLevels and CreateLevels fail.
	FailWrites error

	UpdateCalls int
	CreateCalls int
	FindCalls   int
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{levels: make(map[Key]Level)}
}

// Seed stores on-hand for a pair directly.
func (m *MemoryRepository) Seed(itemID, locationID id.ID, qty types.Quantity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := Key{ItemID: itemID, LocationID: locationID}
	m.levels[k] = NewLevel(k, qty, nil)
}

// Quantity returns stored on-hand for a pair (zero when absent).
func (m *MemoryRepository) Quantity(itemID, locationID id.ID) types.Quantity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[Key{ItemID: itemID, LocationID: locationID}].QuantityAvailable
}

// Writes returns the number of write round trips so far.
func (m *MemoryRepository) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.UpdateCalls + m.CreateCalls
}

func (m *MemoryRepository) GetLevel(_ context.Context, key Key) (Level, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.levels[key]
	if !ok {
		return Level{}, apperror.NewNotFound("inventory_level", key)
	}
	return l, nil
}

func (m *MemoryRepository) FindLevels(_ context.Context, keys []Key) []Lookup {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCalls++
	out := make([]Lookup, len(keys))
	for i, k := range keys {
		out[i].Key = k
		if err := m.FailLookup[k]; err != nil {
			out[i].Err = err
			continue
		}
		out[i].Level, out[i].Found = m.levels[k]
	}
	return out
}

func (m *MemoryRepository) UpdateLevels(_ context.Context, levels []Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.FailWrites != nil {
		return m.FailWrites
	}
	for _, l := range levels {
		if _, ok := m.levels[l.Key()]; !ok {
			return apperror.NewNotFound("inventory_level", l.ID)
		}
		l.UpdatedAt = time.Now().UTC()
		m.levels[l.Key()] = l
	}
	return nil
}

func (m *MemoryRepository) CreateLevels(_ context.Context, levels []Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.FailWrites != nil {
		return m.FailWrites
	}
	for _, l := range levels {
		if _, ok := m.levels[l.Key()]; ok {
			return apperror.NewDuplicate("inventory_level", "item_id,location_id", l.ItemID.String())
		}
		m.levels[l.Key()] = l
	}
	return nil
}

func (m *MemoryRepository) TotalQuantity(_ context.Context, itemID id.ID) (types.Quantity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total types.Quantity
	for k, l := range m.levels {
		if k.ItemID == itemID {
			total += l.QuantityAvailable
		}
	}
	return total, nil
}

func (m *MemoryRepository) TotalQuantities(ctx context.Context, itemIDs []id.ID) (map[id.ID]types.Quantity, error) {
	out := make(map[id.ID]types.Quantity, len(itemIDs))
	for _, itemID := range itemIDs {
		total, _ := m.TotalQuantity(ctx, itemID)
		out[itemID] = total
	}
	return out, nil
}

func (m *MemoryRepository) ListLevels(_ context.Context, f LevelFilter) ([]Level, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Level
	for _, l := range m.levels {
		if f.ItemID != nil && l.ItemID != *f.ItemID {
			continue
		}
		if f.LocationID != nil && l.LocationID != *f.LocationID {
			continue
		}
		if f.ExcludeZero && l.QuantityAvailable == 0 {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	total := int64(len(out))
	if f.Offset < len(out) {
		out = out[f.Offset:]
	} else {
		out = nil
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

// StaticKinds is an ItemKindLookup backed by a fixed set of service items.
// Every other id is treated as an inventory item.
type StaticKinds struct {
	Services map[id.ID]bool
}

func (k StaticKinds) TrackedItems(_ context.Context, itemIDs []id.ID) (map[id.ID]bool, error) {
	out := make(map[id.ID]bool, len(itemIDs))
	for _, itemID := range itemIDs {
		if !k.Services[itemID] {
			out[itemID] = true
		}
	}
	return out, nil
}

var (
	_ Repository     = (*MemoryRepository)(nil)
	_ ItemKindLookup = StaticKinds{}
)
