package purchase_order

import (
	"stockbook/internal/core/types"
	"stockbook/internal/domain/documents"
)

// MemoryRepository is an in-memory Repository for unit tests.
type MemoryRepository struct {
	*documents.MemoryStore[*PurchaseOrder, Line]
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{MemoryStore: documents.NewMemoryStore[*PurchaseOrder, Line]("purchase order", lineOf)}
}

func (m *MemoryRepository) Received() documents.ParentStore {
	return m.Counter(func(l *Line) *types.Quantity { return &l.QuantityReceived }, true)
}

func (m *MemoryRepository) Billed() documents.ParentStore {
	return m.Counter(func(l *Line) *types.Quantity { return &l.QuantityBilled }, false)
}

var _ Repository = (*MemoryRepository)(nil)
