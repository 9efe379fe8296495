package adjustment

import "stockbook/internal/domain/documents"

// MemoryRepository is an in-memory Repository for unit tests.
type MemoryRepository struct {
	*documents.MemoryStore[*InventoryAdjustment, Line]
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{MemoryStore: documents.NewMemoryStore[*InventoryAdjustment, Line]("inventory adjustment", lineOf)}
}

var _ Repository = (*MemoryRepository)(nil)
