package transfer

import "stockbook/internal/domain/documents"

// MemoryRepository is an in-memory Repository for unit tests.
type MemoryRepository struct {
	*documents.MemoryStore[*InventoryTransfer, Line]
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{MemoryStore: documents.NewMemoryStore[*InventoryTransfer, Line]("inventory transfer", lineOf)}
}

var _ Repository = (*MemoryRepository)(nil)
