package vendor_credit

import "stockbook/internal/domain/documents"

// MemoryRepository is an in-memory Repository for unit tests.
type MemoryRepository struct {
	*documents.MemoryStore[*VendorCredit, Line]
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{MemoryStore: documents.NewMemoryStore[*VendorCredit, Line]("vendor credit", lineOf)}
}

var _ Repository = (*MemoryRepository)(nil)
