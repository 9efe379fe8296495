package vendor_bill

import "stockbook/internal/domain/documents"

// MemoryRepository is an in-memory Repository for unit tests.
type MemoryRepository struct {
	*documents.MemoryStore[*VendorBill, Line]
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{MemoryStore: documents.NewMemoryStore[*VendorBill, Line]("vendor bill", lineOf)}
}

func (m *MemoryRepository) Credited() documents.ParentStore {
	return m.Counter(creditedOf, true)
}

var _ Repository = (*MemoryRepository)(nil)
