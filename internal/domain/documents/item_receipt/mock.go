package item_receipt

import (
	"context"

	"stockbook/internal/core/id"
	"stockbook/internal/domain/documents"
)

// MemoryRepository is an in-memory Repository for unit tests.
type MemoryRepository struct {
	*documents.MemoryStore[*ItemReceipt, Line]
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{MemoryStore: documents.NewMemoryStore[*ItemReceipt, Line]("item receipt", lineOf)}
}

func (m *MemoryRepository) Billed() documents.ParentStore {
	return m.Counter(billedOf, true)
}

func (m *MemoryRepository) OrderLines(ctx context.Context, lineIDs []id.ID) (map[id.ID]id.ID, error) {
	rows, err := m.Billed().LockParentLines(ctx, lineIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[id.ID]id.ID, len(rows))
	for _, r := range rows {
		lines, err := m.GetLines(ctx, r.DocumentID)
		if err != nil {
			return nil, err
		}
		for _, l := range lines {
			if l.LineID == r.LineID && !id.IsNilPtr(l.PurchaseOrderLineID) {
				out[l.LineID] = *l.PurchaseOrderLineID
			}
		}
	}
	return out, nil
}

var _ Repository = (*MemoryRepository)(nil)
