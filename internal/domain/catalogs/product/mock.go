package product

import (
	"context"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/id"
	"stockbook/internal/domain"
)

// MemoryRepository is an in-memory Repository for unit tests.
type MemoryRepository struct {
	*domain.MemoryCatalogRepository[*Product]
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{MemoryCatalogRepository: domain.NewMemoryCatalogRepository[*Product]()}
}

func (m *MemoryRepository) GetCosts(ctx context.Context, ids []id.ID) ([]Cost, error) {
	out := make([]Cost, 0, len(ids))
	for _, productID := range ids {
		p, err := m.GetByID(ctx, productID)
		if err != nil {
			continue
		}
		out = append(out, Cost{ID: p.ID, Type: p.Type, AverageCost: p.AverageCost})
	}
	return out, nil
}

func (m *MemoryRepository) SetAverageCost(ctx context.Context, productID id.ID, cost decimal.Decimal) error {
	p, err := m.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	p.AverageCost = cost
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
