package product

import (
	"context"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/id"
	"stockbook/internal/domain"
)

// Cost is the costing projection of one product row.
type Cost struct {
	ID          id.ID           `db:"id"`
	Type        Type            `db:"type"`
	AverageCost decimal.Decimal `db:"average_cost"`
}

// Repository defines the interface for product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetCosts loads type and average cost for many products in one query.
	// Rows are locked FOR UPDATE when ctx carries a transaction.
	GetCosts(ctx context.Context, ids []id.ID) ([]Cost, error)

	// SetAverageCost writes the average cost without touching the version.
	SetAverageCost(ctx context.Context, productID id.ID, cost decimal.Decimal) error
}
