package stock

import (
	"context"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// Repository persists inventory levels.
type Repository interface {
	// GetLevel returns the level of key or a NOT_FOUND AppError.
	GetLevel(ctx context.Context, key Key) (Level, error)

	// FindLevels checks existence of every key in one round trip.
	// Inside a transaction the found rows are locked until commit.
	FindLevels(ctx context.Context, keys []Key) []Lookup

	// UpdateLevels writes absolute quantities of existing levels in one round trip.
	UpdateLevels(ctx context.Context, levels []Level) error

	// CreateLevels inserts new levels in one round trip.
	CreateLevels(ctx context.Context, levels []Level) error

	// TotalQuantity sums on-hand of an item across all locations.
	TotalQuantity(ctx context.Context, itemID id.ID) (types.Quantity, error)

	// TotalQuantities sums on-hand per item for several items.
	TotalQuantities(ctx context.Context, itemIDs []id.ID) (map[id.ID]types.Quantity, error)

	ListLevels(ctx context.Context, filter LevelFilter) ([]Level, int64, error)
}

// ItemKindLookup tells inventory items from service items.
type ItemKindLookup interface {
	// TrackedItems returns the subset of itemIDs that carry inventory.
	// Unknown ids are absent from the result.
	TrackedItems(ctx context.Context, itemIDs []id.ID) (map[id.ID]bool, error)
}
