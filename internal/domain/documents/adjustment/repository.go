package adjustment

import "stockbook/internal/domain/documents"

// Repository persists inventory adjustments.
type Repository interface {
	documents.Store[*InventoryAdjustment, Line]
}
