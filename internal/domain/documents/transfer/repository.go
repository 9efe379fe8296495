package transfer

import "stockbook/internal/domain/documents"

// Repository persists inventory transfers.
type Repository interface {
	documents.Store[*InventoryTransfer, Line]
}
