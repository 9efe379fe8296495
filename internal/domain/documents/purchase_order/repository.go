package purchase_order

import (
	"stockbook/internal/domain/documents"
)

// Repository persists purchase orders and exposes their line counters to the
// documents that consume them.
type Repository interface {
	documents.Store[*PurchaseOrder, Line]

	// Received is the quantity_received counter, reconciled by item receipts.
	// Order status follows it.
	Received() documents.ParentStore
	// Billed is the quantity_billed counter, rolled up from vendor bills.
	Billed() documents.ParentStore
}
