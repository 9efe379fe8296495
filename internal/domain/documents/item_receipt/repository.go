package item_receipt

import (
	"context"

	"stockbook/internal/core/id"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/purchase_order"
)

// Repository persists item receipts.
type Repository interface {
	documents.Store[*ItemReceipt, Line]

	// Billed is the quantity_billed counter, reconciled by vendor bills.
	// Receipt status follows it.
	Billed() documents.ParentStore
	// OrderLines maps receipt lines to the purchase order lines they received.
	// Lines without an order line are absent.
	OrderLines(ctx context.Context, lineIDs []id.ID) (map[id.ID]id.ID, error)
}

// Orders is what receipts need from purchase orders.
type Orders interface {
	GetByID(ctx context.Context, docID id.ID) (*purchase_order.PurchaseOrder, error)
	Received() documents.ParentStore
}
