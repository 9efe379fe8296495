package vendor_bill

import (
	"context"

	"stockbook/internal/core/id"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/item_receipt"
)

// Repository persists vendor bills.
type Repository interface {
	documents.Store[*VendorBill, Line]

	// Credited is the quantity_credited counter, reconciled by vendor credits.
	// Bill status follows it.
	Credited() documents.ParentStore
}

// Receipts is what bills need from item receipts.
type Receipts interface {
	GetByID(ctx context.Context, docID id.ID) (*item_receipt.ItemReceipt, error)
	Billed() documents.ParentStore
	OrderLines(ctx context.Context, lineIDs []id.ID) (map[id.ID]id.ID, error)
}

// Orders is what bills need from purchase orders.
type Orders interface {
	Billed() documents.ParentStore
}
