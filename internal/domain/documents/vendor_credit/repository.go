package vendor_credit

import (
	"context"

	"stockbook/internal/core/id"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/vendor_bill"
)

// Repository persists vendor credits.
type Repository interface {
	documents.Store[*VendorCredit, Line]
}

// Bills is what credits need from vendor bills.
type Bills interface {
	GetByID(ctx context.Context, docID id.ID) (*vendor_bill.VendorBill, error)
	Credited() documents.ParentStore
}
