// Package vendor_bill provides the VendorBill document: a vendor invoice,
// optionally matched to an item receipt.
package vendor_bill

import (
	"context"
	"fmt"
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/reconcile"
)

// DocType names vendor bills in audit entries, events and locks.
const DocType = "vendor_bill"

// DefaultTermsDays applies when no vendor terms are configured.
const DefaultTermsDays = 30

// VendorBill is an invoice from a vendor. It has no inventory effect.
type VendorBill struct {
	documents.Header

	VendorID id.ID     `db:"vendor_id" json:"vendorId"`
	DueDate  time.Time `db:"due_date" json:"dueDate"`

	// ItemReceiptID is set when the bill is matched to a receipt.
	ItemReceiptID *id.ID `db:"item_receipt_id" json:"itemReceiptId,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is a billed item.
type Line struct {
	documents.Line

	ItemReceiptLineID *id.ID `db:"item_receipt_line_id" json:"itemReceiptLineId,omitempty"`

	// Maintained by vendor credits; client values are ignored.
	QuantityCredited types.Quantity `db:"quantity_credited" json:"quantityCredited"`
}

func lineOf(l *Line) *documents.Line { return &l.Line }

// Matched reports whether the line bills received goods.
func (l Line) Matched() bool {
	return !id.IsNilPtr(l.ItemReceiptLineID)
}

// NewVendorBill creates an open bill.
func NewVendorBill(vendorID id.ID) *VendorBill {
	return &VendorBill{Header: documents.NewHeader(), VendorID: vendorID}
}

// Validate implements entity.Validatable.
func (b *VendorBill) Validate(ctx context.Context) error {
	if err := b.ValidateHeader(ctx); err != nil {
		return err
	}
	if id.IsNil(b.VendorID) {
		return apperror.NewValidation("vendor is required").WithDetail("field", "vendorId")
	}
	if b.DueDate.Before(b.Date) {
		return apperror.NewValidation("due date cannot be before the bill date").WithDetail("field", "dueDate")
	}
	for i, l := range b.Lines {
		if l.Matched() && id.IsNilPtr(b.ItemReceiptID) {
			return apperror.NewValidation("item receipt line given without an item receipt").
				WithDetail("field", fmt.Sprintf("lines[%d].itemReceiptLineId", i))
		}
	}
	return nil
}

// Clone copies the header without lines.
func (b *VendorBill) Clone() *VendorBill {
	c := *b
	c.Lines = nil
	return &c
}

func receiptRefs(lines []Line) []reconcile.LineRef {
	refs := make([]reconcile.LineRef, len(lines))
	for i, l := range lines {
		refs[i] = reconcile.LineRef{Key: l.Key(), ParentLineID: l.ItemReceiptLineID, Quantity: l.Quantity}
	}
	return refs
}
