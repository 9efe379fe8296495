// Package item_receipt provides the ItemReceipt document: goods received
// into a location, optionally against a purchase order.
package item_receipt

import (
	"context"
	"fmt"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/reconcile"
)

// DocType names item receipts in audit entries, events and locks.
const DocType = "item_receipt"

// ItemReceipt records goods arriving from a vendor.
type ItemReceipt struct {
	documents.Header

	VendorID   id.ID `db:"vendor_id" json:"vendorId"`
	LocationID id.ID `db:"location_id" json:"locationId"`

	// PurchaseOrderID is set when the receipt fulfils an order.
	PurchaseOrderID *id.ID `db:"purchase_order_id" json:"purchaseOrderId,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is a received item.
type Line struct {
	documents.Line

	PurchaseOrderLineID *id.ID `db:"purchase_order_line_id" json:"purchaseOrderLineId,omitempty"`

	// Maintained by vendor bills; client values are ignored.
	QuantityBilled types.Quantity `db:"quantity_billed" json:"quantityBilled"`
}

func lineOf(l *Line) *documents.Line { return &l.Line }

func billedOf(l *Line) *types.Quantity { return &l.QuantityBilled }

// NewItemReceipt creates an open receipt.
func NewItemReceipt(vendorID, locationID id.ID) *ItemReceipt {
	return &ItemReceipt{
		Header:     documents.NewHeader(),
		VendorID:   vendorID,
		LocationID: locationID,
	}
}

// Validate implements entity.Validatable.
func (r *ItemReceipt) Validate(ctx context.Context) error {
	if err := r.ValidateHeader(ctx); err != nil {
		return err
	}
	if id.IsNil(r.VendorID) {
		return apperror.NewValidation("vendor is required").WithDetail("field", "vendorId")
	}
	if id.IsNil(r.LocationID) {
		return apperror.NewValidation("location is required").WithDetail("field", "locationId")
	}
	for i, l := range r.Lines {
		if !id.IsNilPtr(l.PurchaseOrderLineID) && id.IsNilPtr(r.PurchaseOrderID) {
			return apperror.NewValidation("purchase order line given without a purchase order").
				WithDetail("field", fmt.Sprintf("lines[%d].purchaseOrderLineId", i))
		}
	}
	return nil
}

// Clone copies the header without lines.
func (r *ItemReceipt) Clone() *ItemReceipt {
	c := *r
	c.Lines = nil
	return &c
}

// orderRefs is how the receipt's lines consume purchase order lines.
func orderRefs(lines []Line) []reconcile.LineRef {
	refs := make([]reconcile.LineRef, len(lines))
	for i, l := range lines {
		refs[i] = reconcile.LineRef{Key: l.Key(), ParentLineID: l.PurchaseOrderLineID, Quantity: l.Quantity}
	}
	return refs
}
