// Package purchase_order provides the PurchaseOrder document.
package purchase_order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/documents"
)

// DocType names purchase orders in audit entries, events and locks.
const DocType = "purchase_order"

// PurchaseOrder is an order placed with a vendor. Item receipts consume its
// lines; the order closes once every line is fully received.
type PurchaseOrder struct {
	documents.Header

	VendorID id.ID `db:"vendor_id" json:"vendorId"`

	// Location the goods are expected at
	LocationID   id.ID      `db:"location_id" json:"locationId"`
	ExpectedDate *time.Time `db:"expected_date" json:"expectedDate,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is an ordered item with its receipt and billing progress.
type Line struct {
	documents.Line

	// Maintained by item receipts and vendor bills; client values are ignored.
	QuantityReceived types.Quantity `db:"quantity_received" json:"quantityReceived"`
	QuantityBilled   types.Quantity `db:"quantity_billed" json:"quantityBilled"`
}

func lineOf(l *Line) *documents.Line { return &l.Line }

// Remaining is what is still to be received.
func (l Line) Remaining() types.Quantity {
	if r := l.Quantity - l.QuantityReceived; r > 0 {
		return r
	}
	return 0
}

// NewPurchaseOrder creates an open order.
func NewPurchaseOrder(vendorID, locationID id.ID) *PurchaseOrder {
	return &PurchaseOrder{
		Header:     documents.NewHeader(),
		VendorID:   vendorID,
		LocationID: locationID,
	}
}

// Validate implements entity.Validatable.
func (po *PurchaseOrder) Validate(ctx context.Context) error {
	if err := po.ValidateHeader(ctx); err != nil {
		return err
	}
	if id.IsNil(po.VendorID) {
		return apperror.NewValidation("vendor is required").WithDetail("field", "vendorId")
	}
	if id.IsNil(po.LocationID) {
		return apperror.NewValidation("location is required").WithDetail("field", "locationId")
	}
	if po.ExpectedDate != nil && po.ExpectedDate.Before(po.Date) {
		return apperror.NewValidation("expected date cannot be before the order date").
			WithDetail("field", "expectedDate")
	}
	return nil
}

// Clone copies the header without lines.
func (po *PurchaseOrder) Clone() *PurchaseOrder {
	c := *po
	c.Lines = nil
	return &c
}

// ReceiptDraft prefills an item receipt with what is left to receive.
type ReceiptDraft struct {
	PurchaseOrderID id.ID       `json:"purchaseOrderId"`
	VendorID        id.ID       `json:"vendorId"`
	LocationID      id.ID       `json:"locationId"`
	Lines           []DraftLine `json:"lines"`
}

// DraftLine is one receipt line of a ReceiptDraft.
type DraftLine struct {
	PurchaseOrderLineID id.ID           `json:"purchaseOrderLineId"`
	ItemID              id.ID           `json:"itemId"`
	Quantity            types.Quantity  `json:"quantity"`
	Rate                decimal.Decimal `json:"rate"`
	TaxRate             decimal.Decimal `json:"taxRate"`
}
