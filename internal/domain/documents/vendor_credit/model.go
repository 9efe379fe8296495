// Package vendor_credit provides the VendorCredit document: goods returned to a
// vendor, optionally against a vendor bill.
package vendor_credit

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/reconcile"
)

// DocType names vendor credits in audit entries, events and locks.
const DocType = "vendor_credit"

// VendorCredit returns goods from a location to the vendor. It is closed on
// save; nothing consumes it.
type VendorCredit struct {
	documents.Header

	VendorID   id.ID `db:"vendor_id" json:"vendorId"`
	LocationID id.ID `db:"location_id" json:"locationId"`

	// VendorBillID is set when the credit is raised against a bill.
	VendorBillID *id.ID `db:"vendor_bill_id" json:"vendorBillId,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is a returned item. Rate is the amount credited by the vendor.
type Line struct {
	documents.Line

	VendorBillLineID *id.ID `db:"vendor_bill_line_id" json:"vendorBillLineId,omitempty"`

	// Set on save from valuation; client values are ignored.
	CostAtFulfillment decimal.Decimal `db:"cost_at_fulfillment" json:"costAtFulfillment"`
	COGS              decimal.Decimal `db:"cogs" json:"cogs"`
}

func lineOf(l *Line) *documents.Line { return &l.Line }

// NewVendorCredit creates a credit.
func NewVendorCredit(vendorID, locationID id.ID) *VendorCredit {
	return &VendorCredit{Header: documents.NewHeader(), VendorID: vendorID, LocationID: locationID}
}

// Validate implements entity.Validatable.
func (c *VendorCredit) Validate(ctx context.Context) error {
	if err := c.ValidateHeader(ctx); err != nil {
		return err
	}
	if id.IsNil(c.VendorID) {
		return apperror.NewValidation("vendor is required").WithDetail("field", "vendorId")
	}
	if id.IsNil(c.LocationID) {
		return apperror.NewValidation("location is required").WithDetail("field", "locationId")
	}
	for i, l := range c.Lines {
		if !id.IsNilPtr(l.VendorBillLineID) && id.IsNilPtr(c.VendorBillID) {
			return apperror.NewValidation("vendor bill line given without a vendor bill").
				WithDetail("field", fmt.Sprintf("lines[%d].vendorBillLineId", i))
		}
	}
	return nil
}

// Clone copies the header without lines.
func (c *VendorCredit) Clone() *VendorCredit {
	cp := *c
	cp.Lines = nil
	return &cp
}

func billRefs(lines []Line) []reconcile.LineRef {
	refs := make([]reconcile.LineRef, len(lines))
	for i, l := range lines {
		refs[i] = reconcile.LineRef{Key: l.Key(), ParentLineID: l.VendorBillLineID, Quantity: l.Quantity}
	}
	return refs
}
