package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/entity"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/adjustment"
	"stockbook/internal/domain/documents/item_receipt"
	"stockbook/internal/domain/documents/purchase_order"
	"stockbook/internal/domain/documents/transfer"
	"stockbook/internal/domain/documents/vendor_bill"
	"stockbook/internal/domain/documents/vendor_credit"
)

// DocumentFields are the header fields a client may set on any document.
// Omitted fields keep their stored value on update.
type DocumentFields struct {
	Number     *string           `json:"number" binding:"omitempty,max=50"`
	Date       *time.Time        `json:"date"`
	Memo       *string           `json:"memo" binding:"omitempty,max=1000"`
	Version    int               `json:"version" binding:"min=0"`
	Attributes entity.Attributes `json:"attributes"`
}

func (f DocumentFields) apply(h *documents.Header) {
	if f.Number != nil {
		h.Number = *f.Number
	}
	if f.Date != nil {
		h.Date = *f.Date
	}
	if f.Memo != nil {
		h.Memo = *f.Memo
	}
	if f.Attributes != nil {
		h.Attributes = f.Attributes
	}
	h.Version = f.Version
}

// LineRequest is the client part of a document line. Amounts are computed
// on save.
type LineRequest struct {
	LineID   *id.ID          `json:"lineId"`
	TempID   string          `json:"tempId" binding:"max=64"`
	ItemID   id.ID           `json:"itemId"`
	Quantity types.Quantity  `json:"quantity" binding:"qty"`
	Rate     decimal.Decimal `json:"rate"`
	TaxRate  decimal.Decimal `json:"taxRate"`
	Memo     string          `json:"memo" binding:"max=500"`
}

func (l LineRequest) line() documents.Line {
	out := documents.Line{
		TempID:   l.TempID,
		ItemID:   l.ItemID,
		Quantity: l.Quantity,
		Rate:     l.Rate,
		TaxRate:  l.TaxRate,
		Memo:     l.Memo,
	}
	if l.LineID != nil {
		out.LineID = *l.LineID
	}
	return out
}

func mapLines[R any, L any](in []R, f func(R) L) []L {
	out := make([]L, len(in))
	for i, r := range in {
		out[i] = f(r)
	}
	return out
}

// --- Purchase order ---

// PurchaseOrderRequest creates or replaces a purchase order.
type PurchaseOrderRequest struct {
	DocumentFields
	VendorID     id.ID      `json:"vendorId"`
	LocationID   id.ID      `json:"locationId"`
	ExpectedDate *time.Time `json:"expectedDate"`
	LineSet[LineRequest]
}

// New builds a new order.
func (r PurchaseOrderRequest) New() *purchase_order.PurchaseOrder {
	po := purchase_order.NewPurchaseOrder(r.VendorID, r.LocationID)
	return r.Apply(po)
}

// Apply overlays the request on po.
func (r PurchaseOrderRequest) Apply(po *purchase_order.PurchaseOrder) *purchase_order.PurchaseOrder {
	r.DocumentFields.apply(&po.Header)
	if !id.IsNil(r.VendorID) {
		po.VendorID = r.VendorID
	}
	if !id.IsNil(r.LocationID) {
		po.LocationID = r.LocationID
	}
	if r.ExpectedDate != nil {
		po.ExpectedDate = r.ExpectedDate
	}
	if r.Present() {
		po.Lines = mapLines(r.All(), func(l LineRequest) purchase_order.Line {
			return purchase_order.Line{Line: l.line()}
		})
	}
	return po
}

// --- Item receipt ---

// ItemReceiptLine is a receipt line, optionally fulfilling an order line.
type ItemReceiptLine struct {
	LineRequest
	PurchaseOrderLineID *id.ID `json:"purchaseOrderLineId"`
}

// ItemReceiptRequest creates or replaces an item receipt.
type ItemReceiptRequest struct {
	DocumentFields
	VendorID        id.ID  `json:"vendorId"`
	LocationID      id.ID  `json:"locationId"`
	PurchaseOrderID *id.ID `json:"purchaseOrderId"`
	LineSet[ItemReceiptLine]
}

// New builds a new receipt.
func (r ItemReceiptRequest) New() *item_receipt.ItemReceipt {
	return r.Apply(item_receipt.NewItemReceipt(r.VendorID, r.LocationID))
}

// Apply overlays the request on rc.
func (r ItemReceiptRequest) Apply(rc *item_receipt.ItemReceipt) *item_receipt.ItemReceipt {
	r.DocumentFields.apply(&rc.Header)
	if !id.IsNil(r.VendorID) {
		rc.VendorID = r.VendorID
	}
	if !id.IsNil(r.LocationID) {
		rc.LocationID = r.LocationID
	}
	if r.PurchaseOrderID != nil {
		rc.PurchaseOrderID = r.PurchaseOrderID
	}
	if r.Present() {
		rc.Lines = mapLines(r.All(), func(l ItemReceiptLine) item_receipt.Line {
			return item_receipt.Line{Line: l.line(), PurchaseOrderLineID: l.PurchaseOrderLineID}
		})
	}
	return rc
}

// --- Vendor bill ---

// VendorBillLine is a bill line, optionally matching a receipt line.
type VendorBillLine struct {
	LineRequest
	ItemReceiptLineID *id.ID `json:"itemReceiptLineId"`
}

// VendorBillRequest creates or replaces a vendor bill.
type VendorBillRequest struct {
	DocumentFields
	VendorID      id.ID      `json:"vendorId"`
	DueDate       *time.Time `json:"dueDate"`
	ItemReceiptID *id.ID     `json:"itemReceiptId"`
	LineSet[VendorBillLine]
}

// New builds a new bill.
func (r VendorBillRequest) New() *vendor_bill.VendorBill {
	return r.Apply(vendor_bill.NewVendorBill(r.VendorID))
}

// Apply overlays the request on b.
func (r VendorBillRequest) Apply(b *vendor_bill.VendorBill) *vendor_bill.VendorBill {
	r.DocumentFields.apply(&b.Header)
	if !id.IsNil(r.VendorID) {
		b.VendorID = r.VendorID
	}
	if r.DueDate != nil {
		b.DueDate = *r.DueDate
	}
	if r.ItemReceiptID != nil {
		b.ItemReceiptID = r.ItemReceiptID
	}
	if r.Present() {
		b.Lines = mapLines(r.All(), func(l VendorBillLine) vendor_bill.Line {
			return vendor_bill.Line{Line: l.line(), ItemReceiptLineID: l.ItemReceiptLineID}
		})
	}
	return b
}

// --- Vendor credit ---

// VendorCreditLine is a credit line, optionally against a bill line.
type VendorCreditLine struct {
	LineRequest
	VendorBillLineID *id.ID `json:"vendorBillLineId"`
}

// VendorCreditRequest creates or replaces a vendor credit.
type VendorCreditRequest struct {
	DocumentFields
	VendorID     id.ID  `json:"vendorId"`
	LocationID   id.ID  `json:"locationId"`
	VendorBillID *id.ID `json:"vendorBillId"`
	LineSet[VendorCreditLine]
}

// New builds a new credit.
func (r VendorCreditRequest) New() *vendor_credit.VendorCredit {
	return r.Apply(vendor_credit.NewVendorCredit(r.VendorID, r.LocationID))
}

// Apply overlays the request on c.
func (r VendorCreditRequest) Apply(c *vendor_credit.VendorCredit) *vendor_credit.VendorCredit {
	r.DocumentFields.apply(&c.Header)
	if !id.IsNil(r.VendorID) {
		c.VendorID = r.VendorID
	}
	if !id.IsNil(r.LocationID) {
		c.LocationID = r.LocationID
	}
	if r.VendorBillID != nil {
		c.VendorBillID = r.VendorBillID
	}
	if r.Present() {
		c.Lines = mapLines(r.All(), func(l VendorCreditLine) vendor_credit.Line {
			return vendor_credit.Line{Line: l.line(), VendorBillLineID: l.VendorBillLineID}
		})
	}
	return c
}

// --- Inventory adjustment ---

// AdjustmentLine is a signed adjustment line. UnitCost prices increases;
// without it the current average cost is used.
type AdjustmentLine struct {
	LineRequest
	UnitCost *decimal.Decimal `json:"unitCost"`
}

// AdjustmentRequest creates or replaces an inventory adjustment.
type AdjustmentRequest struct {
	DocumentFields
	LocationID id.ID   `json:"locationId"`
	Reason     *string `json:"reason" binding:"omitempty,max=200"`
	LineSet[AdjustmentLine]
}

// New builds a new adjustment.
func (r AdjustmentRequest) New() *adjustment.InventoryAdjustment {
	return r.Apply(adjustment.NewInventoryAdjustment(r.LocationID))
}

// Apply overlays the request on a.
func (r AdjustmentRequest) Apply(a *adjustment.InventoryAdjustment) *adjustment.InventoryAdjustment {
	r.DocumentFields.apply(&a.Header)
	if !id.IsNil(r.LocationID) {
		a.LocationID = r.LocationID
	}
	if r.Reason != nil {
		a.Reason = *r.Reason
	}
	if r.Present() {
		a.Lines = mapLines(r.All(), func(l AdjustmentLine) adjustment.Line {
			return adjustment.Line{Line: l.line(), UnitCost: l.UnitCost}
		})
	}
	return a
}

// --- Inventory transfer ---

// TransferRequest creates or replaces an inventory transfer.
type TransferRequest struct {
	DocumentFields
	FromLocationID id.ID `json:"fromLocationId"`
	ToLocationID   id.ID `json:"toLocationId"`
	LineSet[LineRequest]
}

// New builds a new transfer.
func (r TransferRequest) New() *transfer.InventoryTransfer {
	return r.Apply(transfer.NewInventoryTransfer(r.FromLocationID, r.ToLocationID))
}

// Apply overlays the request on t.
func (r TransferRequest) Apply(t *transfer.InventoryTransfer) *transfer.InventoryTransfer {
	r.DocumentFields.apply(&t.Header)
	if !id.IsNil(r.FromLocationID) {
		t.FromLocationID = r.FromLocationID
	}
	if !id.IsNil(r.ToLocationID) {
		t.ToLocationID = r.ToLocationID
	}
	if r.Present() {
		t.Lines = mapLines(r.All(), func(l LineRequest) transfer.Line {
			return transfer.Line{Line: l.line()}
		})
	}
	return t
}
