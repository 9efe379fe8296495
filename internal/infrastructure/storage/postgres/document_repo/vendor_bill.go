package document_repo

import (
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/vendor_bill"
	"stockbook/internal/infrastructure/storage/postgres"
)

var vendorBillTables = Tables{
	Header: "doc_vendor_bills",
	Lines:  "doc_vendor_bill_lines",
	Entity: "vendor bill",
}

// VendorBillRepo implements vendor_bill.Repository.
type VendorBillRepo struct {
	*BaseDocumentRepo[*vendor_bill.VendorBill, vendor_bill.Line]
	credited *ParentCounter
}

var _ vendor_bill.Repository = (*VendorBillRepo)(nil)

// NewVendorBillRepo creates a new vendor bill repository.
func NewVendorBillRepo(txm *postgres.TxManager) *VendorBillRepo {
	return &VendorBillRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txm, vendorBillTables,
			func() *vendor_bill.VendorBill { return &vendor_bill.VendorBill{} },
			func(l *vendor_bill.Line) *documents.Line { return &l.Line },
		),
		credited: NewParentCounter(txm, vendorBillTables, "quantity_credited", true),
	}
}

// Credited implements vendor_bill.Repository.
func (r *VendorBillRepo) Credited() documents.ParentStore { return r.credited }
