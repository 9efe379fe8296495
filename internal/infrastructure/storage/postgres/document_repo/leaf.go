package document_repo

import (
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/adjustment"
	"stockbook/internal/domain/documents/transfer"
	"stockbook/internal/domain/documents/vendor_credit"
	"stockbook/internal/infrastructure/storage/postgres"
)

// VendorCreditRepo implements vendor_credit.Repository.
type VendorCreditRepo = BaseDocumentRepo[*vendor_credit.VendorCredit, vendor_credit.Line]

// NewVendorCreditRepo creates a new vendor credit repository.
func NewVendorCreditRepo(txm *postgres.TxManager) *VendorCreditRepo {
	return NewBaseDocumentRepo(txm,
		Tables{Header: "doc_vendor_credits", Lines: "doc_vendor_credit_lines", Entity: "vendor credit"},
		func() *vendor_credit.VendorCredit { return &vendor_credit.VendorCredit{} },
		func(l *vendor_credit.Line) *documents.Line { return &l.Line },
	)
}

// AdjustmentRepo implements adjustment.Repository.
type AdjustmentRepo = BaseDocumentRepo[*adjustment.InventoryAdjustment, adjustment.Line]

// NewAdjustmentRepo creates a new inventory adjustment repository.
func NewAdjustmentRepo(txm *postgres.TxManager) *AdjustmentRepo {
	return NewBaseDocumentRepo(txm,
		Tables{Header: "doc_inventory_adjustments", Lines: "doc_inventory_adjustment_lines", Entity: "inventory adjustment"},
		func() *adjustment.InventoryAdjustment { return &adjustment.InventoryAdjustment{} },
		func(l *adjustment.Line) *documents.Line { return &l.Line },
	)
}

// TransferRepo implements transfer.Repository.
type TransferRepo = BaseDocumentRepo[*transfer.InventoryTransfer, transfer.Line]

// NewTransferRepo creates a new inventory transfer repository.
func NewTransferRepo(txm *postgres.TxManager) *TransferRepo {
	return NewBaseDocumentRepo(txm,
		Tables{Header: "doc_inventory_transfers", Lines: "doc_inventory_transfer_lines", Entity: "inventory transfer"},
		func() *transfer.InventoryTransfer { return &transfer.InventoryTransfer{} },
		func(l *transfer.Line) *documents.Line { return &l.Line },
	)
}

var (
	_ vendor_credit.Repository = (*VendorCreditRepo)(nil)
	_ adjustment.Repository   = (*AdjustmentRepo)(nil)
	_ transfer.Repository     = (*TransferRepo)(nil)
)
