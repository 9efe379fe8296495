package handlers

import (
	"stockbook/internal/domain/documents/adjustment"
	"stockbook/internal/domain/documents/item_receipt"
	"stockbook/internal/domain/documents/transfer"
	"stockbook/internal/domain/documents/vendor_bill"
	"stockbook/internal/domain/documents/vendor_credit"
	"stockbook/internal/domain/journal"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// NewItemReceiptHandler creates the item receipt handler.
func NewItemReceiptHandler(base *BaseHandler, service DocumentService[*item_receipt.ItemReceipt], gl JournalReader) *DocumentHandler[*item_receipt.ItemReceipt, dto.ItemReceiptRequest] {
	return NewDocumentHandler(base, DocumentHandlerConfig[*item_receipt.ItemReceipt, dto.ItemReceiptRequest]{
		Service:    service,
		Journal:    gl,
		SourceType: journal.SourceItemReceipt,
		MapCreate:  dto.ItemReceiptRequest.New,
		MapUpdate:  dto.ItemReceiptRequest.Apply,
	})
}

// NewVendorBillHandler creates the vendor bill handler.
func NewVendorBillHandler(base *BaseHandler, service DocumentService[*vendor_bill.VendorBill], gl JournalReader) *DocumentHandler[*vendor_bill.VendorBill, dto.VendorBillRequest] {
	return NewDocumentHandler(base, DocumentHandlerConfig[*vendor_bill.VendorBill, dto.VendorBillRequest]{
		Service:    service,
		Journal:    gl,
		SourceType: journal.SourceVendorBill,
		MapCreate:  dto.VendorBillRequest.New,
		MapUpdate:  dto.VendorBillRequest.Apply,
	})
}

// NewVendorCreditHandler creates the vendor credit handler.
func NewVendorCreditHandler(base *BaseHandler, service DocumentService[*vendor_credit.VendorCredit], gl JournalReader) *DocumentHandler[*vendor_credit.VendorCredit, dto.VendorCreditRequest] {
	return NewDocumentHandler(base, DocumentHandlerConfig[*vendor_credit.VendorCredit, dto.VendorCreditRequest]{
		Service:    service,
		Journal:    gl,
		SourceType: journal.SourceVendorCredit,
		MapCreate:  dto.VendorCreditRequest.New,
		MapUpdate:  dto.VendorCreditRequest.Apply,
	})
}

// NewAdjustmentHandler creates the inventory adjustment handler.
func NewAdjustmentHandler(base *BaseHandler, service DocumentService[*adjustment.InventoryAdjustment], gl JournalReader) *DocumentHandler[*adjustment.InventoryAdjustment, dto.AdjustmentRequest] {
	return NewDocumentHandler(base, DocumentHandlerConfig[*adjustment.InventoryAdjustment, dto.AdjustmentRequest]{
		Service:    service,
		Journal:    gl,
		SourceType: journal.SourceInventoryAdjustment,
		MapCreate:  dto.AdjustmentRequest.New,
		MapUpdate:  dto.AdjustmentRequest.Apply,
	})
}

// NewTransferHandler creates the inventory transfer handler. Transfers have
// no GL impact.
func NewTransferHandler(base *BaseHandler, service DocumentService[*transfer.InventoryTransfer]) *DocumentHandler[*transfer.InventoryTransfer, dto.TransferRequest] {
	return NewDocumentHandler(base, DocumentHandlerConfig[*transfer.InventoryTransfer, dto.TransferRequest]{
		Service:   service,
		MapCreate: dto.TransferRequest.New,
		MapUpdate: dto.TransferRequest.Apply,
	})
}
