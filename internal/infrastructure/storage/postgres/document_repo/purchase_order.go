package document_repo

import (
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/purchase_order"
	"stockbook/internal/infrastructure/storage/postgres"
)

var purchaseOrderTables = Tables{
	Header: "doc_purchase_orders",
	Lines:  "doc_purchase_order_lines",
	Entity: "purchase order",
}

// PurchaseOrderRepo implements purchase_order.Repository.
type PurchaseOrderRepo struct {
	*BaseDocumentRepo[*purchase_order.PurchaseOrder, purchase_order.Line]
	received *ParentCounter
	billed   *ParentCounter
}

var _ purchase_order.Repository = (*PurchaseOrderRepo)(nil)

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txm *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txm, purchaseOrderTables,
			func() *purchase_order.PurchaseOrder { return &purchase_order.PurchaseOrder{} },
			func(l *purchase_order.Line) *documents.Line { return &l.Line },
		),
		received: NewParentCounter(txm, purchaseOrderTables, "quantity_received", true),
		billed:   NewParentCounter(txm, purchaseOrderTables, "quantity_billed", false),
	}
}

// Received implements purchase_order.Repository.
func (r *PurchaseOrderRepo) Received() documents.ParentStore { return r.received }

// Billed implements purchase_order.Repository.
func (r *PurchaseOrderRepo) Billed() documents.ParentStore { return r.billed }
