package document_repo

import (
	"context"
	"fmt"

	"stockbook/internal/core/id"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/item_receipt"
	"stockbook/internal/infrastructure/storage/postgres"
)

var itemReceiptTables = Tables{
	Header: "doc_item_receipts",
	Lines:  "doc_item_receipt_lines",
	Entity: "item receipt",
}

// ItemReceiptRepo implements item_receipt.Repository.
type ItemReceiptRepo struct {
	*BaseDocumentRepo[*item_receipt.ItemReceipt, item_receipt.Line]
	billed *ParentCounter
}

var _ item_receipt.Repository = (*ItemReceiptRepo)(nil)

// NewItemReceiptRepo creates a new item receipt repository.
func NewItemReceiptRepo(txm *postgres.TxManager) *ItemReceiptRepo {
	return &ItemReceiptRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txm, itemReceiptTables,
			func() *item_receipt.ItemReceipt { return &item_receipt.ItemReceipt{} },
			func(l *item_receipt.Line) *documents.Line { return &l.Line },
		),
		billed: NewParentCounter(txm, itemReceiptTables, "quantity_billed", true),
	}
}

// Billed implements item_receipt.Repository.
func (r *ItemReceiptRepo) Billed() documents.ParentStore { return r.billed }

// OrderLines implements item_receipt.Repository.
func (r *ItemReceiptRepo) OrderLines(ctx context.Context, lineIDs []id.ID) (map[id.ID]id.ID, error) {
	out := make(map[id.ID]id.ID, len(lineIDs))
	if len(lineIDs) == 0 {
		return out, nil
	}

	rows, err := r.TxManager().GetQuerier(ctx).Query(ctx, `
		SELECT line_id, purchase_order_line_id
		FROM `+itemReceiptTables.Lines+`
		WHERE line_id = ANY($1) AND purchase_order_line_id IS NOT NULL
	`, lineIDs)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lineID, orderLineID id.ID
		if err := rows.Scan(&lineID, &orderLineID); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		out[lineID] = orderLineID
	}
	return out, rows.Err()
}
