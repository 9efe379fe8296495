package documents

import (
	"context"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain"
	"stockbook/internal/domain/status"
)

// Store persists one document type: header rows and their lines.
// Every method joins the transaction carried by ctx.
type Store[H any, L any] interface {
	Create(ctx context.Context, doc H) error
	GetByID(ctx context.Context, docID id.ID) (H, error)
	// GetForUpdate reads the header with a row lock.
	GetForUpdate(ctx context.Context, docID id.ID) (H, error)
	// Update writes the header with optimistic locking on version.
	Update(ctx context.Context, doc H) error
	// Delete removes the header row together with its lines.
	Delete(ctx context.Context, docID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[H], error)

	GetLines(ctx context.Context, docID id.ID) ([]L, error)
	SaveLines(ctx context.Context, docID id.ID, changes LineChanges[L]) error
}

// ParentLineRow is the consumption view of a line that downstream documents
// point at (a purchase order line, an item receipt line, a bill line).
type ParentLineRow struct {
	DocumentID id.ID          `db:"document_id"`
	LineID     id.ID          `db:"line_id"`
	Ordered    types.Quantity `db:"ordered"`
	Consumed   types.Quantity `db:"consumed"`
}

// ParentStore reads and writes the consumed counters of a parent document type.
type ParentStore interface {
	// LockParentLines loads the given lines FOR UPDATE.
	LockParentLines(ctx context.Context, lineIDs []id.ID) ([]ParentLineRow, error)
	SetConsumed(ctx context.Context, consumed map[id.ID]types.Quantity) error
	// ParentLinesOf returns every line of the given documents.
	ParentLinesOf(ctx context.Context, docIDs []id.ID) ([]ParentLineRow, error)
	// SetStatus stores a document status and reports whether it changed.
	SetStatus(ctx context.Context, docID id.ID, s status.Status) (bool, error)
}
