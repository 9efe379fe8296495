package reports

import (
	"context"
)

// Repository defines report data access.
type Repository interface {
	// ValuationRows returns one row per stocked (item, location) pair of
	// inventory products, ordered by item code then location code.
	ValuationRows(ctx context.Context, filter ValuationFilter) ([]ValuationRow, error)

	GetDocumentJournal(ctx context.Context, filter DocumentJournalFilter) (*DocumentJournal, error)
	GetDocumentTypeSummary(ctx context.Context, filter DocumentJournalFilter) ([]DocumentTypeSummary, error)
}
