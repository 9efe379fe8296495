package journal

import (
	"context"

	"stockbook/internal/core/id"
)

// Repository persists journal entries and their lines.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	// DeleteBySource removes the entries of one document and returns how many went.
	DeleteBySource(ctx context.Context, sourceType SourceType, sourceID id.ID) (int64, error)
	ListBySource(ctx context.Context, sourceType SourceType, sourceID id.ID) ([]Entry, error)
}
