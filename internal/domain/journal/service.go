package journal

import (
	"context"
	"fmt"
	"time"

	"stockbook/internal/core/id"
	"stockbook/pkg/logger"
)

// Service is the local Poster. Entries are stored in the database and join
// the document's transaction.
type Service struct {
	repo Repository
	log  *logger.Logger
}

// NewService creates a local journal service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, log: logger.Default().WithComponent("journal")}
}

// Post validates and stores an entry.
func (s *Service) Post(ctx context.Context, req Request) (Entry, error) {
	if err := req.Validate(); err != nil {
		return Entry{}, err
	}

	e := Entry{
		ID:         id.New(),
		SourceType: req.SourceType,
		SourceID:   req.SourceID,
		Date:       req.Date,
		Memo:       req.Memo,
		Lines:      req.Lines,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, &e); err != nil {
		return Entry{}, fmt.Errorf("store journal entry: %w", err)
	}

	debits, _ := req.Totals()
	s.log.WithContext(ctx).Debugw("journal entry posted",
		"source_type", req.SourceType, "source_id", req.SourceID, "lines", len(req.Lines), "amount", debits.String())
	return e, nil
}

// Reverse deletes every entry of the source document.
func (s *Service) Reverse(ctx context.Context, sourceType SourceType, sourceID id.ID) error {
	n, err := s.repo.DeleteBySource(ctx, sourceType, sourceID)
	if err != nil {
		return fmt.Errorf("delete journal entries: %w", err)
	}
	if n > 0 {
		s.log.WithContext(ctx).Debugw("journal entries removed", "source_type", sourceType, "source_id", sourceID, "count", n)
	}
	return nil
}

// ForSource lists the entries of one document.
func (s *Service) ForSource(ctx context.Context, sourceType SourceType, sourceID id.ID) ([]Entry, error) {
	return s.repo.ListBySource(ctx, sourceType, sourceID)
}

var _ Poster = (*Service)(nil)
