package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/numerator"
	"stockbook/internal/core/tx"
	"stockbook/internal/domain/audit"
)

// AssignNumber gives h the next number of its series unless the client set one.
func AssignNumber(ctx context.Context, gen numerator.Generator, h *Header, prefix string) error {
	if h.Number != "" {
		return nil
	}
	n, err := gen.GetNextNumber(ctx, numerator.DefaultConfig(prefix), numerator.DefaultOptions(), h.Date)
	if err != nil {
		return fmt.Errorf("generate number: %w", err)
	}
	h.Number = n
	return nil
}

// PrepareCreate fills the server-owned fields of a new header.
func PrepareCreate(ctx context.Context, h *Header) {
	if id.IsNil(h.ID) {
		h.ID = id.New()
	}
	now := time.Now().UTC()
	h.Version = 1
	h.CreatedAt = now
	h.UpdatedAt = now
	audit.EnrichCreatedBy(ctx, &h.CreatedBy, &h.UpdatedBy)
}

// PrepareUpdate carries the server-owned fields of prior over to current. A
// client that sends a version must send the stored one.
func PrepareUpdate(ctx context.Context, entity string, prior, current *Header) error {
	if current.Version != 0 && current.Version != prior.Version {
		return apperror.NewConcurrentModification(entity, prior.ID.String())
	}
	current.ID = prior.ID
	current.Version = prior.Version
	current.CreatedAt = prior.CreatedAt
	current.CreatedBy = prior.CreatedBy
	current.UpdatedAt = time.Now().UTC()
	if current.Number == "" {
		current.Number = prior.Number
	}
	audit.EnrichUpdatedBy(ctx, &current.UpdatedBy)
	return nil
}

// BulkDelete deletes every document in ids within one transaction. The first
// failure rolls all of them back.
func BulkDelete(ctx context.Context, txm tx.Manager, ids []id.ID, del func(ctx context.Context, docID id.ID) error) error {
	if len(ids) == 0 {
		return apperror.NewValidation("ids are required").WithDetail("field", "ids")
	}
	return txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, docID := range id.Unique(ids) {
			if err := del(ctx, docID); err != nil {
				var appErr *apperror.AppError
				if errors.As(err, &appErr) {
					return appErr.WithDetail("document_id", docID.String())
				}
				return fmt.Errorf("delete %s: %w", docID, err)
			}
		}
		return nil
	})
}
