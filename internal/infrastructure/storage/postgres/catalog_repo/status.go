package catalog_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbook/internal/core/id"
	"stockbook/internal/domain/status"
	"stockbook/internal/infrastructure/storage/postgres"
)

const statusTable = "ref_document_statuses"

// StatusRepo reads and seeds the document status reference table.
type StatusRepo struct {
	txm *postgres.TxManager
}

var _ status.Source = (*StatusRepo)(nil)

// NewStatusRepo creates a status reference repository.
func NewStatusRepo(txm *postgres.TxManager) *StatusRepo {
	return &StatusRepo{txm: txm}
}

// ListStatuses implements status.Source.
func (r *StatusRepo) ListStatuses(ctx context.Context) ([]status.Reference, error) {
	var refs []status.Reference
	err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &refs,
		"SELECT id, code, name FROM "+statusTable+" ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return refs, nil
}

// EnsureStatuses inserts missing statuses. Existing rows keep their ids.
func (r *StatusRepo) EnsureStatuses(ctx context.Context, names map[status.Status]string) error {
	queries := make([]postgres.BatchQuery, 0, len(names))
	for _, s := range status.All() {
		name, ok := names[s]
		if !ok {
			name = string(s)
		}
		var err error
		queries, err = postgres.QueueSqlizer(queries, postgres.Builder().
			Insert(statusTable).
			Columns("id", "code", "name").
			Values(id.New(), string(s), name).
			Suffix("ON CONFLICT (code) DO NOTHING"))
		if err != nil {
			return err
		}
	}
	if _, err := r.txm.ExecBatch(ctx, queries); err != nil {
		return fmt.Errorf("seed statuses: %w", err)
	}
	return nil
}
