package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/status"
	"stockbook/internal/infrastructure/storage/postgres"
)

// ParentCounter implements documents.ParentStore over one consumed-quantity
// column of a line table (quantity_received, quantity_billed, ...).
type ParentCounter struct {
	txm    *postgres.TxManager
	tables Tables
	column string
	// drivesStatus is false for rollup counters that never change the
	// document status.
	drivesStatus bool
}

var _ documents.ParentStore = (*ParentCounter)(nil)

// NewParentCounter creates a counter over tables.Lines.column.
func NewParentCounter(txm *postgres.TxManager, tables Tables, column string, drivesStatus bool) *ParentCounter {
	return &ParentCounter{txm: txm, tables: tables, column: column, drivesStatus: drivesStatus}
}

func (c *ParentCounter) selectRows() squirrel.SelectBuilder {
	return postgres.Builder().
		Select("document_id", "line_id", "quantity AS ordered", c.column+" AS consumed").
		From(c.tables.Lines)
}

// LockParentLines implements documents.ParentStore. Rows are locked in line
// id order.
func (c *ParentCounter) LockParentLines(ctx context.Context, lineIDs []id.ID) ([]documents.ParentLineRow, error) {
	return c.rows(ctx, c.selectRows().
		Where("line_id = ANY(?)", lineIDs).
		OrderBy("line_id").
		Suffix("FOR UPDATE"))
}

// ParentLinesOf implements documents.ParentStore.
func (c *ParentCounter) ParentLinesOf(ctx context.Context, docIDs []id.ID) ([]documents.ParentLineRow, error) {
	return c.rows(ctx, c.selectRows().
		Where("document_id = ANY(?)", docIDs).
		OrderBy("document_id", "line_no"))
}

func (c *ParentCounter) rows(ctx context.Context, q squirrel.SelectBuilder) ([]documents.ParentLineRow, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var rows []documents.ParentLineRow
	if err := pgxscan.Select(ctx, c.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s %s: %w", c.tables.Entity, c.column, err)
	}
	return rows, nil
}

// SetConsumed implements documents.ParentStore with one batched round trip.
func (c *ParentCounter) SetConsumed(ctx context.Context, consumed map[id.ID]types.Quantity) error {
	lineIDs := make([]id.ID, 0, len(consumed))
	for lineID := range consumed {
		lineIDs = append(lineIDs, lineID)
	}
	lineIDs = id.Unique(lineIDs)

	queries := make([]postgres.BatchQuery, 0, len(lineIDs))
	for _, lineID := range lineIDs {
		var err error
		queries, err = postgres.QueueSqlizer(queries, postgres.Builder().
			Update(c.tables.Lines).
			Set(c.column, consumed[lineID]).
			Where(squirrel.Eq{"line_id": lineID}))
		if err != nil {
			return err
		}
	}
	if _, err := c.txm.ExecBatch(ctx, queries); err != nil {
		return fmt.Errorf("update %s %s: %w", c.tables.Entity, c.column, err)
	}
	return nil
}

// SetStatus implements documents.ParentStore.
func (c *ParentCounter) SetStatus(ctx context.Context, docID id.ID, s status.Status) (bool, error) {
	if !c.drivesStatus {
		return false, nil
	}
	result, err := c.txm.GetQuerier(ctx).Exec(ctx,
		"UPDATE "+c.tables.Header+" SET status = $1, updated_at = NOW() WHERE id = $2 AND status <> $1",
		string(s), docID)
	if err != nil {
		return false, fmt.Errorf("update %s status: %w", c.tables.Entity, err)
	}
	return result.RowsAffected() > 0, nil
}
