package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// Builder returns a squirrel builder with PostgreSQL placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// BatchQuery represents a query in a batch.
type BatchQuery struct {
	SQL  string
	Args []any
}

// QueueSqlizer builds q and appends it to queries.
func QueueSqlizer(queries []BatchQuery, q squirrel.Sqlizer) ([]BatchQuery, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return queries, fmt.Errorf("build batch query: %w", err)
	}
	return append(queries, BatchQuery{SQL: sql, Args: args}), nil
}

// ExecBatch runs statements in a single round trip and returns the affected
// row count of each.
func (m *TxManager) ExecBatch(ctx context.Context, queries []BatchQuery) ([]int64, error) {
	if len(queries) == 0 {
		return nil, nil
	}
	batch := &pgx.Batch{}
	for _, q := range queries {
		batch.Queue(q.SQL, q.Args...)
	}

	results := m.GetQuerier(ctx).SendBatch(ctx, batch)
	defer results.Close()

	affected := make([]int64, len(queries))
	for i := range queries {
		tag, err := results.Exec()
		if err != nil {
			return affected, fmt.Errorf("batch query %d: %w", i, err)
		}
		affected[i] = tag.RowsAffected()
	}
	return affected, nil
}

// QueryRowBatch runs single-row queries in one round trip. scan is called
// for each query in order; a query without a row gives pgx.ErrNoRows to its
// own scan only.
func (m *TxManager) QueryRowBatch(ctx context.Context, queries []BatchQuery, scan func(i int, row pgx.Row) error) error {
	if len(queries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, q := range queries {
		batch.Queue(q.SQL, q.Args...)
	}

	results := m.GetQuerier(ctx).SendBatch(ctx, batch)
	defer results.Close()

	for i := range queries {
		if err := scan(i, results.QueryRow()); err != nil {
			return err
		}
	}
	return nil
}

// CopyFromSlice bulk inserts rows with the COPY protocol.
func (m *TxManager) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := m.GetQuerier(ctx).CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}
