// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain"
	"stockbook/internal/domain/documents"
	"stockbook/internal/infrastructure/storage/postgres"
)

// Tables names the header and line tables of one document type.
type Tables struct {
	Header string
	Lines  string
	// Entity names the document in errors.
	Entity string
}

// BaseDocumentRepo provides header CRUD and line persistence for one
// document type. H is a pointer to the document struct.
type BaseDocumentRepo[H documents.Document, L any] struct {
	txm        *postgres.TxManager
	tables     Tables
	headerCols []string
	lineCols   []string
	allowed    postgres.Columns
	newFn      func() H
	lineOf     func(*L) *documents.Line
}

// NewBaseDocumentRepo creates a base repository. Columns come from the db
// tags of the header and line structs.
func NewBaseDocumentRepo[H documents.Document, L any](
	txm *postgres.TxManager,
	tables Tables,
	newFn func() H,
	lineOf func(*L) *documents.Line,
) *BaseDocumentRepo[H, L] {
	headerCols := postgres.ExtractDBColumns[H]()
	return &BaseDocumentRepo[H, L]{
		txm:        txm,
		tables:     tables,
		headerCols: headerCols,
		lineCols:   postgres.ExtractDBColumns[L](),
		allowed:    postgres.NewColumns(headerCols),
		newFn:      newFn,
		lineOf:     lineOf,
	}
}

// TxManager exposes the transaction manager to embedding repositories.
func (r *BaseDocumentRepo[H, L]) TxManager() *postgres.TxManager {
	return r.txm
}

// Create inserts the header row.
func (r *BaseDocumentRepo[H, L]) Create(ctx context.Context, doc H) error {
	q := postgres.Builder().
		Insert(r.tables.Header).
		SetMap(postgres.ColumnMap(doc, r.headerCols))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapWriteError(err, r.tables.Entity, "insert")
	}
	return nil
}

// Update writes the header when the stored version matches and bumps it.
func (r *BaseDocumentRepo[H, L]) Update(ctx context.Context, doc H) error {
	h := doc.GetHeader()

	data := postgres.ColumnMap(doc, postgres.Without(r.headerCols, "id", "version", "created_at", "created_by"))
	q := postgres.Builder().
		Update(r.tables.Header).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": h.ID}).
		Where(squirrel.Eq{"version": h.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapWriteError(err, r.tables.Entity, "update")
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.tables.Entity, h.ID.String())
	}
	h.Version++
	return nil
}

// Delete removes the lines and the header.
func (r *BaseDocumentRepo[H, L]) Delete(ctx context.Context, docID id.ID) error {
	q := r.txm.GetQuerier(ctx)
	if _, err := q.Exec(ctx, "DELETE FROM "+r.tables.Lines+" WHERE document_id = $1", docID); err != nil {
		return postgres.MapWriteError(err, r.tables.Entity, "delete lines of")
	}
	result, err := q.Exec(ctx, "DELETE FROM "+r.tables.Header+" WHERE id = $1", docID)
	if err != nil {
		return postgres.MapWriteError(err, r.tables.Entity, "delete")
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tables.Entity, docID.String())
	}
	return nil
}

func (r *BaseDocumentRepo[H, L]) baseSelect() squirrel.SelectBuilder {
	return postgres.Builder().
		Select(r.headerCols...).
		From(r.tables.Header)
}

// GetByID retrieves a header.
func (r *BaseDocumentRepo[H, L]) GetByID(ctx context.Context, docID id.ID) (H, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": docID}), docID)
}

// GetForUpdate retrieves a header with a row lock.
func (r *BaseDocumentRepo[H, L]) GetForUpdate(ctx context.Context, docID id.ID) (H, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": docID}).Suffix("FOR UPDATE"), docID)
}

// GetByNumber retrieves a header by its document number.
func (r *BaseDocumentRepo[H, L]) GetByNumber(ctx context.Context, number string) (H, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"number": number}).Limit(1), number)
}

func (r *BaseDocumentRepo[H, L]) get(ctx context.Context, q squirrel.SelectBuilder, key any) (H, error) {
	doc := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return doc, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			var zero H
			return zero, apperror.NewNotFound(r.tables.Entity, fmt.Sprint(key))
		}
		return doc, fmt.Errorf("get %s: %w", r.tables.Entity, err)
	}
	return doc, nil
}

// List retrieves headers with search, filters and paging.
func (r *BaseDocumentRepo[H, L]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[H], error) {
	filter.Normalize()

	q := r.baseSelect()
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"memo": pattern},
		})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	q, err := postgres.ApplyFilters(q, filter.Filters, r.allowed)
	if err != nil {
		return domain.ListResult[H]{}, err
	}

	countSQL, countArgs, err := postgres.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return domain.ListResult[H]{}, fmt.Errorf("build count query: %w", err)
	}
	querier := r.txm.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return domain.ListResult[H]{}, fmt.Errorf("count %s: %w", r.tables.Entity, err)
	}

	orderBy, err := postgres.ParseOrderBy(filter.OrderBy, r.allowed, "date DESC, number DESC")
	if err != nil {
		return domain.ListResult[H]{}, err
	}
	q = q.OrderBy(orderBy).
		Limit(uint64(filter.Limit())).
		Offset(uint64(filter.Offset()))

	sql, args, err := q.ToSql()
	if err != nil {
		return domain.ListResult[H]{}, fmt.Errorf("build query: %w", err)
	}
	var items []H
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return domain.ListResult[H]{}, fmt.Errorf("list %s: %w", r.tables.Entity, err)
	}
	return domain.NewListResult(items, total, filter), nil
}

// GetLines returns the lines of a document in line order.
func (r *BaseDocumentRepo[H, L]) GetLines(ctx context.Context, docID id.ID) ([]L, error) {
	q := postgres.Builder().
		Select(r.lineCols...).
		From(r.tables.Lines).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var lines []L
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines applies a line diff: deletes in one statement, updates in one
// batch and inserts through COPY.
func (r *BaseDocumentRepo[H, L]) SaveLines(ctx context.Context, docID id.ID, changes documents.LineChanges[L]) error {
	if changes.Empty() {
		return nil
	}

	if len(changes.Delete) > 0 {
		_, err := r.txm.GetQuerier(ctx).Exec(ctx,
			"DELETE FROM "+r.tables.Lines+" WHERE document_id = $1 AND line_id = ANY($2)",
			docID, changes.Delete)
		if err != nil {
			return postgres.MapWriteError(err, r.tables.Entity, "delete lines of")
		}
	}

	if len(changes.Update) > 0 {
		setCols := postgres.Without(r.lineCols, "line_id")
		queries := make([]postgres.BatchQuery, 0, len(changes.Update))
		for i := range changes.Update {
			l := &changes.Update[i]
			var err error
			queries, err = postgres.QueueSqlizer(queries, postgres.Builder().
				Update(r.tables.Lines).
				SetMap(postgres.ColumnMap(l, setCols)).
				Where(squirrel.Eq{"document_id": docID, "line_id": r.lineOf(l).LineID}))
			if err != nil {
				return err
			}
		}
		affected, err := r.txm.ExecBatch(ctx, queries)
		if err != nil {
			return postgres.MapWriteError(err, r.tables.Entity, "update lines of")
		}
		for i, n := range affected {
			if n == 0 {
				return apperror.NewNotFound(r.tables.Entity+" line", r.lineOf(&changes.Update[i]).LineID.String())
			}
		}
	}

	if len(changes.Insert) > 0 {
		cols := append([]string{"document_id"}, r.lineCols...)
		rows := make([][]any, len(changes.Insert))
		for i := range changes.Insert {
			row := postgres.RowValues(&changes.Insert[i], cols)
			row[0] = docID
			rows[i] = row
		}
		if _, err := r.txm.CopyFromSlice(ctx, r.tables.Lines, cols, rows); err != nil {
			return postgres.MapWriteError(err, r.tables.Entity, "insert lines of")
		}
	}
	return nil
}
