package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"stockbook/internal/core/id"
	"stockbook/internal/domain/journal"
	"stockbook/internal/infrastructure/storage/postgres"
)

const (
	journalEntriesTable = "journal_entries"
	journalLinesTable   = "journal_entry_lines"
)

var (
	entryCols     = postgres.ExtractDBColumns[journal.Entry]()
	entryLineCols = []string{"entry_id", "line_no", "account", "item_id", "debit", "credit", "memo"}
)

// journalLineRow is the stored form of journal.Line.
type journalLineRow struct {
	EntryID id.ID           `db:"entry_id"`
	LineNo  int             `db:"line_no"`
	Account journal.Account `db:"account"`
	ItemID  *id.ID          `db:"item_id"`
	Debit   decimal.Decimal `db:"debit"`
	Credit  decimal.Decimal `db:"credit"`
	Memo    string          `db:"memo"`
}

// JournalRepo implements journal.Repository.
type JournalRepo struct {
	txm *postgres.TxManager
}

var _ journal.Repository = (*JournalRepo)(nil)

// NewJournalRepo creates a journal repository.
func NewJournalRepo(txm *postgres.TxManager) *JournalRepo {
	return &JournalRepo{txm: txm}
}

// Create stores the entry header and copies its lines.
func (r *JournalRepo) Create(ctx context.Context, e *journal.Entry) error {
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		sql, args, err := postgres.Builder().
			Insert(journalEntriesTable).
			SetMap(postgres.ColumnMap(e, entryCols)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			return postgres.MapWriteError(err, "journal entry", "insert")
		}

		rows := make([][]any, len(e.Lines))
		for i, l := range e.Lines {
			rows[i] = []any{
				e.ID, i + 1, string(l.Account), l.ItemID,
				postgres.Numeric(l.Debit), postgres.Numeric(l.Credit), l.Memo,
			}
		}
		if _, err := r.txm.CopyFromSlice(ctx, journalLinesTable, entryLineCols, rows); err != nil {
			return postgres.MapWriteError(err, "journal entry", "insert lines of")
		}
		return nil
	})
}

// DeleteBySource removes every entry of a document with its lines.
func (r *JournalRepo) DeleteBySource(ctx context.Context, sourceType journal.SourceType, sourceID id.ID) (int64, error) {
	var n int64
	err := r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txm.GetQuerier(ctx)
		if _, err := q.Exec(ctx, `
			DELETE FROM `+journalLinesTable+`
			WHERE entry_id IN (SELECT id FROM `+journalEntriesTable+` WHERE source_type = $1 AND source_id = $2)`,
			string(sourceType), sourceID); err != nil {
			return fmt.Errorf("delete journal lines: %w", err)
		}
		result, err := q.Exec(ctx,
			"DELETE FROM "+journalEntriesTable+" WHERE source_type = $1 AND source_id = $2",
			string(sourceType), sourceID)
		if err != nil {
			return fmt.Errorf("delete journal entries: %w", err)
		}
		n = result.RowsAffected()
		return nil
	})
	return n, err
}

// ListBySource returns the entries of a document with their lines, oldest first.
func (r *JournalRepo) ListBySource(ctx context.Context, sourceType journal.SourceType, sourceID id.ID) ([]journal.Entry, error) {
	querier := r.txm.GetQuerier(ctx)

	sql, args, err := postgres.Builder().
		Select(entryCols...).
		From(journalEntriesTable).
		Where(squirrel.Eq{"source_type": string(sourceType), "source_id": sourceID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var entries []journal.Entry
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	if len(entries) == 0 {
		return entries, nil
	}

	entryIDs := make([]id.ID, len(entries))
	for i := range entries {
		entryIDs[i] = entries[i].ID
	}
	sql, args, err = journalLinesQuery(entryIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var lines []journalLineRow
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("list journal lines: %w", err)
	}

	attachJournalLines(entries, lines)
	return entries, nil
}

func journalLinesQuery(entryIDs []id.ID) squirrel.SelectBuilder {
	return postgres.Builder().
		Select(entryLineCols...).
		From(journalLinesTable).
		Where("entry_id = ANY(?)", entryIDs).
		OrderBy("entry_id", "line_no")
}

// attachJournalLines distributes rows to their entries in line order.
func attachJournalLines(entries []journal.Entry, rows []journalLineRow) {
	index := make(map[id.ID]int, len(entries))
	for i := range entries {
		index[entries[i].ID] = i
		entries[i].Lines = entries[i].Lines[:0]
	}
	for _, row := range rows {
		i, ok := index[row.EntryID]
		if !ok {
			continue
		}
		entries[i].Lines = append(entries[i].Lines, journal.Line{
			Account: row.Account,
			ItemID:  row.ItemID,
			Debit:   row.Debit,
			Credit:  row.Credit,
			Memo:    row.Memo,
		})
	}
}
