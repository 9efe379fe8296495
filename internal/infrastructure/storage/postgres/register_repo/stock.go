// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/registers/stock"
	"stockbook/internal/infrastructure/storage/postgres"
)

const levelsTable = "reg_inventory_levels"

var levelCols = postgres.ExtractDBColumns[stock.Level]()

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm *postgres.TxManager
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new inventory level repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{txm: txm}
}

func (r *StockRepo) levelQuery(ctx context.Context, key stock.Key) squirrel.SelectBuilder {
	q := postgres.Builder().
		Select(levelCols...).
		From(levelsTable).
		Where(squirrel.Eq{"item_id": key.ItemID, "location_id": key.LocationID})
	if r.txm.GetTx(ctx) != nil {
		q = q.Suffix("FOR UPDATE")
	}
	return q
}

// GetLevel implements stock.Repository.
func (r *StockRepo) GetLevel(ctx context.Context, key stock.Key) (stock.Level, error) {
	var level stock.Level
	sql, args, err := r.levelQuery(ctx, key).ToSql()
	if err != nil {
		return level, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &level, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return level, apperror.NewNotFound("inventory level", key.ItemID.String()+"/"+key.LocationID.String())
		}
		return level, fmt.Errorf("get inventory level: %w", err)
	}
	return level, nil
}

// FindLevels implements stock.Repository: one SELECT per pair, pipelined in a
// single batch.
func (r *StockRepo) FindLevels(ctx context.Context, keys []stock.Key) []stock.Lookup {
	out := make([]stock.Lookup, len(keys))
	queries := make([]postgres.BatchQuery, 0, len(keys))
	for i, k := range keys {
		out[i].Key = k
		var err error
		if queries, err = postgres.QueueSqlizer(queries, r.levelQuery(ctx, k)); err != nil {
			for j := range out {
				out[j].Err = err
			}
			return out
		}
	}

	err := r.txm.QueryRowBatch(ctx, queries, func(i int, row pgx.Row) error {
		var l stock.Level
		err := row.Scan(&l.ID, &l.ItemID, &l.LocationID, &l.QuantityAvailable, &l.Attributes, &l.UpdatedAt)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			out[i].Err = fmt.Errorf("find inventory level: %w", err)
		default:
			out[i].Level = l
			out[i].Found = true
		}
		return nil
	})
	if err != nil {
		for i := range out {
			if out[i].Err == nil && !out[i].Found {
				out[i].Err = err
			}
		}
	}
	return out
}

// UpdateLevels implements stock.Repository.
func (r *StockRepo) UpdateLevels(ctx context.Context, levels []stock.Level) error {
	queries := make([]postgres.BatchQuery, 0, len(levels))
	now := time.Now().UTC()
	for _, l := range levels {
		var err error
		queries, err = postgres.QueueSqlizer(queries, postgres.Builder().
			Update(levelsTable).
			Set("quantity_available", l.QuantityAvailable).
			Set("attributes", l.Attributes).
			Set("updated_at", now).
			Where(squirrel.Eq{"id": l.ID}))
		if err != nil {
			return err
		}
	}
	affected, err := r.txm.ExecBatch(ctx, queries)
	if err != nil {
		return fmt.Errorf("update inventory levels: %w", err)
	}
	for i, n := range affected {
		if n == 0 {
			return apperror.NewNotFound("inventory level", levels[i].ID.String())
		}
	}
	return nil
}

// CreateLevels implements stock.Repository.
func (r *StockRepo) CreateLevels(ctx context.Context, levels []stock.Level) error {
	rows := make([][]any, len(levels))
	for i := range levels {
		rows[i] = postgres.RowValues(&levels[i], levelCols)
	}
	if _, err := r.txm.CopyFromSlice(ctx, levelsTable, levelCols, rows); err != nil {
		return postgres.MapWriteError(err, "inventory level", "create")
	}
	return nil
}

// TotalQuantity implements stock.Repository.
func (r *StockRepo) TotalQuantity(ctx context.Context, itemID id.ID) (types.Quantity, error) {
	var total int64
	err := r.txm.GetQuerier(ctx).QueryRow(ctx,
		"SELECT COALESCE(SUM(quantity_available), 0)::bigint FROM "+levelsTable+" WHERE item_id = $1", itemID).
		Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total quantity: %w", err)
	}
	return types.Quantity(total), nil
}

// TotalQuantities implements stock.Repository.
func (r *StockRepo) TotalQuantities(ctx context.Context, itemIDs []id.ID) (map[id.ID]types.Quantity, error) {
	out := make(map[id.ID]types.Quantity, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}
	rows, err := r.txm.GetQuerier(ctx).Query(ctx, `
		SELECT item_id, SUM(quantity_available)::bigint
		FROM `+levelsTable+`
		WHERE item_id = ANY($1)
		GROUP BY item_id
	`, id.Unique(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("total quantities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			itemID id.ID
			total  int64
		)
		if err := rows.Scan(&itemID, &total); err != nil {
			return nil, fmt.Errorf("scan total quantity: %w", err)
		}
		out[itemID] = types.Quantity(total)
	}
	return out, rows.Err()
}

// ListLevels implements stock.Repository.
func (r *StockRepo) ListLevels(ctx context.Context, filter stock.LevelFilter) ([]stock.Level, int64, error) {
	q := postgres.Builder().Select(levelCols...).From(levelsTable)
	if filter.ItemID != nil {
		q = q.Where(squirrel.Eq{"item_id": *filter.ItemID})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"location_id": *filter.LocationID})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"quantity_available": 0})
	}

	countSQL, countArgs, err := postgres.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	querier := r.txm.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count inventory levels: %w", err)
	}

	q = q.OrderBy("item_id", "location_id")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}
	var levels []stock.Level
	if err := pgxscan.Select(ctx, querier, &levels, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list inventory levels: %w", err)
	}
	return levels, total, nil
}
