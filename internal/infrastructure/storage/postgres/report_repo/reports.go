// Package report_repo provides PostgreSQL implementations for report repositories.
package report_repo

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbook/internal/domain/catalogs/product"
	"stockbook/internal/domain/reports"
	"stockbook/internal/infrastructure/storage/postgres"
)

// journalSource describes how one document table maps to journal columns.
type journalSource struct {
	docType  string
	table    string
	vendor   string
	location string
}

// journalSources lists every document table in the journal.
var journalSources = []journalSource{
	{"purchase_order", "doc_purchase_orders", "vendor_id", "location_id"},
	{"item_receipt", "doc_item_receipts", "vendor_id", "location_id"},
	{"vendor_bill", "doc_vendor_bills", "vendor_id", "NULL::uuid"},
	{"vendor_credit", "doc_vendor_credits", "vendor_id", "location_id"},
	{"inventory_adjustment", "doc_inventory_adjustments", "NULL::uuid", "location_id"},
	{"inventory_transfer", "doc_inventory_transfers", "NULL::uuid", "from_location_id"},
}

// DocumentTypes returns the document types the journal knows.
func DocumentTypes() []string {
	out := make([]string, len(journalSources))
	for i, s := range journalSources {
		out[i] = s.docType
	}
	return out
}

var journalSortColumns = map[string]string{
	"date":   "date",
	"number": "number",
	"type":   "document_type",
	"amount": "total_gross",
}

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txm *postgres.TxManager
}

var _ reports.Repository = (*ReportRepo)(nil)

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txm: txm}
}

// ValuationRows implements reports.Repository.
func (r *ReportRepo) ValuationRows(ctx context.Context, filter reports.ValuationFilter) ([]reports.ValuationRow, error) {
	sql, args, err := valuationQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build valuation query: %w", err)
	}

	var rows []reports.ValuationRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("inventory valuation: %w", err)
	}
	return rows, nil
}

func valuationQuery(filter reports.ValuationFilter) squirrel.SelectBuilder {
	levelJoin := "reg_inventory_levels l ON l.item_id = p.id"
	var joinArgs []any
	if len(filter.LocationIDs) > 0 {
		levelJoin += " AND l.location_id = ANY(?)"
		joinArgs = append(joinArgs, filter.LocationIDs)
	}

	q := postgres.Builder().
		Select(
			"p.id AS item_id",
			"p.code AS item_code",
			"p.name AS item_name",
			"p.unit",
			"p.average_cost",
			"l.location_id",
			"loc.code AS location_code",
			"loc.name AS location_name",
			"COALESCE(l.quantity_available, 0) AS quantity",
		).
		From("cat_products p").
		LeftJoin(levelJoin, joinArgs...).
		LeftJoin("cat_locations loc ON loc.id = l.location_id").
		Where(squirrel.Eq{"p.type": string(product.TypeInventory)}).
		Where(squirrel.Eq{"p.deletion_mark": false})

	if len(filter.ItemIDs) > 0 {
		q = q.Where("p.id = ANY(?)", filter.ItemIDs)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"p.code": pattern},
			squirrel.ILike{"p.name": pattern},
		})
	}
	return q.OrderBy("p.code", "p.id", "loc.code")
}

// journalUnion selects the common journal columns from every requested
// document table. It carries no arguments.
func journalUnion(docTypes []string) string {
	var parts []string
	for _, src := range journalSources {
		if len(docTypes) > 0 && !slices.Contains(docTypes, src.docType) {
			continue
		}
		parts = append(parts, fmt.Sprintf(
			"SELECT id, '%s' AS document_type, number, date, status, %s AS vendor_id, %s AS location_id, "+
				"total_gross, memo, created_at, updated_at FROM %s",
			src.docType, src.vendor, src.location, src.table))
	}
	return strings.Join(parts, " UNION ALL ")
}

// journalBase selects from the union and applies the filter.
func journalBase(union string, filter reports.DocumentJournalFilter, cols ...string) squirrel.SelectBuilder {
	q := postgres.Builder().
		Select(cols...).
		From("(" + union + ") AS j")

	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.Lt{"date": *filter.ToDate})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.NumberContains != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.NumberContains + "%"})
	}
	if len(filter.VendorIDs) > 0 {
		q = q.Where("vendor_id = ANY(?)", filter.VendorIDs)
	}
	if len(filter.LocationIDs) > 0 {
		q = q.Where("location_id = ANY(?)", filter.LocationIDs)
	}
	return q
}

func journalOrder(filter reports.DocumentJournalFilter) string {
	col, ok := journalSortColumns[filter.SortBy]
	if !ok {
		col = "date"
	}
	dir := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		dir = "ASC"
	}
	return fmt.Sprintf("%s %s, number %s, id", col, dir, dir)
}

// GetDocumentJournal implements reports.Repository.
func (r *ReportRepo) GetDocumentJournal(ctx context.Context, filter reports.DocumentJournalFilter) (*reports.DocumentJournal, error) {
	union := journalUnion(filter.DocumentTypes)
	if union == "" {
		return &reports.DocumentJournal{
			Items:  []reports.DocumentJournalItem{},
			Limit:  filter.Limit,
			Offset: filter.Offset,
		}, nil
	}

	querier := r.txm.GetQuerier(ctx)

	countSQL, countArgs, err := journalBase(union, filter, "COUNT(*)").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count document journal: %w", err)
	}

	q := journalBase(union, filter,
		"id", "document_type", "number", "date", "status", "vendor_id", "location_id",
		"total_gross", "memo", "created_at", "updated_at").
		OrderBy(journalOrder(filter))
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build journal query: %w", err)
	}
	items := []reports.DocumentJournalItem{}
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("document journal: %w", err)
	}

	return &reports.DocumentJournal{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// GetDocumentTypeSummary implements reports.Repository.
func (r *ReportRepo) GetDocumentTypeSummary(ctx context.Context, filter reports.DocumentJournalFilter) ([]reports.DocumentTypeSummary, error) {
	union := journalUnion(filter.DocumentTypes)
	if union == "" {
		return nil, nil
	}

	sql, args, err := journalBase(union, filter,
		"document_type",
		"COUNT(*) AS count",
		"COUNT(*) FILTER (WHERE status = 'open') AS open_count",
		"COALESCE(SUM(total_gross), 0) AS total_gross").
		GroupBy("document_type").
		OrderBy("document_type").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build summary query: %w", err)
	}

	var result []reports.DocumentTypeSummary
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("document type summary: %w", err)
	}
	return result, nil
}
