package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/apperror"
	"stockbook/internal/domain/status"
)

// valueScale is the number of decimal places of report values.
const valueScale = 2

// Service provides report generation operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// InventoryValuation values on-hand stock at the current average cost.
// Item quantity is the sum over the returned locations, so a location filter
// values only the stock held there.
func (s *Service) InventoryValuation(ctx context.Context, filter ValuationFilter) (*Valuation, error) {
	rows, err := s.repo.ValuationRows(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get valuation rows: %w", err)
	}

	report := BuildValuation(rows, filter.ExcludeZero)
	report.AsOf = s.now().UTC()
	return report, nil
}

// BuildValuation groups rows by item and computes values and totals.
// Rows must arrive grouped by item.
func BuildValuation(rows []ValuationRow, excludeZero bool) *Valuation {
	report := &Valuation{Items: []ValuationItem{}, TotalValue: decimal.Zero}

	var current *ValuationItem
	flush := func() {
		if current == nil {
			return
		}
		if !(excludeZero && current.Quantity.IsZero()) {
			current.Value = current.Quantity.Decimal().Mul(current.AverageCost).Round(valueScale)
			report.Items = append(report.Items, *current)
			report.TotalQuantity += current.Quantity
			report.TotalValue = report.TotalValue.Add(current.Value)
		}
		current = nil
	}

	for _, row := range rows {
		if current == nil || current.ItemID != row.ItemID {
			flush()
			current = &ValuationItem{
				ItemID:      row.ItemID,
				ItemCode:    row.ItemCode,
				ItemName:    row.ItemName,
				Unit:        row.Unit,
				AverageCost: row.AverageCost,
				Locations:   []LocationQuantity{},
			}
		}
		if row.LocationID == nil {
			continue
		}
		if excludeZero && row.Quantity.IsZero() {
			continue
		}
		current.Quantity += row.Quantity
		current.Locations = append(current.Locations, LocationQuantity{
			LocationID:   *row.LocationID,
			LocationCode: deref(row.LocationCode),
			LocationName: deref(row.LocationName),
			Quantity:     row.Quantity,
			Value:        row.Quantity.Decimal().Mul(row.AverageCost).Round(valueScale),
		})
	}
	flush()

	report.TotalItems = len(report.Items)
	return report
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GetDocumentJournal returns a page of documents across all types.
func (s *Service) GetDocumentJournal(ctx context.Context, filter DocumentJournalFilter) (*DocumentJournal, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	if filter.SortBy == "" {
		filter.SortBy = "date"
	}
	if filter.SortOrder == "" {
		filter.SortOrder = "desc"
	}
	if filter.Status != "" {
		st, err := status.Parse(filter.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = string(st)
	}
	if filter.FromDate != nil && filter.ToDate != nil && filter.FromDate.After(*filter.ToDate) {
		return nil, apperror.NewValidation("fromDate must be before toDate").
			WithDetail("field", "fromDate")
	}

	journal, err := s.repo.GetDocumentJournal(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get document journal: %w", err)
	}

	// the summary covers the whole filter, so it only comes with the first page
	if filter.Offset == 0 {
		summary, err := s.repo.GetDocumentTypeSummary(ctx, filter)
		if err == nil {
			journal.Summary = summary
		}
	}

	return journal, nil
}
