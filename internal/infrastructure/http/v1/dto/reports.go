package dto

import (
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/domain/reports"
)

// ValuationQuery is the query of GET /reports/inventory-valuation.
type ValuationQuery struct {
	ItemIDs     []string `form:"itemId"`
	LocationIDs []string `form:"locationId"`
	Search      string   `form:"search"`
	ExcludeZero bool     `form:"excludeZero"`
	Format      string   `form:"format" binding:"omitempty,oneof=json xlsx"`
}

// Filter converts the query into a report filter.
func (q ValuationQuery) Filter() (reports.ValuationFilter, error) {
	items, err := ParseIDs("itemId", q.ItemIDs)
	if err != nil {
		return reports.ValuationFilter{}, err
	}
	locations, err := ParseIDs("locationId", q.LocationIDs)
	if err != nil {
		return reports.ValuationFilter{}, err
	}
	return reports.ValuationFilter{
		ItemIDs:     items,
		LocationIDs: locations,
		Search:      q.Search,
		ExcludeZero: q.ExcludeZero,
	}, nil
}

// DocumentJournalQuery is the query of GET /reports/document-journal.
type DocumentJournalQuery struct {
	FromDate       string   `form:"fromDate"`
	ToDate         string   `form:"toDate"`
	DocumentTypes  []string `form:"type"`
	Status         string   `form:"status"`
	NumberContains string   `form:"number"`
	VendorIDs      []string `form:"vendorId"`
	LocationIDs    []string `form:"locationId"`
	SortBy         string   `form:"sortBy" binding:"omitempty,oneof=date number type amount"`
	SortOrder      string   `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
	Limit          int      `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset         int      `form:"offset" binding:"omitempty,min=0"`
}

// Filter converts the query into a report filter.
func (q DocumentJournalQuery) Filter() (reports.DocumentJournalFilter, error) {
	from, err := parseDate("fromDate", q.FromDate)
	if err != nil {
		return reports.DocumentJournalFilter{}, err
	}
	to, err := parseDate("toDate", q.ToDate)
	if err != nil {
		return reports.DocumentJournalFilter{}, err
	}
	vendors, err := ParseIDs("vendorId", q.VendorIDs)
	if err != nil {
		return reports.DocumentJournalFilter{}, err
	}
	locations, err := ParseIDs("locationId", q.LocationIDs)
	if err != nil {
		return reports.DocumentJournalFilter{}, err
	}
	return reports.DocumentJournalFilter{
		FromDate:       from,
		ToDate:         to,
		DocumentTypes:  q.DocumentTypes,
		Status:         q.Status,
		NumberContains: q.NumberContains,
		VendorIDs:      vendors,
		LocationIDs:    locations,
		SortBy:         q.SortBy,
		SortOrder:      q.SortOrder,
		Limit:          q.Limit,
		Offset:         q.Offset,
	}, nil
}

// parseDate accepts 2006-01-02 or RFC 3339.
func parseDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, apperror.NewValidation("invalid date").
		WithDetail("field", field).
		WithDetail("value", s)
}
