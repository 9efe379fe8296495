package reports

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

type fakeRepo struct {
	rows         []ValuationRow
	journal      *DocumentJournal
	summaryCalls int
	lastFilter   DocumentJournalFilter
	err          error
}

func (f *fakeRepo) ValuationRows(context.Context, ValuationFilter) ([]ValuationRow, error) {
	return f.rows, f.err
}

func (f *fakeRepo) GetDocumentJournal(_ context.Context, filter DocumentJournalFilter) (*DocumentJournal, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.journal, nil
}

func (f *fakeRepo) GetDocumentTypeSummary(context.Context, DocumentJournalFilter) ([]DocumentTypeSummary, error) {
	f.summaryCalls++
	return []DocumentTypeSummary{{DocumentType: "purchase_order", Count: 1}}, nil
}

func strp(s string) *string { return &s }

func valuationRows() (id.ID, id.ID, []ValuationRow) {
	widget, bolt := id.New(), id.New()
	mainLoc, annex := id.New(), id.New()
	return widget, bolt, []ValuationRow{
		{ItemID: widget, ItemCode: "W-1", ItemName: "Widget", AverageCost: decimal.RequireFromString("2.50"),
			LocationID: &mainLoc, LocationCode: strp("MAIN"), LocationName: strp("Main"), Quantity: types.NewQuantity(10)},
		{ItemID: widget, ItemCode: "W-1", ItemName: "Widget", AverageCost: decimal.RequireFromString("2.50"),
			LocationID: &annex, LocationCode: strp("ANX"), LocationName: strp("Annex"), Quantity: types.MustQuantity("2.5")},
		{ItemID: bolt, ItemCode: "B-1", ItemName: "Bolt", AverageCost: decimal.RequireFromString("0.10")},
	}
}

func TestBuildValuation(t *testing.T) {
	widget, bolt, rows := valuationRows()

	v := BuildValuation(rows, false)

	require.Len(t, v.Items, 2)
	assert.Equal(t, widget, v.Items[0].ItemID)
	assert.Equal(t, types.MustQuantity("12.5"), v.Items[0].Quantity)
	assert.Equal(t, "31.25", v.Items[0].Value.StringFixed(2))
	require.Len(t, v.Items[0].Locations, 2)
	assert.Equal(t, "6.25", v.Items[0].Locations[1].Value.StringFixed(2))

	assert.Equal(t, bolt, v.Items[1].ItemID)
	assert.True(t, v.Items[1].Quantity.IsZero())
	assert.Empty(t, v.Items[1].Locations)

	assert.Equal(t, 2, v.TotalItems)
	assert.Equal(t, types.MustQuantity("12.5"), v.TotalQuantity)
	assert.Equal(t, "31.25", v.TotalValue.StringFixed(2))
}

func TestBuildValuation_ExcludeZero(t *testing.T) {
	_, _, rows := valuationRows()

	v := BuildValuation(rows, true)

	require.Len(t, v.Items, 1)
	assert.Equal(t, "W-1", v.Items[0].ItemCode)
}

func TestBuildValuation_Empty(t *testing.T) {
	v := BuildValuation(nil, false)

	assert.NotNil(t, v.Items)
	assert.Zero(t, v.TotalItems)
	assert.True(t, v.TotalValue.IsZero())
}

func TestInventoryValuation(t *testing.T) {
	_, _, rows := valuationRows()
	svc := NewService(&fakeRepo{rows: rows})
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	v, err := svc.InventoryValuation(context.Background(), ValuationFilter{})

	require.NoError(t, err)
	assert.Equal(t, fixed, v.AsOf)
	assert.Len(t, v.Items, 2)
}

func TestInventoryValuation_RepoError(t *testing.T) {
	svc := NewService(&fakeRepo{err: errors.New("boom")})

	_, err := svc.InventoryValuation(context.Background(), ValuationFilter{})

	assert.ErrorContains(t, err, "boom")
}

func TestGetDocumentJournal_Defaults(t *testing.T) {
	repo := &fakeRepo{journal: &DocumentJournal{}}
	svc := NewService(repo)

	j, err := svc.GetDocumentJournal(context.Background(), DocumentJournalFilter{Status: "OPEN", Limit: 10000})

	require.NoError(t, err)
	assert.Equal(t, 500, repo.lastFilter.Limit)
	assert.Equal(t, "date", repo.lastFilter.SortBy)
	assert.Equal(t, "desc", repo.lastFilter.SortOrder)
	assert.Equal(t, "open", repo.lastFilter.Status)
	assert.Len(t, j.Summary, 1)
}

func TestGetDocumentJournal_SummaryOnFirstPageOnly(t *testing.T) {
	repo := &fakeRepo{journal: &DocumentJournal{}}
	svc := NewService(repo)

	_, err := svc.GetDocumentJournal(context.Background(), DocumentJournalFilter{Offset: 50})

	require.NoError(t, err)
	assert.Zero(t, repo.summaryCalls)
}

func TestGetDocumentJournal_Validation(t *testing.T) {
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)
	tests := []struct {
		name   string
		filter DocumentJournalFilter
	}{
		{"unknown status", DocumentJournalFilter{Status: "posted"}},
		{"inverted period", DocumentJournalFilter{FromDate: &from, ToDate: &to}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&fakeRepo{journal: &DocumentJournal{}})
			_, err := svc.GetDocumentJournal(context.Background(), tt.filter)
			assert.Error(t, err)
		})
	}
}

func TestWriteValuationXLSX(t *testing.T) {
	_, _, rows := valuationRows()
	v := BuildValuation(rows, false)

	var buf bytes.Buffer
	require.NoError(t, WriteValuationXLSX(&buf, v))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	items, err := f.GetRows(ValuationSheet)
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "Code", items[0][0])
	assert.Equal(t, "W-1", items[1][0])
	assert.Equal(t, "31.25", items[1][5])
	assert.Equal(t, "Total", items[3][0])

	locs, err := f.GetRows(LocationsSheet)
	require.NoError(t, err)
	assert.Len(t, locs, 3)
	assert.Equal(t, "ANX", locs[2][1])
}
