package adjustment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/doctest"
	"stockbook/internal/domain/journal"
	"stockbook/internal/domain/rules"
	"stockbook/internal/domain/status"
)

func setup() (*doctest.Fixture, *Service, id.ID) {
	f := doctest.New()
	return f, NewService(NewMemoryRepository(), f.Deps), id.New()
}

func adjust(location id.ID, lines ...Line) *InventoryAdjustment {
	a := NewInventoryAdjustment(location)
	a.Date = doctest.Date
	a.Reason = "count"
	a.Lines = lines
	return a
}

func line(item id.ID, units int64, cost string) Line {
	l := Line{Line: documents.Line{ItemID: item, Quantity: doctest.Qty(units)}}
	if cost != "" {
		c := decimal.RequireFromString(cost)
		l.UnitCost = &c
	}
	return l
}

func TestService_GainAtUnitCost(t *testing.T) {
	f, svc, loc := setup()
	item := f.Item("5")
	f.OnHand(item, loc, 10)

	a := adjust(loc, line(item, 10, "7"))
	require.NoError(t, svc.Create(context.Background(), a))

	assert.Equal(t, "IA-2026-00001", a.Number)
	assert.Equal(t, status.Closed, a.Status)
	assert.Equal(t, doctest.Qty(20), f.Quantity(item, loc))
	assert.True(t, doctest.Dec("6").Equal(f.AverageCost(item)))
	assert.True(t, doctest.Dec("70").Equal(a.TotalNet))

	entries := f.Entries(journal.SourceInventoryAdjustment, a.ID)
	require.Len(t, entries, 1)
	assert.True(t, doctest.Dec("70").Equal(doctest.Balance(entries, journal.AccountInventory)))
	assert.True(t, doctest.Dec("-70").Equal(doctest.Balance(entries, journal.AccountInventoryAdjustment)))
}

func TestService_GainWithoutCostUsesAverage(t *testing.T) {
	f, svc, loc := setup()
	item := f.Item("5")
	f.OnHand(item, loc, 10)

	a := adjust(loc, line(item, 2, ""))
	require.NoError(t, svc.Create(context.Background(), a))

	assert.True(t, doctest.Dec("5").Equal(f.AverageCost(item)))
	assert.True(t, doctest.Dec("5").Equal(a.Lines[0].Rate))
	assert.True(t, doctest.Dec("10").Equal(a.TotalNet))
}

func TestService_LossShipsAtAverage(t *testing.T) {
	f, svc, loc := setup()
	item := f.Item("5")
	f.OnHand(item, loc, 10)

	a := adjust(loc, line(item, -4, ""))
	require.NoError(t, svc.Create(context.Background(), a))

	assert.Equal(t, doctest.Qty(6), f.Quantity(item, loc))
	entries := f.Entries(journal.SourceInventoryAdjustment, a.ID)
	assert.True(t, doctest.Dec("-20").Equal(doctest.Balance(entries, journal.AccountInventory)))
	assert.True(t, doctest.Dec("20").Equal(doctest.Balance(entries, journal.AccountInventoryAdjustment)))
}

func TestService_NegativeOnHandIsRejected(t *testing.T) {
	tests := []struct {
		name  string
		lines func(item id.ID) []Line
	}{
		{"single line", func(item id.ID) []Line { return []Line{line(item, -11, "")} }},
		{"second line sees the first", func(item id.ID) []Line {
			return []Line{line(item, -6, ""), line(item, -6, "")}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, svc, loc := setup()
			item := f.Item("5")
			f.OnHand(item, loc, 10)

			err := svc.Create(context.Background(), adjust(loc, tt.lines(item)...))
			assert.True(t, apperror.HasCode(err, rules.CodeNonNegative), "%v", err)
			assert.Equal(t, doctest.Qty(10), f.Quantity(item, loc))
			assert.Zero(t, f.Journals.Len())
		})
	}
}

func TestService_GainThenLossInOneDocument(t *testing.T) {
	f, svc, loc := setup()
	item := f.Item("5")
	f.OnHand(item, loc, 10)

	require.NoError(t, svc.Create(context.Background(), adjust(loc, line(item, 2, "5"), line(item, -12, ""))))
	assert.True(t, f.Quantity(item, loc).IsZero())
}

func TestService_UpdateAndDeleteRestoreStock(t *testing.T) {
	ctx := context.Background()
	f, svc, loc := setup()
	item := f.Item("5")
	f.OnHand(item, loc, 10)

	a := adjust(loc, line(item, -4, ""))
	require.NoError(t, svc.Create(ctx, a))

	edit, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	edit.Lines[0].Quantity = doctest.Qty(-2)
	require.NoError(t, svc.Update(ctx, edit))
	assert.Equal(t, doctest.Qty(8), f.Quantity(item, loc))

	entries := f.Entries(journal.SourceInventoryAdjustment, a.ID)
	require.Len(t, entries, 1)
	assert.True(t, doctest.Dec("-10").Equal(doctest.Balance(entries, journal.AccountInventory)))

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.Equal(t, doctest.Qty(10), f.Quantity(item, loc))
	assert.True(t, doctest.Dec("5").Equal(f.AverageCost(item)))
	assert.Empty(t, f.Entries(journal.SourceInventoryAdjustment, a.ID))
}

func TestService_UnitCostCannotBeNegative(t *testing.T) {
	f, svc, loc := setup()
	item := f.Item("5")

	err := svc.Create(context.Background(), adjust(loc, line(item, 1, "-1")))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
