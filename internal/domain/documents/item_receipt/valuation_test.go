package item_receipt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stockbook/internal/core/id"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/doctest"
	"stockbook/internal/domain/valuation"
)

func TestValuationChanges(t *testing.T) {
	item := id.New()
	here, there := id.New(), id.New()
	line := func(qty int64, rate string) Line {
		return Line{Line: documents.Line{ItemID: item, Quantity: doctest.Qty(qty), Rate: doctest.Dec(rate)}}
	}

	tests := []struct {
		name         string
		priorLoc     id.ID
		prior        []Line
		current      []Line
		wantRemovals []valuation.Removal
		wantReceipts []valuation.Receipt
	}{
		{
			name:    "unchanged",
			prior:   []Line{line(5, "2")},
			current: []Line{line(5, "2")},
		},
		{
			name:         "more at same rate",
			prior:        []Line{line(5, "2")},
			current:      []Line{line(8, "2")},
			wantReceipts: []valuation.Receipt{{ItemID: item, LocationID: here, Quantity: doctest.Qty(3), Rate: doctest.Dec("2")}},
		},
		{
			name:         "less at same rate",
			prior:        []Line{line(5, "2")},
			current:      []Line{line(1, "2")},
			wantRemovals: []valuation.Removal{{ItemID: item, LocationID: here, Quantity: doctest.Qty(4)}},
		},
		{
			name:         "rate change re-receives",
			prior:        []Line{line(5, "2")},
			current:      []Line{line(5, "3")},
			wantRemovals: []valuation.Removal{{ItemID: item, LocationID: here, Quantity: doctest.Qty(5)}},
			wantReceipts: []valuation.Receipt{{ItemID: item, LocationID: here, Quantity: doctest.Qty(5), Rate: doctest.Dec("3")}},
		},
		{
			name:    "split lines net out",
			prior:   []Line{line(5, "2")},
			current: []Line{line(2, "2"), line(3, "2")},
		},
		{
			name:         "location moved",
			priorLoc:     there,
			prior:        []Line{line(5, "2")},
			current:      []Line{line(5, "2")},
			wantRemovals: []valuation.Removal{{ItemID: item, LocationID: there, Quantity: doctest.Qty(5)}},
			wantReceipts: []valuation.Receipt{{ItemID: item, LocationID: here, Quantity: doctest.Qty(5), Rate: doctest.Dec("2")}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			priorLoc := here
			if !id.IsNil(tt.priorLoc) {
				priorLoc = tt.priorLoc
			}
			removals, receipts := valuationChanges(flows(priorLoc, tt.prior), flows(here, tt.current))
			assert.Equal(t, tt.wantRemovals, removals)
			if !assert.Len(t, receipts, len(tt.wantReceipts)) {
				return
			}
			for i, want := range tt.wantReceipts {
				assert.Equal(t, want.ItemID, receipts[i].ItemID)
				assert.Equal(t, want.LocationID, receipts[i].LocationID)
				assert.Equal(t, want.Quantity, receipts[i].Quantity)
				assert.True(t, want.Rate.Equal(receipts[i].Rate), "rate %s", receipts[i].Rate)
			}
		})
	}
}
