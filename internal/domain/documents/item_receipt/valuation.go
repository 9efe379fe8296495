package item_receipt

import (
	"sort"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/registers/stock"
	"stockbook/internal/domain/valuation"
)

// flow is what a receipt brought into one item and location.
type flow struct {
	qty   types.Quantity
	value decimal.Decimal
}

func (f flow) rate() decimal.Decimal {
	if f.qty.IsZero() {
		return decimal.Zero
	}
	return f.value.Div(f.qty.Decimal())
}

func flows(locationID id.ID, lines []Line) map[stock.Key]flow {
	out := make(map[stock.Key]flow, len(lines))
	for _, l := range lines {
		k := stock.Key{ItemID: l.ItemID, LocationID: locationID}
		f := out[k]
		f.qty += l.Quantity
		f.value = f.value.Add(l.Quantity.Decimal().Mul(l.Rate))
		out[k] = f
	}
	return out
}

// valuationChanges turns an edit of a receipt into removals and new receipts.
// Receipts cannot be edited in place: a quantity change at an unchanged rate
// adds or removes the difference; anything else removes the prior quantity
// and receives the current one.
func valuationChanges(prior, current map[stock.Key]flow) ([]valuation.Removal, []valuation.Receipt) {
	keys := make([]stock.Key, 0, len(prior)+len(current))
	for k := range prior {
		keys = append(keys, k)
	}
	for k := range current {
		if _, ok := prior[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ItemID != keys[j].ItemID {
			return keys[i].ItemID.String() < keys[j].ItemID.String()
		}
		return keys[i].LocationID.String() < keys[j].LocationID.String()
	})

	var removals []valuation.Removal
	var receipts []valuation.Receipt
	remove := func(k stock.Key, q types.Quantity) {
		removals = append(removals, valuation.Removal{ItemID: k.ItemID, LocationID: k.LocationID, Quantity: q})
	}
	receive := func(k stock.Key, q types.Quantity, rate decimal.Decimal) {
		receipts = append(receipts, valuation.Receipt{ItemID: k.ItemID, LocationID: k.LocationID, Quantity: q, Rate: rate})
	}

	for _, k := range keys {
		p, c := prior[k], current[k]
		if p.qty == c.qty && p.value.Equal(c.value) {
			continue
		}
		switch {
		case p.qty.IsZero():
			receive(k, c.qty, c.rate())
		case c.qty.IsZero():
			remove(k, p.qty)
		case p.rate().Equal(c.rate()) && c.qty > p.qty:
			receive(k, c.qty-p.qty, c.rate())
		case p.rate().Equal(c.rate()) && c.qty < p.qty:
			remove(k, p.qty-c.qty)
		default:
			remove(k, p.qty)
			receive(k, c.qty, c.rate())
		}
	}
	return removals, receipts
}
