package valuation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/costing"
	"stockbook/internal/domain/registers/stock"
	"stockbook/pkg/logger"
)

// Processor runs receipts, fulfillments and their reversals against stock
// levels and product costs. All writes join the transaction carried by ctx.
//
// Every call reads the state it needs once, applies the movements in order
// (so two lines of the same item in one batch see each other), then writes all
// location quantities with a single bulk set and each changed product cost
// with its own call.
type Processor struct {
	stock *stock.Service
	costs CostStore
	log   *logger.Logger
}

// NewProcessor creates a processor.
func NewProcessor(stockSvc *stock.Service, costs CostStore) *Processor {
	return &Processor{
		stock: stockSvc,
		costs: costs,
		log:   logger.Default().WithComponent("valuation"),
	}
}

// ProcessReceipts receives goods. Only ModeCreate is supported; edits and
// deletes of historical receipts go through RemoveReceipts and new receipts.
func (p *Processor) ProcessReceipts(ctx context.Context, mode Mode, receipts []Receipt) ([]ReceiptResult, error) {
	if mode != ModeCreate {
		return nil, apperror.NewUnsupportedOperation("item receipt processing", string(mode))
	}
	if len(receipts) == 0 {
		return nil, nil
	}

	items := make([]id.ID, 0, len(receipts))
	keys := make([]stock.Key, 0, len(receipts))
	for _, r := range receipts {
		if r.Quantity.IsNegative() {
			return nil, apperror.NewValidation("receipt quantity must not be negative").
				WithDetail("item_id", r.ItemID.String())
		}
		items = append(items, r.ItemID)
		keys = append(keys, stock.Key{ItemID: r.ItemID, LocationID: r.LocationID})
	}

	st, err := p.load(ctx, items, keys)
	if err != nil {
		return nil, err
	}

	results := make([]ReceiptResult, len(receipts))
	for i, r := range receipts {
		key := stock.Key{ItemID: r.ItemID, LocationID: r.LocationID}
		res := ReceiptResult{ItemID: r.ItemID, LocationID: r.LocationID, Quantity: r.Quantity}
		it := st.items[r.ItemID]
		if !it.tracked {
			res.Skipped = true
			results[i] = res
			continue
		}

		res.PreviousAvgCost = it.avgCost
		rate := r.Rate
		if r.AtAverage {
			rate = it.avgCost
		}
		res.Rate = rate
		c := costing.CalculateAverageCost(it.quantity, it.avgCost, r.Quantity.Decimal(), rate)
		it.quantity = c.NewTotalQty
		it.avgCost = c.NewAvgCost
		st.levels[key] += r.Quantity
		st.touch(key)

		res.NewAvgCost = c.NewAvgCost
		res.LocationQuantity = st.levels[key]
		res.TotalQuantity = types.NewQuantityFromDecimal(c.NewTotalQty)
		results[i] = res
	}

	if err := p.flush(ctx, st); err != nil {
		return nil, err
	}
	return results, nil
}

// ProcessFulfillments ships goods out at the current average cost. Every line
// must fit in the on-hand quantity of its location, counting earlier lines of
// the same batch; the first shortage aborts the whole batch before any write.
func (p *Processor) ProcessFulfillments(ctx context.Context, mode Mode, fulfillments []Fulfillment) ([]FulfillmentResult, error) {
	if mode != ModeCreate {
		return nil, apperror.NewUnsupportedOperation("item fulfillment processing", string(mode))
	}
	if len(fulfillments) == 0 {
		return nil, nil
	}

	items := make([]id.ID, 0, len(fulfillments))
	keys := make([]stock.Key, 0, len(fulfillments))
	for _, f := range fulfillments {
		if f.Quantity.IsNegative() {
			return nil, apperror.NewValidation("fulfillment quantity must not be negative").
				WithDetail("item_id", f.ItemID.String())
		}
		items = append(items, f.ItemID)
		keys = append(keys, stock.Key{ItemID: f.ItemID, LocationID: f.LocationID})
	}

	st, err := p.load(ctx, items, keys)
	if err != nil {
		return nil, err
	}

	results := make([]FulfillmentResult, len(fulfillments))
	for i, f := range fulfillments {
		key := stock.Key{ItemID: f.ItemID, LocationID: f.LocationID}
		res := FulfillmentResult{ItemID: f.ItemID, LocationID: f.LocationID, Quantity: f.Quantity}
		it := st.items[f.ItemID]
		if !it.tracked {
			res.Skipped = true
			results[i] = res
			continue
		}

		available := st.levels[key]
		if f.Quantity > available {
			return nil, apperror.NewInsufficientStock(f.ItemID.String(), f.LocationID.String(), f.Quantity.String(), available.String())
		}

		res.CostAtFulfillment = it.avgCost
		c := costing.CalculateFulfillmentCost(it.avgCost, it.quantity, f.Quantity.Decimal())
		it.quantity = c.NewQuantity
		it.avgCost = c.NewAvgCost
		st.levels[key] = available - f.Quantity
		st.touch(key)

		res.COGS = c.COGS
		res.NewAvgCost = c.NewAvgCost
		res.LocationQuantity = st.levels[key]
		res.TotalQuantity = types.NewQuantityFromDecimal(c.NewQuantity)
		results[i] = res
	}

	if err := p.flush(ctx, st); err != nil {
		return nil, err
	}
	return results, nil
}

// ReverseFulfillments puts fulfilled quantity back, valued at the cost it was
// charged out at.
func (p *Processor) ReverseFulfillments(ctx context.Context, reversals []FulfillmentReversal) error {
	if len(reversals) == 0 {
		return nil
	}

	items := make([]id.ID, 0, len(reversals))
	keys := make([]stock.Key, 0, len(reversals))
	for _, r := range reversals {
		items = append(items, r.ItemID)
		keys = append(keys, stock.Key{ItemID: r.ItemID, LocationID: r.LocationID})
	}

	st, err := p.load(ctx, items, keys)
	if err != nil {
		return err
	}

	for _, r := range reversals {
		it := st.items[r.ItemID]
		if !it.tracked {
			continue
		}
		key := stock.Key{ItemID: r.ItemID, LocationID: r.LocationID}
		c := costing.ReverseItemFulfillment(it.avgCost, it.quantity, r.Quantity.Decimal(), r.CostAtFulfillment)
		it.quantity = c.NewQuantity
		it.avgCost = c.NewAvgCost
		st.levels[key] += r.Quantity
		st.touch(key)
	}

	return p.flush(ctx, st)
}

// RemoveReceipts takes received quantity back out when receipt lines are
// reduced or deleted. Units leave at the current average. On-hand may go
// negative when the goods were already consumed.
func (p *Processor) RemoveReceipts(ctx context.Context, removals []Removal) error {
	if len(removals) == 0 {
		return nil
	}

	items := make([]id.ID, 0, len(removals))
	keys := make([]stock.Key, 0, len(removals))
	for _, r := range removals {
		items = append(items, r.ItemID)
		keys = append(keys, stock.Key{ItemID: r.ItemID, LocationID: r.LocationID})
	}

	st, err := p.load(ctx, items, keys)
	if err != nil {
		return err
	}

	for _, r := range removals {
		it := st.items[r.ItemID]
		if !it.tracked {
			continue
		}
		key := stock.Key{ItemID: r.ItemID, LocationID: r.LocationID}
		c := costing.ReverseReceipt(it.quantity, it.avgCost, r.Quantity.Decimal())
		it.quantity = c.NewQuantity
		it.avgCost = c.NewAvgCost
		st.levels[key] -= r.Quantity
		st.touch(key)
	}

	return p.flush(ctx, st)
}

// MoveQuantity transfers quantity between locations. The global quantity and
// the average cost do not change.
func (p *Processor) MoveQuantity(ctx context.Context, movements []Movement) error {
	if len(movements) == 0 {
		return nil
	}

	items := make([]id.ID, 0, len(movements))
	keys := make([]stock.Key, 0, 2*len(movements))
	for _, m := range movements {
		if m.FromLocationID == m.ToLocationID {
			return apperror.NewValidation("source and destination locations must differ").
				WithDetail("location_id", m.FromLocationID.String())
		}
		items = append(items, m.ItemID)
		keys = append(keys,
			stock.Key{ItemID: m.ItemID, LocationID: m.FromLocationID},
			stock.Key{ItemID: m.ItemID, LocationID: m.ToLocationID},
		)
	}

	st, err := p.load(ctx, items, keys)
	if err != nil {
		return err
	}

	for _, m := range movements {
		if !st.items[m.ItemID].tracked {
			continue
		}
		from := stock.Key{ItemID: m.ItemID, LocationID: m.FromLocationID}
		to := stock.Key{ItemID: m.ItemID, LocationID: m.ToLocationID}
		available := st.levels[from]
		if m.Quantity > available {
			return apperror.NewInsufficientStock(m.ItemID.String(), m.FromLocationID.String(), m.Quantity.String(), available.String())
		}
		st.levels[from] = available - m.Quantity
		st.levels[to] += m.Quantity
		st.touch(from)
		st.touch(to)
	}

	return p.flush(ctx, st)
}

type itemState struct {
	tracked bool
	// quantity is the global on-hand across all locations
	quantity    decimal.Decimal
	avgCost     decimal.Decimal
	originalAvg decimal.Decimal
}

// Tracked reports which of itemIDs carry inventory. Unknown items are absent.
func (p *Processor) Tracked(ctx context.Context, itemIDs []id.ID) (map[id.ID]bool, error) {
	costs, err := p.costs.ItemCosts(ctx, id.Unique(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("load item costs: %w", err)
	}
	out := make(map[id.ID]bool, len(costs))
	for itemID, c := range costs {
		out[itemID] = c.Tracked
	}
	return out, nil
}

type batchState struct {
	items   map[id.ID]*itemState
	levels  map[stock.Key]types.Quantity
	touched []stock.Key
	seen    map[stock.Key]bool
}

func (s *batchState) touch(k stock.Key) {
	if s.seen[k] {
		return
	}
	s.seen[k] = true
	s.touched = append(s.touched, k)
}

func (p *Processor) load(ctx context.Context, itemIDs []id.ID, keys []stock.Key) (*batchState, error) {
	itemIDs = id.Unique(itemIDs)

	costs, err := p.costs.ItemCosts(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("load item costs: %w", err)
	}

	st := &batchState{
		items: make(map[id.ID]*itemState, len(itemIDs)),
		seen:  make(map[stock.Key]bool, len(keys)),
	}

	var tracked []id.ID
	for _, itemID := range itemIDs {
		c, ok := costs[itemID]
		if !ok {
			return nil, apperror.NewNotFound("product", itemID.String())
		}
		st.items[itemID] = &itemState{tracked: c.Tracked, avgCost: c.AverageCost, originalAvg: c.AverageCost}
		if c.Tracked {
			tracked = append(tracked, itemID)
		}
	}

	totals, err := p.stock.TotalQuantities(ctx, tracked)
	if err != nil {
		return nil, err
	}
	for _, itemID := range tracked {
		st.items[itemID].quantity = totals[itemID].Decimal()
	}

	var trackedKeys []stock.Key
	for _, k := range keys {
		if st.items[k.ItemID].tracked {
			trackedKeys = append(trackedKeys, k)
		}
	}
	st.levels, err = p.stock.Quantities(ctx, trackedKeys)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (p *Processor) flush(ctx context.Context, st *batchState) error {
	if len(st.touched) > 0 {
		sets := make([]stock.QuantitySet, len(st.touched))
		for i, k := range st.touched {
			sets[i] = stock.QuantitySet{ItemID: k.ItemID, LocationID: k.LocationID, Quantity: st.levels[k]}
		}
		results, err := p.stock.BulkSetQuantity(ctx, sets)
		if err != nil {
			return fmt.Errorf("set quantities: %w", err)
		}
		for _, r := range results {
			if !r.OK() {
				return fmt.Errorf("set quantity %s/%s: %w", r.ItemID, r.LocationID, r.Err)
			}
		}
	}

	for itemID, it := range st.items {
		if !it.tracked || it.avgCost.Equal(it.originalAvg) {
			continue
		}
		if err := p.costs.UpdateAverageCost(ctx, itemID, it.avgCost); err != nil {
			return fmt.Errorf("update average cost of %s: %w", itemID, err)
		}
		p.log.WithContext(ctx).Debugw("average cost updated",
			"item_id", itemID, "from", it.originalAvg.String(), "to", it.avgCost.String())
	}
	return nil
}
