// Package doctest wires document services against in-memory collaborators
// for unit tests.
package doctest

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/id"
	"stockbook/internal/core/numerator"
	"stockbook/internal/core/tx"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/audit"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/events"
	"stockbook/internal/domain/journal"
	"stockbook/internal/domain/registers/stock"
	"stockbook/internal/domain/rules"
	"stockbook/internal/domain/valuation"
)

// Date is the document date used across tests.
var Date = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

// Fixture holds the in-memory state behind Deps.
type Fixture struct {
	Deps documents.Deps

	Levels   *stock.MemoryRepository
	Costs    *valuation.MemoryCostStore
	Journals *journal.MemoryRepository
	Outbox   *events.Recorder
	Audit    *audit.MemoryRecorder
	Numbers  *numerator.MockGenerator
}

// New builds a fixture with the default business rules.
func New() *Fixture {
	levels := stock.NewMemoryRepository()
	costs := valuation.NewMemoryCostStore()
	stockSvc := stock.NewService(levels, costs)
	journals := journal.NewMemoryRepository()
	engine, err := rules.NewEngine(rules.Defaults())
	if err != nil {
		panic(err)
	}

	f := &Fixture{
		Levels:   levels,
		Costs:    costs,
		Journals: journals,
		Outbox:   &events.Recorder{},
		Audit:    &audit.MemoryRecorder{},
		Numbers:  numerator.NewMockGenerator(),
	}
	f.Deps = documents.Deps{
		TxManager: tx.Nop{},
		Numerator: f.Numbers,
		Stock:     stockSvc,
		Valuation: valuation.NewProcessor(stockSvc, costs),
		Journal:   journal.NewService(journals),
		Rules:     engine,
		Locker:    documents.NopLocker{},
		Events:    f.Outbox,
		Audit:     f.Audit,
	}
	return f
}

// Item registers an inventory product with a starting average cost.
func (f *Fixture) Item(avg string) id.ID {
	itemID := id.New()
	f.Costs.AddInventoryItem(itemID, decimal.RequireFromString(avg))
	return itemID
}

// Service registers a service product.
func (f *Fixture) Service() id.ID {
	itemID := id.New()
	f.Costs.AddServiceItem(itemID)
	return itemID
}

// OnHand seeds a stock level.
func (f *Fixture) OnHand(itemID, locationID id.ID, units int64) {
	f.Levels.Seed(itemID, locationID, types.NewQuantity(units))
}

// Quantity returns the stock level of an item at a location.
func (f *Fixture) Quantity(itemID, locationID id.ID) types.Quantity {
	return f.Levels.Quantity(itemID, locationID)
}

// AverageCost returns the current average cost of an item.
func (f *Fixture) AverageCost(itemID id.ID) decimal.Decimal {
	return f.Costs.AverageCost(itemID)
}

// Entries returns the stored journal entries of a document.
func (f *Fixture) Entries(sourceType journal.SourceType, docID id.ID) []journal.Entry {
	entries, _ := f.Journals.ListBySource(context.Background(), sourceType, docID)
	return entries
}

// Balance sums debits minus credits on account across entries.
func Balance(entries []journal.Entry, account journal.Account) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		for _, l := range e.Lines {
			if l.Account == account {
				total = total.Add(l.Debit).Sub(l.Credit)
			}
		}
	}
	return total
}

// Qty is shorthand for whole units.
func Qty(units int64) types.Quantity {
	return types.NewQuantity(units)
}

// Dec parses a decimal literal.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
