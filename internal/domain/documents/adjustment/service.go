package adjustment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/id"
	"stockbook/internal/domain"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/journal"
	"stockbook/internal/domain/rules"
	"stockbook/internal/domain/status"
	"stockbook/internal/domain/valuation"
	"stockbook/pkg/logger"
)

// NumberPrefix starts every adjustment number.
const NumberPrefix = "IA"

// Service provides business operations for inventory adjustments.
type Service struct {
	repo  Repository
	deps  documents.Deps
	hooks *domain.HookRegistry[*InventoryAdjustment]
}

// NewService creates an adjustment service.
func NewService(repo Repository, deps documents.Deps) *Service {
	return &Service{
		repo:  repo,
		deps:  deps,
		hooks: domain.NewHookRegistry[*InventoryAdjustment](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*InventoryAdjustment] {
	return s.hooks
}

func (s *Service) prepare(ctx context.Context, a *InventoryAdjustment) error {
	a.Status = status.Closed
	for i := range a.Lines {
		l := &a.Lines[i]
		l.TaxRate = decimal.Zero
		l.Rate = decimal.Zero
		if l.UnitCost != nil && !l.UnitCost.IsNegative() {
			l.Rate = *l.UnitCost
		}
	}
	totals, err := documents.PrepareLines(len(a.Lines), func(i int) *documents.Line { return &a.Lines[i].Line },
		documents.LineRules{Signed: true})
	if err != nil {
		return err
	}
	a.SetTotals(totals)
	if err := a.Validate(ctx); err != nil {
		return err
	}
	return s.deps.RequireActive(ctx, a.LocationID)
}

// Create saves an adjustment and applies it to stock and cost.
func (s *Service) Create(ctx context.Context, a *InventoryAdjustment) error {
	if err := s.hooks.RunBeforeCreate(ctx, a); err != nil {
		return err
	}
	documents.PrepareCreate(ctx, &a.Header)
	if err := s.prepare(ctx, a); err != nil {
		return err
	}

	state := documents.NewSaveState(DocType, documents.OpCreate, a.ID)
	state.Snapshot = a
	err := documents.NewPlan(s.deps, state, documents.ItemLockKeys(a.Lines, lineOf)).
		Step(documents.StageNumber, func(ctx context.Context) error {
			return documents.AssignNumber(ctx, s.deps.Numerator, &a.Header, NumberPrefix)
		}).
		Step(documents.StageValuation, func(ctx context.Context) error {
			return s.apply(ctx, state, a)
		}).
		Step(documents.StageHeader, func(ctx context.Context) error {
			return s.repo.Create(ctx, a)
		}).
		Step(documents.StageLines, func(ctx context.Context) error {
			documents.NewLineIDs(a.Lines, lineOf)
			return s.repo.SaveLines(ctx, a.ID, documents.LineChanges[Line]{Insert: a.Lines})
		}).
		Journal(journal.SourceInventoryAdjustment, s.journal(a)).
		Step(documents.StageStatus, s.emit(state, a)).
		Run(ctx)
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterCreate(ctx, a); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}
	return nil
}

// Update reverses the stored adjustment and applies the new one.
func (s *Service) Update(ctx context.Context, a *InventoryAdjustment) error {
	if err := s.hooks.RunBeforeUpdate(ctx, a); err != nil {
		return err
	}
	if err := s.prepare(ctx, a); err != nil {
		return err
	}

	stored, err := s.Get(ctx, a.ID)
	if err != nil {
		return err
	}
	keys := documents.ItemLockKeys(append(append([]Line(nil), stored.Lines...), a.Lines...), lineOf)

	state := documents.NewSaveState(DocType, documents.OpUpdate, a.ID)
	state.Snapshot = a
	var (
		prior      *InventoryAdjustment
		priorLines []Line
		changes    documents.LineChanges[Line]
	)
	err = documents.NewPlan(s.deps, state, keys).
		Step(documents.StageLoad, func(ctx context.Context) error {
			var err error
			if prior, err = s.repo.GetForUpdate(ctx, a.ID); err != nil {
				return err
			}
			if priorLines, err = s.repo.GetLines(ctx, a.ID); err != nil {
				return fmt.Errorf("get lines: %w", err)
			}
			if err := documents.PrepareUpdate(ctx, "inventory adjustment", &prior.Header, &a.Header); err != nil {
				return err
			}
			changes, err = documents.DiffLines(priorLines, a.Lines, lineOf)
			return err
		}).
		Step(documents.StageValuation, func(ctx context.Context) error {
			if err := s.reverse(ctx, prior.LocationID, priorLines); err != nil {
				return err
			}
			return s.apply(ctx, state, a)
		}).
		Step(documents.StageHeader, func(ctx context.Context) error {
			return s.repo.Update(ctx, a)
		}).
		Step(documents.StageLines, func(ctx context.Context) error {
			changes.Sync(a.Lines, lineOf)
			return s.repo.SaveLines(ctx, a.ID, changes)
		}).
		Journal(journal.SourceInventoryAdjustment, s.journal(a)).
		Step(documents.StageStatus, s.emit(state, a)).
		Run(ctx)
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterUpdate(ctx, a); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}
	return nil
}

// Delete reverses every effect of an adjustment.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	stored, err := s.Get(ctx, docID)
	if err != nil {
		return err
	}

	state := documents.NewSaveState(DocType, documents.OpDelete, docID)
	var (
		prior      *InventoryAdjustment
		priorLines []Line
	)
	err = documents.NewPlan(s.deps, state, documents.ItemLockKeys(stored.Lines, lineOf)).
		Step(documents.StageLoad, func(ctx context.Context) error {
			var err error
			if prior, err = s.repo.GetForUpdate(ctx, docID); err != nil {
				return err
			}
			if err := s.hooks.RunBeforeDelete(ctx, prior); err != nil {
				return err
			}
			if priorLines, err = s.repo.GetLines(ctx, docID); err != nil {
				return fmt.Errorf("get lines: %w", err)
			}
			state.Snapshot = prior
			return nil
		}).
		Journal(journal.SourceInventoryAdjustment, nil).
		Step(documents.StageValuation, func(ctx context.Context) error {
			return s.reverse(ctx, prior.LocationID, priorLines)
		}).
		Step(documents.StageHeader, func(ctx context.Context) error {
			return s.repo.Delete(ctx, docID)
		}).
		Step(documents.StageStatus, func(ctx context.Context) error {
			return s.emit(state, prior)(ctx)
		}).
		Run(ctx)
	return err
}

// BulkDelete deletes several adjustments atomically.
func (s *Service) BulkDelete(ctx context.Context, ids []id.ID) error {
	return documents.BulkDelete(ctx, s.deps.TxManager, ids, s.Delete)
}

// Get returns an adjustment with its lines.
func (s *Service) Get(ctx context.Context, docID id.ID) (*InventoryAdjustment, error) {
	a, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if a.Lines, err = s.repo.GetLines(ctx, docID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return a, nil
}

// List returns a page of adjustment headers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*InventoryAdjustment], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// apply checks the non-negative rule, receives positive lines, ships negative
// ones, then prices every line at the cost valuation applied.
func (s *Service) apply(ctx context.Context, state *documents.SaveState, a *InventoryAdjustment) error {
	moves := make([]documents.Movement, len(a.Lines))
	var (
		receipts     []valuation.Receipt
		receiptAt    []int
		fulfillments []valuation.Fulfillment
		fulfillAt    []int
	)
	for i, l := range a.Lines {
		moves[i] = documents.Movement{ItemID: l.ItemID, LocationID: a.LocationID, Change: l.Quantity}
		if l.Quantity.IsPositive() {
			r := valuation.Receipt{ItemID: l.ItemID, LocationID: a.LocationID, Quantity: l.Quantity, AtAverage: l.UnitCost == nil}
			if l.UnitCost != nil {
				r.Rate = *l.UnitCost
			}
			receipts = append(receipts, r)
			receiptAt = append(receiptAt, i)
			continue
		}
		fulfillments = append(fulfillments, valuation.Fulfillment{ItemID: l.ItemID, LocationID: a.LocationID, Quantity: -l.Quantity})
		fulfillAt = append(fulfillAt, i)
	}
	if err := documents.CheckRules(ctx, s.deps, rules.ScopeAdjustment, moves); err != nil {
		return err
	}

	received, err := s.deps.Valuation.ProcessReceipts(ctx, valuation.ModeCreate, receipts)
	state.Receipts = received
	if err != nil {
		return err
	}
	shipped, err := s.deps.Valuation.ProcessFulfillments(ctx, valuation.ModeCreate, fulfillments)
	state.Fulfillments = shipped
	if err != nil {
		return err
	}

	for k, r := range received {
		if !r.Skipped {
			a.Lines[receiptAt[k]].Rate = r.Rate
		}
	}
	for k, f := range shipped {
		if !f.Skipped {
			a.Lines[fulfillAt[k]].Rate = f.CostAtFulfillment
		}
	}

	var t documents.Totals
	for i := range a.Lines {
		a.Lines[i].Compute()
		t.Net = t.Net.Add(a.Lines[i].Net)
		t.Gross = t.Gross.Add(a.Lines[i].Gross)
	}
	a.SetTotals(t)
	return nil
}

// reverse undoes stored lines: shipped quantity comes back at the cost it
// left at, then received quantity is taken out at the current average.
func (s *Service) reverse(ctx context.Context, locationID id.ID, lines []Line) error {
	var (
		removals  []valuation.Removal
		reversals []valuation.FulfillmentReversal
	)
	for _, l := range lines {
		if l.Quantity.IsPositive() {
			removals = append(removals, valuation.Removal{ItemID: l.ItemID, LocationID: locationID, Quantity: l.Quantity})
			continue
		}
		reversals = append(reversals, valuation.FulfillmentReversal{
			ItemID:            l.ItemID,
			LocationID:        locationID,
			Quantity:          -l.Quantity,
			CostAtFulfillment: l.Rate,
		})
	}
	if err := s.deps.Valuation.ReverseFulfillments(ctx, reversals); err != nil {
		return err
	}
	return s.deps.Valuation.RemoveReceipts(ctx, removals)
}

// journal builds DR Inventory / CR Inventory Adjustment for gains and the
// reverse for losses. Service items carry no inventory and post nothing.
func (s *Service) journal(a *InventoryAdjustment) documents.JournalFunc {
	return func(ctx context.Context) (*journal.Builder, error) {
		itemIDs := make([]id.ID, len(a.Lines))
		for i, l := range a.Lines {
			itemIDs[i] = l.ItemID
		}
		tracked, err := s.deps.Valuation.Tracked(ctx, itemIDs)
		if err != nil {
			return nil, err
		}

		b := journal.NewBuilder(journal.SourceInventoryAdjustment, a.ID, a.Date, a.Number)
		for _, l := range a.Lines {
			if !tracked[l.ItemID] {
				continue
			}
			itemID := l.ItemID
			b.Debit(journal.AccountInventory, &itemID, l.Net, l.Memo)
			b.Credit(journal.AccountInventoryAdjustment, &itemID, l.Net, a.Reason)
		}
		return b, nil
	}
}

func (s *Service) emit(state *documents.SaveState, a *InventoryAdjustment) func(context.Context) error {
	return func(context.Context) error {
		state.EmitSaved(&a.Header)
		return nil
	}
}
