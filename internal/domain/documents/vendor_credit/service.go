package vendor_credit

import (
	"context"
	"fmt"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/vendor_bill"
	"stockbook/internal/domain/journal"
	"stockbook/internal/domain/reconcile"
	"stockbook/internal/domain/rules"
	"stockbook/internal/domain/status"
	"stockbook/internal/domain/valuation"
	"stockbook/pkg/logger"
)

// NumberPrefix starts every vendor credit number.
const NumberPrefix = "VC"

// Service provides business operations for vendor credits.
//
// A credit ships its lines out of the location at the current average cost,
// posts DR AP / CR Inventory with the difference to price variance and moves
// the credited counters of the bill lines it references. Edits reverse the
// stored effects and apply the new ones.
type Service struct {
	repo  Repository
	bills Bills
	deps  documents.Deps
	hooks *domain.HookRegistry[*VendorCredit]
}

// NewService creates a vendor credit service.
func NewService(repo Repository, bills Bills, deps documents.Deps) *Service {
	return &Service{
		repo:  repo,
		bills: bills,
		deps:  deps,
		hooks: domain.NewHookRegistry[*VendorCredit](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*VendorCredit] {
	return s.hooks
}

func (s *Service) prepare(ctx context.Context, c *VendorCredit) error {
	if !id.IsNilPtr(c.VendorBillID) {
		b, err := s.bills.GetByID(ctx, *c.VendorBillID)
		if err != nil {
			return err
		}
		if id.IsNil(c.VendorID) {
			c.VendorID = b.VendorID
		}
		if c.VendorID != b.VendorID {
			return apperror.NewValidation("vendor does not match the vendor bill").WithDetail("field", "vendorId")
		}
	}

	totals, err := documents.PrepareLines(len(c.Lines), func(i int) *documents.Line { return &c.Lines[i].Line },
		documents.LineRules{RequireRate: true})
	if err != nil {
		return err
	}
	c.SetTotals(totals)
	if err := c.Validate(ctx); err != nil {
		return err
	}
	return s.deps.RequireActive(ctx, c.LocationID)
}

// Create saves a credit and ships its goods out.
func (s *Service) Create(ctx context.Context, c *VendorCredit) error {
	if err := s.hooks.RunBeforeCreate(ctx, c); err != nil {
		return err
	}
	documents.PrepareCreate(ctx, &c.Header)
	c.Status = status.Closed
	if err := s.prepare(ctx, c); err != nil {
		return err
	}

	state := documents.NewSaveState(DocType, documents.OpCreate, c.ID)
	state.Snapshot = c
	err := documents.NewPlan(s.deps, state, documents.ItemLockKeys(c.Lines, lineOf)).
		Step(documents.StageNumber, func(ctx context.Context) error {
			return documents.AssignNumber(ctx, s.deps.Numerator, &c.Header, NumberPrefix)
		}).
		Step(documents.StageHeader, func(ctx context.Context) error {
			return s.repo.Create(ctx, c)
		}).
		Step(documents.StageValuation, func(ctx context.Context) error {
			return s.fulfill(ctx, state, c)
		}).
		Step(documents.StageLines, func(ctx context.Context) error {
			documents.NewLineIDs(c.Lines, lineOf)
			return s.repo.SaveLines(ctx, c.ID, documents.LineChanges[Line]{Insert: c.Lines})
		}).
		Step(documents.StageReconcile, func(ctx context.Context) error {
			return s.reconcile(ctx, state, nil, c.Lines, c.VendorBillID)
		}).
		Journal(journal.SourceVendorCredit, s.journal(c)).
		Step(documents.StageStatus, s.emit(state, c)).
		Run(ctx)
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterCreate(ctx, c); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}
	return nil
}

// Update reverses the stored credit and applies the new one. The vendor bill
// of a credit cannot change.
func (s *Service) Update(ctx context.Context, c *VendorCredit) error {
	if err := s.hooks.RunBeforeUpdate(ctx, c); err != nil {
		return err
	}
	c.Status = status.Closed
	if err := s.prepare(ctx, c); err != nil {
		return err
	}

	stored, err := s.Get(ctx, c.ID)
	if err != nil {
		return err
	}
	keys := documents.ItemLockKeys(append(append([]Line(nil), stored.Lines...), c.Lines...), lineOf)

	state := documents.NewSaveState(DocType, documents.OpUpdate, c.ID)
	state.Snapshot = c
	var (
		prior      *VendorCredit
		priorLines []Line
		changes    documents.LineChanges[Line]
	)
	err = documents.NewPlan(s.deps, state, keys).
		Step(documents.StageLoad, func(ctx context.Context) error {
			var err error
			if prior, err = s.repo.GetForUpdate(ctx, c.ID); err != nil {
				return err
			}
			if priorLines, err = s.repo.GetLines(ctx, c.ID); err != nil {
				return fmt.Errorf("get lines: %w", err)
			}
			if !id.SamePtr(prior.VendorBillID, c.VendorBillID) {
				return apperror.NewValidation("vendor bill of a credit cannot change").WithDetail("field", "vendorBillId")
			}
			if err := documents.PrepareUpdate(ctx, "vendor credit", &prior.Header, &c.Header); err != nil {
				return err
			}
			changes, err = documents.DiffLines(priorLines, c.Lines, lineOf)
			return err
		}).
		Step(documents.StageHeader, func(ctx context.Context) error {
			return s.repo.Update(ctx, c)
		}).
		Step(documents.StageValuation, func(ctx context.Context) error {
			if err := s.deps.Valuation.ReverseFulfillments(ctx, reversals(prior.LocationID, priorLines)); err != nil {
				return err
			}
			return s.fulfill(ctx, state, c)
		}).
		Step(documents.StageLines, func(ctx context.Context) error {
			changes.Sync(c.Lines, lineOf)
			return s.repo.SaveLines(ctx, c.ID, changes)
		}).
		Step(documents.StageReconcile, func(ctx context.Context) error {
			return s.reconcile(ctx, state, priorLines, c.Lines, c.VendorBillID)
		}).
		Journal(journal.SourceVendorCredit, s.journal(c)).
		Step(documents.StageStatus, s.emit(state, c)).
		Run(ctx)
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterUpdate(ctx, c); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}
	return nil
}

// Delete puts the returned goods back at the cost they left at and releases
// the bill quantity the credit consumed.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	stored, err := s.Get(ctx, docID)
	if err != nil {
		return err
	}

	state := documents.NewSaveState(DocType, documents.OpDelete, docID)
	var (
		prior      *VendorCredit
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
		Journal(journal.SourceVendorCredit, nil).
		Step(documents.StageValuation, func(ctx context.Context) error {
			return s.deps.Valuation.ReverseFulfillments(ctx, reversals(prior.LocationID, priorLines))
		}).
		Step(documents.StageReconcile, func(ctx context.Context) error {
			return s.reconcile(ctx, state, priorLines, nil, prior.VendorBillID)
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

// BulkDelete deletes several credits atomically.
func (s *Service) BulkDelete(ctx context.Context, ids []id.ID) error {
	return documents.BulkDelete(ctx, s.deps.TxManager, ids, s.Delete)
}

// Get returns a credit with its lines.
func (s *Service) Get(ctx context.Context, docID id.ID) (*VendorCredit, error) {
	c, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if c.Lines, err = s.repo.GetLines(ctx, docID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return c, nil
}

// List returns a page of credit headers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*VendorCredit], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// fulfill checks the return fits on-hand, ships it and records the cost each
// line left at.
func (s *Service) fulfill(ctx context.Context, state *documents.SaveState, c *VendorCredit) error {
	moves := make([]documents.Movement, len(c.Lines))
	out := make([]valuation.Fulfillment, len(c.Lines))
	for i, l := range c.Lines {
		moves[i] = documents.Movement{ItemID: l.ItemID, LocationID: c.LocationID, Change: -l.Quantity}
		out[i] = valuation.Fulfillment{ItemID: l.ItemID, LocationID: c.LocationID, Quantity: l.Quantity}
	}
	if err := documents.CheckRules(ctx, s.deps, rules.ScopeFulfillment, moves); err != nil {
		return err
	}

	res, err := s.deps.Valuation.ProcessFulfillments(ctx, valuation.ModeCreate, out)
	state.Fulfillments = res
	if err != nil {
		return err
	}
	for i := range c.Lines {
		c.Lines[i].CostAtFulfillment = res[i].CostAtFulfillment
		c.Lines[i].COGS = res[i].COGS.Round(2)
	}
	return nil
}

func reversals(locationID id.ID, lines []Line) []valuation.FulfillmentReversal {
	out := make([]valuation.FulfillmentReversal, len(lines))
	for i, l := range lines {
		out[i] = valuation.FulfillmentReversal{
			ItemID:            l.ItemID,
			LocationID:        locationID,
			Quantity:          l.Quantity,
			CostAtFulfillment: l.CostAtFulfillment,
		}
	}
	return out
}

func (s *Service) reconcile(ctx context.Context, state *documents.SaveState, prior, current []Line, billID *id.ID) error {
	state.ParentDeltas = reconcile.ParentDeltas(billRefs(prior), billRefs(current))
	res, err := documents.ReconcileParents(ctx, s.bills.Credited(), state.ParentDeltas, billID)
	state.Parents = res
	return err
}

// journal builds DR AP for the gross credit, CR Inventory at cost with the
// difference to the credited amount in price variance (CR Expense for service
// items), CR Input Tax.
func (s *Service) journal(c *VendorCredit) documents.JournalFunc {
	return func(ctx context.Context) (*journal.Builder, error) {
		itemIDs := make([]id.ID, len(c.Lines))
		for i, l := range c.Lines {
			itemIDs[i] = l.ItemID
		}
		tracked, err := s.deps.Valuation.Tracked(ctx, itemIDs)
		if err != nil {
			return nil, err
		}

		b := journal.NewBuilder(journal.SourceVendorCredit, c.ID, c.Date, c.Number)
		b.Debit(journal.AccountPayable, nil, c.TotalGross, "")
		for _, l := range c.Lines {
			itemID := l.ItemID
			if !tracked[itemID] {
				b.Credit(journal.AccountExpense, &itemID, l.Net, l.Memo)
				continue
			}
			b.Credit(journal.AccountInventory, &itemID, l.COGS, l.Memo)
			b.Credit(journal.AccountPriceVariance, &itemID, l.Net.Sub(l.COGS), l.Memo)
		}
		b.Credit(journal.AccountInputTax, nil, c.TotalTax, "")
		return b, nil
	}
}

func (s *Service) emit(state *documents.SaveState, c *VendorCredit) func(context.Context) error {
	return func(context.Context) error {
		state.EmitParentStatus(vendor_bill.DocType)
		state.EmitSaved(&c.Header)
		return nil
	}
}
