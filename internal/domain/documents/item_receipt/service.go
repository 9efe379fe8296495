package item_receipt

import (
	"context"
	"fmt"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/purchase_order"
	"stockbook/internal/domain/journal"
	"stockbook/internal/domain/reconcile"
	"stockbook/internal/domain/status"
	"stockbook/internal/domain/valuation"
	"stockbook/pkg/logger"
)

// NumberPrefix starts every item receipt number.
const NumberPrefix = "IR"

// Service provides business operations for item receipts.
//
// Saving a receipt receives its lines into valuation, posts
// DR Inventory / CR GRNI and moves the received counters of the purchase
// order lines it references by the net change of this save.
type Service struct {
	repo   Repository
	orders Orders
	deps   documents.Deps
	hooks  *domain.HookRegistry[*ItemReceipt]
}

// NewService creates an item receipt service.
func NewService(repo Repository, orders Orders, deps documents.Deps) *Service {
	return &Service{
		repo:   repo,
		orders: orders,
		deps:   deps,
		hooks:  domain.NewHookRegistry[*ItemReceipt](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*ItemReceipt] {
	return s.hooks
}

// prepare fills defaults from the purchase order, computes totals and validates.
func (s *Service) prepare(ctx context.Context, r *ItemReceipt) error {
	if !id.IsNilPtr(r.PurchaseOrderID) {
		po, err := s.orders.GetByID(ctx, *r.PurchaseOrderID)
		if err != nil {
			return err
		}
		if err := matchOrder(r, po); err != nil {
			return err
		}
	}

	totals, err := documents.PrepareLines(len(r.Lines), func(i int) *documents.Line { return &r.Lines[i].Line },
		documents.LineRules{})
	if err != nil {
		return err
	}
	r.SetTotals(totals)
	if err := r.Validate(ctx); err != nil {
		return err
	}
	return s.deps.RequireActive(ctx, r.LocationID)
}

func matchOrder(r *ItemReceipt, po *purchase_order.PurchaseOrder) error {
	if id.IsNil(r.VendorID) {
		r.VendorID = po.VendorID
	}
	if id.IsNil(r.LocationID) {
		r.LocationID = po.LocationID
	}
	if r.VendorID != po.VendorID {
		return apperror.NewValidation("vendor does not match the purchase order").WithDetail("field", "vendorId")
	}
	return nil
}

// Create saves a new receipt and applies all of its effects.
func (s *Service) Create(ctx context.Context, r *ItemReceipt) error {
	if err := s.hooks.RunBeforeCreate(ctx, r); err != nil {
		return err
	}
	documents.PrepareCreate(ctx, &r.Header)
	r.Status = status.Open
	for i := range r.Lines {
		r.Lines[i].QuantityBilled = 0
	}
	if err := s.prepare(ctx, r); err != nil {
		return err
	}

	state := documents.NewSaveState(DocType, documents.OpCreate, r.ID)
	state.Snapshot = r
	err := documents.NewPlan(s.deps, state, documents.ItemLockKeys(r.Lines, lineOf)).
		Step(documents.StageNumber, func(ctx context.Context) error {
			return documents.AssignNumber(ctx, s.deps.Numerator, &r.Header, NumberPrefix)
		}).
		Step(documents.StageHeader, func(ctx context.Context) error {
			return s.repo.Create(ctx, r)
		}).
		Step(documents.StageLines, func(ctx context.Context) error {
			documents.NewLineIDs(r.Lines, lineOf)
			return s.repo.SaveLines(ctx, r.ID, documents.LineChanges[Line]{Insert: r.Lines})
		}).
		Step(documents.StageReconcile, s.reconcile(state, nil, r)).
		Step(documents.StageValuation, func(ctx context.Context) error {
			_, receipts := valuationChanges(nil, flows(r.LocationID, r.Lines))
			res, err := s.deps.Valuation.ProcessReceipts(ctx, valuation.ModeCreate, receipts)
			state.Receipts = res
			return err
		}).
		Journal(journal.SourceItemReceipt, s.journal(r)).
		Step(documents.StageStatus, s.emit(state, r)).
		Run(ctx)
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterCreate(ctx, r); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}
	return nil
}

// Update replaces the receipt and applies the difference of its effects.
// Billed lines cannot be removed, change item or drop below billed quantity.
// The purchase order a receipt belongs to cannot change.
func (s *Service) Update(ctx context.Context, r *ItemReceipt) error {
	if err := s.hooks.RunBeforeUpdate(ctx, r); err != nil {
		return err
	}
	if err := s.prepare(ctx, r); err != nil {
		return err
	}

	stored, err := s.Get(ctx, r.ID)
	if err != nil {
		return err
	}
	keys := documents.ItemLockKeys(append(append([]Line(nil), stored.Lines...), r.Lines...), lineOf)

	state := documents.NewSaveState(DocType, documents.OpUpdate, r.ID)
	state.Snapshot = r
	var (
		prior      *ItemReceipt
		priorLines []Line
		changes    documents.LineChanges[Line]
	)

	err = documents.NewPlan(s.deps, state, keys).
		Step(documents.StageLoad, func(ctx context.Context) error {
			var err error
			if prior, err = s.repo.GetForUpdate(ctx, r.ID); err != nil {
				return err
			}
			if priorLines, err = s.repo.GetLines(ctx, r.ID); err != nil {
				return fmt.Errorf("get lines: %w", err)
			}
			if !id.SamePtr(prior.PurchaseOrderID, r.PurchaseOrderID) {
				return apperror.NewValidation("purchase order of a receipt cannot change").
					WithDetail("field", "purchaseOrderId")
			}
			if err := documents.PrepareUpdate(ctx, "item receipt", &prior.Header, &r.Header); err != nil {
				return err
			}
			if changes, err = documents.DiffLines(priorLines, r.Lines, lineOf); err != nil {
				return err
			}
			return documents.ProtectConsumed("item receipt", priorLines, r.Lines, changes.Delete, lineOf, billedOf)
		}).
		Step(documents.StageHeader, func(ctx context.Context) error {
			r.Status = ownStatus(r.ID, r.Lines)
			return s.repo.Update(ctx, r)
		}).
		Step(documents.StageLines, func(ctx context.Context) error {
			return s.repo.SaveLines(ctx, r.ID, changes)
		}).
		Step(documents.StageReconcile, func(ctx context.Context) error {
			return s.reconcile(state, priorLines, r)(ctx)
		}).
		Step(documents.StageValuation, func(ctx context.Context) error {
			removals, receipts := valuationChanges(flows(prior.LocationID, priorLines), flows(r.LocationID, r.Lines))
			return s.revalue(ctx, state, removals, receipts)
		}).
		Journal(journal.SourceItemReceipt, s.journal(r)).
		Step(documents.StageStatus, s.emit(state, r)).
		Run(ctx)
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterUpdate(ctx, r); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}
	return nil
}

// Delete reverses every effect of a receipt nothing has been billed against.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	stored, err := s.Get(ctx, docID)
	if err != nil {
		return err
	}

	state := documents.NewSaveState(DocType, documents.OpDelete, docID)
	var (
		prior      *ItemReceipt
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
			if err := documents.RejectConsumed("item receipt", priorLines, lineOf, billedOf); err != nil {
				return err
			}
			state.Snapshot = prior
			return nil
		}).
		Journal(journal.SourceItemReceipt, nil).
		Step(documents.StageValuation, func(ctx context.Context) error {
			removals, _ := valuationChanges(flows(prior.LocationID, priorLines), nil)
			return s.revalue(ctx, state, removals, nil)
		}).
		Step(documents.StageReconcile, func(ctx context.Context) error {
			return s.reconcileDelta(ctx, state, orderRefs(priorLines), nil, prior.PurchaseOrderID)
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

// BulkDelete deletes several receipts atomically.
func (s *Service) BulkDelete(ctx context.Context, ids []id.ID) error {
	return documents.BulkDelete(ctx, s.deps.TxManager, ids, s.Delete)
}

// Get returns a receipt with its lines.
func (s *Service) Get(ctx context.Context, docID id.ID) (*ItemReceipt, error) {
	r, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if r.Lines, err = s.repo.GetLines(ctx, docID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return r, nil
}

// List returns a page of receipt headers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*ItemReceipt], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) reconcile(state *documents.SaveState, prior []Line, r *ItemReceipt) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return s.reconcileDelta(ctx, state, orderRefs(prior), orderRefs(r.Lines), r.PurchaseOrderID)
	}
}

func (s *Service) reconcileDelta(ctx context.Context, state *documents.SaveState, prior, current []reconcile.LineRef, orderID *id.ID) error {
	state.ParentDeltas = reconcile.ParentDeltas(prior, current)
	res, err := documents.ReconcileParents(ctx, s.orders.Received(), state.ParentDeltas, orderID)
	state.Parents = res
	return err
}

func (s *Service) revalue(ctx context.Context, state *documents.SaveState, removals []valuation.Removal, receipts []valuation.Receipt) error {
	if err := s.deps.Valuation.RemoveReceipts(ctx, removals); err != nil {
		return err
	}
	res, err := s.deps.Valuation.ProcessReceipts(ctx, valuation.ModeCreate, receipts)
	state.Receipts = res
	return err
}

// journal builds DR Inventory (DR Expense for service items) / CR GRNI.
func (s *Service) journal(r *ItemReceipt) documents.JournalFunc {
	return func(ctx context.Context) (*journal.Builder, error) {
		itemIDs := make([]id.ID, len(r.Lines))
		for i, l := range r.Lines {
			itemIDs[i] = l.ItemID
		}
		tracked, err := s.deps.Valuation.Tracked(ctx, itemIDs)
		if err != nil {
			return nil, err
		}

		b := journal.NewBuilder(journal.SourceItemReceipt, r.ID, r.Date, r.Number)
		for _, l := range r.Lines {
			itemID := l.ItemID
			account := journal.AccountExpense
			if tracked[itemID] {
				account = journal.AccountInventory
			}
			b.Debit(account, &itemID, l.Net, l.Memo)
		}
		b.Credit(journal.AccountGRNI, nil, r.TotalNet, "")
		return b, nil
	}
}

func (s *Service) emit(state *documents.SaveState, r *ItemReceipt) func(context.Context) error {
	return func(context.Context) error {
		state.EmitParentStatus(purchase_order.DocType)
		state.EmitSaved(&r.Header)
		return nil
	}
}

func ownStatus(docID id.ID, lines []Line) status.Status {
	rows := make([]documents.ParentLineRow, len(lines))
	for i, l := range lines {
		rows[i] = documents.ParentLineRow{DocumentID: docID, LineID: l.LineID, Ordered: l.Quantity, Consumed: l.QuantityBilled}
	}
	return documents.OwnStatus(rows)
}
