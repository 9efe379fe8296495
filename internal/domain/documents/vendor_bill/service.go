package vendor_bill

import (
	"context"
	"fmt"
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/documents/item_receipt"
	"stockbook/internal/domain/journal"
	"stockbook/internal/domain/reconcile"
	"stockbook/internal/domain/status"
	"stockbook/pkg/logger"
)

// NumberPrefix starts every vendor bill number.
const NumberPrefix = "VB"

// Service provides business operations for vendor bills.
//
// A bill matched to a receipt moves the billed counters of the receipt lines
// and rolls the same change up to the purchase order lines behind them.
type Service struct {
	repo     Repository
	receipts Receipts
	orders   Orders
	deps     documents.Deps
	hooks    *domain.HookRegistry[*VendorBill]
}

// NewService creates a vendor bill service.
func NewService(repo Repository, receipts Receipts, orders Orders, deps documents.Deps) *Service {
	return &Service{
		repo:     repo,
		receipts: receipts,
		orders:   orders,
		deps:     deps,
		hooks:    domain.NewHookRegistry[*VendorBill](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*VendorBill] {
	return s.hooks
}

func creditedOf(l *Line) *types.Quantity { return &l.QuantityCredited }

func (s *Service) prepare(ctx context.Context, b *VendorBill) error {
	if !id.IsNilPtr(b.ItemReceiptID) {
		r, err := s.receipts.GetByID(ctx, *b.ItemReceiptID)
		if err != nil {
			return err
		}
		if err := matchReceipt(b, r); err != nil {
			return err
		}
	}
	if b.DueDate.IsZero() && !b.Date.IsZero() {
		due, err := s.dueDate(ctx, b)
		if err != nil {
			return err
		}
		b.DueDate = due
	}

	totals, err := documents.PrepareLines(len(b.Lines), func(i int) *documents.Line { return &b.Lines[i].Line },
		documents.LineRules{RequireRate: true})
	if err != nil {
		return err
	}
	b.SetTotals(totals)
	return b.Validate(ctx)
}

func matchReceipt(b *VendorBill, r *item_receipt.ItemReceipt) error {
	if id.IsNil(b.VendorID) {
		b.VendorID = r.VendorID
	}
	if b.VendorID != r.VendorID {
		return apperror.NewValidation("vendor does not match the item receipt").WithDetail("field", "vendorId")
	}
	return nil
}

func (s *Service) dueDate(ctx context.Context, b *VendorBill) (time.Time, error) {
	if s.deps.Vendors == nil || id.IsNil(b.VendorID) {
		return b.Date.AddDate(0, 0, DefaultTermsDays), nil
	}
	return s.deps.Vendors.DueDate(ctx, b.VendorID, b.Date)
}

// Create saves a new bill.
func (s *Service) Create(ctx context.Context, b *VendorBill) error {
	if err := s.hooks.RunBeforeCreate(ctx, b); err != nil {
		return err
	}
	documents.PrepareCreate(ctx, &b.Header)
	b.Status = status.Open
	for i := range b.Lines {
		b.Lines[i].QuantityCredited = 0
	}
	if err := s.prepare(ctx, b); err != nil {
		return err
	}

	state := documents.NewSaveState(DocType, documents.OpCreate, b.ID)
	state.Snapshot = b
	err := documents.NewPlan(s.deps, state, nil).
		Step(documents.StageNumber, func(ctx context.Context) error {
			return documents.AssignNumber(ctx, s.deps.Numerator, &b.Header, NumberPrefix)
		}).
		Step(documents.StageHeader, func(ctx context.Context) error {
			return s.repo.Create(ctx, b)
		}).
		Step(documents.StageLines, func(ctx context.Context) error {
			documents.NewLineIDs(b.Lines, lineOf)
			return s.repo.SaveLines(ctx, b.ID, documents.LineChanges[Line]{Insert: b.Lines})
		}).
		Step(documents.StageReconcile, func(ctx context.Context) error {
			return s.reconcile(ctx, state, nil, b.Lines, b.ItemReceiptID)
		}).
		Journal(journal.SourceVendorBill, s.journal(b)).
		Step(documents.StageStatus, s.emit(state, b)).
		Run(ctx)
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterCreate(ctx, b); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}
	return nil
}

// Update replaces the bill. Credited lines cannot be removed, change item or
// drop below credited quantity, and the matched receipt cannot change.
func (s *Service) Update(ctx context.Context, b *VendorBill) error {
	if err := s.hooks.RunBeforeUpdate(ctx, b); err != nil {
		return err
	}
	if err := s.prepare(ctx, b); err != nil {
		return err
	}

	state := documents.NewSaveState(DocType, documents.OpUpdate, b.ID)
	state.Snapshot = b
	var (
		priorLines []Line
		changes    documents.LineChanges[Line]
	)
	err := documents.NewPlan(s.deps, state, nil).
		Step(documents.StageLoad, func(ctx context.Context) error {
			prior, err := s.repo.GetForUpdate(ctx, b.ID)
			if err != nil {
				return err
			}
			if priorLines, err = s.repo.GetLines(ctx, b.ID); err != nil {
				return fmt.Errorf("get lines: %w", err)
			}
			if !id.SamePtr(prior.ItemReceiptID, b.ItemReceiptID) {
				return apperror.NewValidation("item receipt of a bill cannot change").WithDetail("field", "itemReceiptId")
			}
			if err := documents.PrepareUpdate(ctx, "vendor bill", &prior.Header, &b.Header); err != nil {
				return err
			}
			if changes, err = documents.DiffLines(priorLines, b.Lines, lineOf); err != nil {
				return err
			}
			return documents.ProtectConsumed("vendor bill", priorLines, b.Lines, changes.Delete, lineOf, creditedOf)
		}).
		Step(documents.StageHeader, func(ctx context.Context) error {
			b.Status = ownStatus(b.ID, b.Lines)
			return s.repo.Update(ctx, b)
		}).
		Step(documents.StageLines, func(ctx context.Context) error {
			return s.repo.SaveLines(ctx, b.ID, changes)
		}).
		Step(documents.StageReconcile, func(ctx context.Context) error {
			return s.reconcile(ctx, state, priorLines, b.Lines, b.ItemReceiptID)
		}).
		Journal(journal.SourceVendorBill, s.journal(b)).
		Step(documents.StageStatus, s.emit(state, b)).
		Run(ctx)
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterUpdate(ctx, b); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}
	return nil
}

// Delete removes a bill nothing has been credited against and releases the
// receipt quantity it billed.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	state := documents.NewSaveState(DocType, documents.OpDelete, docID)
	var (
		prior      *VendorBill
		priorLines []Line
	)
	err := documents.NewPlan(s.deps, state, nil).
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
			return documents.RejectConsumed("vendor bill", priorLines, lineOf, creditedOf)
		}).
		Journal(journal.SourceVendorBill, nil).
		Step(documents.StageReconcile, func(ctx context.Context) error {
			return s.reconcile(ctx, state, priorLines, nil, prior.ItemReceiptID)
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

// BulkDelete deletes several bills atomically.
func (s *Service) BulkDelete(ctx context.Context, ids []id.ID) error {
	return documents.BulkDelete(ctx, s.deps.TxManager, ids, s.Delete)
}

// Get returns a bill with its lines.
func (s *Service) Get(ctx context.Context, docID id.ID) (*VendorBill, error) {
	b, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if b.Lines, err = s.repo.GetLines(ctx, docID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return b, nil
}

// List returns a page of bill headers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*VendorBill], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// reconcile moves receipt billed counters by the net change of this save and
// rolls what was applied up to the purchase order lines.
func (s *Service) reconcile(ctx context.Context, state *documents.SaveState, prior, current []Line, receiptID *id.ID) error {
	state.ParentDeltas = reconcile.ParentDeltas(receiptRefs(prior), receiptRefs(current))
	res, err := documents.ReconcileParents(ctx, s.receipts.Billed(), state.ParentDeltas, receiptID)
	state.Parents = res
	if err != nil {
		return err
	}

	applied := make(map[id.ID]types.Quantity, len(res.Adjustments))
	lineIDs := make([]id.ID, 0, len(res.Adjustments))
	for _, a := range res.Adjustments {
		if d := a.After - a.Before; d != 0 {
			applied[a.LineID] = d
			lineIDs = append(lineIDs, a.LineID)
		}
	}
	if len(lineIDs) == 0 {
		return nil
	}
	orderLines, err := s.receipts.OrderLines(ctx, lineIDs)
	if err != nil {
		return fmt.Errorf("load order lines: %w", err)
	}
	rollup := make(map[id.ID]types.Quantity, len(orderLines))
	for receiptLine, orderLine := range orderLines {
		rollup[orderLine] += applied[receiptLine]
	}
	_, err = documents.ReconcileParents(ctx, s.orders.Billed(), rollup, nil)
	return err
}

// journal builds DR GRNI for receipt-matched lines or DR Expense otherwise,
// DR Input Tax, CR Accounts Payable.
func (s *Service) journal(b *VendorBill) documents.JournalFunc {
	return func(context.Context) (*journal.Builder, error) {
		jb := journal.NewBuilder(journal.SourceVendorBill, b.ID, b.Date, b.Number)
		for _, l := range b.Lines {
			itemID := l.ItemID
			account := journal.AccountExpense
			if l.Matched() {
				account = journal.AccountGRNI
			}
			jb.Debit(account, &itemID, l.Net, l.Memo)
		}
		jb.Debit(journal.AccountInputTax, nil, b.TotalTax, "")
		jb.Credit(journal.AccountPayable, nil, b.TotalGross, "")
		return jb, nil
	}
}

func (s *Service) emit(state *documents.SaveState, b *VendorBill) func(context.Context) error {
	return func(context.Context) error {
		state.EmitParentStatus(item_receipt.DocType)
		state.EmitSaved(&b.Header)
		return nil
	}
}

func ownStatus(docID id.ID, lines []Line) status.Status {
	rows := make([]documents.ParentLineRow, len(lines))
	for i, l := range lines {
		rows[i] = documents.ParentLineRow{DocumentID: docID, LineID: l.LineID, Ordered: l.Quantity, Consumed: l.QuantityCredited}
	}
	return documents.OwnStatus(rows)
}
