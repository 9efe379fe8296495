package purchase_order

import (
	"context"
	"fmt"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/status"
	"stockbook/pkg/logger"
)

// NumberPrefix starts every purchase order number.
const NumberPrefix = "PO"

// Service provides business operations for purchase orders.
type Service struct {
	repo  Repository
	deps  documents.Deps
	hooks *domain.HookRegistry[*PurchaseOrder]
}

// NewService creates a purchase order service.
func NewService(repo Repository, deps documents.Deps) *Service {
	return &Service{
		repo:  repo,
		deps:  deps,
		hooks: domain.NewHookRegistry[*PurchaseOrder](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*PurchaseOrder] {
	return s.hooks
}

func (s *Service) prepare(ctx context.Context, po *PurchaseOrder) error {
	totals, err := documents.PrepareLines(len(po.Lines), func(i int) *documents.Line { return &po.Lines[i].Line },
		documents.LineRules{RequireRate: true})
	if err != nil {
		return err
	}
	po.SetTotals(totals)
	return po.Validate(ctx)
}

// Create saves a new order. Receipt and billing counters start at zero.
func (s *Service) Create(ctx context.Context, po *PurchaseOrder) error {
	if err := s.hooks.RunBeforeCreate(ctx, po); err != nil {
		return err
	}
	documents.PrepareCreate(ctx, &po.Header)
	for i := range po.Lines {
		po.Lines[i].QuantityReceived = 0
		po.Lines[i].QuantityBilled = 0
	}
	po.Status = status.Open
	if err := s.prepare(ctx, po); err != nil {
		return err
	}
	if err := s.deps.RequireActive(ctx, po.LocationID); err != nil {
		return err
	}

	state := documents.NewSaveState(DocType, documents.OpCreate, po.ID)
	state.Snapshot = po
	err := documents.NewPlan(s.deps, state, nil).
		Step(documents.StageNumber, func(ctx context.Context) error {
			return documents.AssignNumber(ctx, s.deps.Numerator, &po.Header, NumberPrefix)
		}).
		Step(documents.StageHeader, func(ctx context.Context) error {
			return s.repo.Create(ctx, po)
		}).
		Step(documents.StageLines, func(ctx context.Context) error {
			documents.NewLineIDs(po.Lines, lineOf)
			if err := s.repo.SaveLines(ctx, po.ID, documents.LineChanges[Line]{Insert: po.Lines}); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}
			state.EmitSaved(&po.Header)
			return nil
		}).
		Run(ctx)
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterCreate(ctx, po); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}
	return nil
}

// Get returns an order with its lines.
func (s *Service) Get(ctx context.Context, docID id.ID) (*PurchaseOrder, error) {
	po, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if po.Lines, err = s.repo.GetLines(ctx, docID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return po, nil
}

// List returns a page of order headers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// Update replaces the order's header and lines. A line that was received or
// billed can neither be removed, switch item nor drop below its counters.
func (s *Service) Update(ctx context.Context, po *PurchaseOrder) error {
	if err := s.hooks.RunBeforeUpdate(ctx, po); err != nil {
		return err
	}
	if err := s.prepare(ctx, po); err != nil {
		return err
	}
	if err := s.deps.RequireActive(ctx, po.LocationID); err != nil {
		return err
	}

	state := documents.NewSaveState(DocType, documents.OpUpdate, po.ID)
	state.Snapshot = po
	var changes documents.LineChanges[Line]

	err := documents.NewPlan(s.deps, state, nil).
		Step(documents.StageLoad, func(ctx context.Context) error {
			prior, err := s.repo.GetForUpdate(ctx, po.ID)
			if err != nil {
				return err
			}
			priorLines, err := s.repo.GetLines(ctx, po.ID)
			if err != nil {
				return fmt.Errorf("get lines: %w", err)
			}
			if err := documents.PrepareUpdate(ctx, "purchase order", &prior.Header, &po.Header); err != nil {
				return err
			}
			if changes, err = documents.DiffLines(priorLines, po.Lines, lineOf); err != nil {
				return err
			}
			return carryCounters(priorLines, po.Lines, changes.Delete)
		}).
		Step(documents.StageHeader, func(ctx context.Context) error {
			po.Status = ownStatus(po.ID, po.Lines)
			return s.repo.Update(ctx, po)
		}).
		Step(documents.StageLines, func(ctx context.Context) error {
			if err := s.repo.SaveLines(ctx, po.ID, changes); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}
			state.EmitSaved(&po.Header)
			return nil
		}).
		Run(ctx)
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterUpdate(ctx, po); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}
	return nil
}

// carryCounters copies stored counters onto the submitted lines and rejects
// edits that would undo consumed quantity.
func carryCounters(prior, current []Line, deleted []id.ID) error {
	byID := make(map[id.ID]Line, len(prior))
	for _, l := range prior {
		byID[l.LineID] = l
	}

	for _, lineID := range deleted {
		if old := byID[lineID]; consumed(old) {
			return apperror.NewQuantityConsumed("purchase order", lineID.String(), maxConsumed(old).String())
		}
	}

	for i := range current {
		l := &current[i]
		old, ok := byID[l.LineID]
		if !ok {
			l.QuantityReceived, l.QuantityBilled = 0, 0
			continue
		}
		l.QuantityReceived = old.QuantityReceived
		l.QuantityBilled = old.QuantityBilled
		if !consumed(old) {
			continue
		}
		if l.ItemID != old.ItemID {
			return apperror.NewValidation("item of a received line cannot change").
				WithDetail("field", fmt.Sprintf("lines[%d].itemId", i))
		}
		if l.Quantity < maxConsumed(old) {
			return apperror.NewQuantityConsumed("purchase order", l.LineID.String(), maxConsumed(old).String())
		}
	}
	return nil
}

func consumed(l Line) bool {
	return l.QuantityReceived > 0 || l.QuantityBilled > 0
}

func maxConsumed(l Line) types.Quantity {
	return max(l.QuantityReceived, l.QuantityBilled)
}

func ownStatus(docID id.ID, lines []Line) status.Status {
	rows := make([]documents.ParentLineRow, len(lines))
	for i, l := range lines {
		rows[i] = documents.ParentLineRow{DocumentID: docID, LineID: l.LineID, Ordered: l.Quantity, Consumed: l.QuantityReceived}
	}
	return documents.OwnStatus(rows)
}

// Delete removes an order nothing has been received or billed against.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	state := documents.NewSaveState(DocType, documents.OpDelete, docID)
	err := documents.NewPlan(s.deps, state, nil).
		Step(documents.StageLoad, func(ctx context.Context) error {
			po, err := s.repo.GetForUpdate(ctx, docID)
			if err != nil {
				return err
			}
			if err := s.hooks.RunBeforeDelete(ctx, po); err != nil {
				return err
			}
			lines, err := s.repo.GetLines(ctx, docID)
			if err != nil {
				return fmt.Errorf("get lines: %w", err)
			}
			for _, l := range lines {
				if consumed(l) {
					return apperror.NewQuantityConsumed("purchase order", l.LineID.String(), maxConsumed(l).String())
				}
			}
			state.Snapshot = po
			state.EmitSaved(&po.Header)
			return nil
		}).
		Step(documents.StageHeader, func(ctx context.Context) error {
			return s.repo.Delete(ctx, docID)
		}).
		Run(ctx)
	return err
}

// BulkDelete deletes several orders atomically.
func (s *Service) BulkDelete(ctx context.Context, ids []id.ID) error {
	return documents.BulkDelete(ctx, s.deps.TxManager, ids, s.Delete)
}

// ReceiptDraft prefills an item receipt with the quantities still to be
// received on the order.
func (s *Service) ReceiptDraft(ctx context.Context, docID id.ID) (*ReceiptDraft, error) {
	po, err := s.Get(ctx, docID)
	if err != nil {
		return nil, err
	}

	draft := &ReceiptDraft{
		PurchaseOrderID: po.ID,
		VendorID:        po.VendorID,
		LocationID:      po.LocationID,
		Lines:           []DraftLine{},
	}
	for _, l := range po.Lines {
		remaining := l.Remaining()
		if remaining.IsZero() {
			continue
		}
		draft.Lines = append(draft.Lines, DraftLine{
			PurchaseOrderLineID: l.LineID,
			ItemID:              l.ItemID,
			Quantity:            remaining,
			Rate:                l.Rate,
			TaxRate:             l.TaxRate,
		})
	}
	if len(draft.Lines) == 0 {
		return nil, apperror.NewBusinessRule("purchase_order.fully_received", "purchase order has nothing left to receive").
			WithDetail("purchase_order_id", po.ID.String())
	}
	return draft, nil
}
