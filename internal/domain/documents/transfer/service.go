package transfer

import (
	"context"
	"fmt"

	"stockbook/internal/core/id"
	"stockbook/internal/domain"
	"stockbook/internal/domain/documents"
	"stockbook/internal/domain/rules"
	"stockbook/internal/domain/status"
	"stockbook/internal/domain/valuation"
	"stockbook/pkg/logger"
)

// NumberPrefix starts every transfer number.
const NumberPrefix = "IT"

// Service provides business operations for inventory transfers.
type Service struct {
	repo  Repository
	deps  documents.Deps
	hooks *domain.HookRegistry[*InventoryTransfer]
}

// NewService creates a transfer service.
func NewService(repo Repository, deps documents.Deps) *Service {
	return &Service{
		repo:  repo,
		deps:  deps,
		hooks: domain.NewHookRegistry[*InventoryTransfer](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*InventoryTransfer] {
	return s.hooks
}

func (s *Service) prepare(ctx context.Context, t *InventoryTransfer) error {
	t.Status = status.Closed
	totals, err := documents.PrepareLines(len(t.Lines), func(i int) *documents.Line { return &t.Lines[i].Line },
		documents.LineRules{})
	if err != nil {
		return err
	}
	t.SetTotals(totals)
	if err := t.Validate(ctx); err != nil {
		return err
	}
	return s.deps.RequireActive(ctx, t.FromLocationID, t.ToLocationID)
}

// Create saves a transfer and moves its quantity.
func (s *Service) Create(ctx context.Context, t *InventoryTransfer) error {
	if err := s.hooks.RunBeforeCreate(ctx, t); err != nil {
		return err
	}
	documents.PrepareCreate(ctx, &t.Header)
	if err := s.prepare(ctx, t); err != nil {
		return err
	}

	state := documents.NewSaveState(DocType, documents.OpCreate, t.ID)
	state.Snapshot = t
	err := documents.NewPlan(s.deps, state, documents.ItemLockKeys(t.Lines, lineOf)).
		Step(documents.StageNumber, func(ctx context.Context) error {
			return documents.AssignNumber(ctx, s.deps.Numerator, &t.Header, NumberPrefix)
		}).
		Step(documents.StageValuation, func(ctx context.Context) error {
			return s.move(ctx, t.FromLocationID, t.ToLocationID, t.Lines)
		}).
		Step(documents.StageHeader, func(ctx context.Context) error {
			return s.repo.Create(ctx, t)
		}).
		Step(documents.StageLines, func(ctx context.Context) error {
			documents.NewLineIDs(t.Lines, lineOf)
			return s.repo.SaveLines(ctx, t.ID, documents.LineChanges[Line]{Insert: t.Lines})
		}).
		Step(documents.StageStatus, s.emit(state, t)).
		Run(ctx)
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterCreate(ctx, t); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}
	return nil
}

// Update moves the stored quantity back and the new quantity forward.
func (s *Service) Update(ctx context.Context, t *InventoryTransfer) error {
	if err := s.hooks.RunBeforeUpdate(ctx, t); err != nil {
		return err
	}
	if err := s.prepare(ctx, t); err != nil {
		return err
	}

	stored, err := s.Get(ctx, t.ID)
	if err != nil {
		return err
	}
	keys := documents.ItemLockKeys(append(append([]Line(nil), stored.Lines...), t.Lines...), lineOf)

	state := documents.NewSaveState(DocType, documents.OpUpdate, t.ID)
	state.Snapshot = t
	var (
		prior      *InventoryTransfer
		priorLines []Line
		changes    documents.LineChanges[Line]
	)
	err = documents.NewPlan(s.deps, state, keys).
		Step(documents.StageLoad, func(ctx context.Context) error {
			var err error
			if prior, err = s.repo.GetForUpdate(ctx, t.ID); err != nil {
				return err
			}
			if priorLines, err = s.repo.GetLines(ctx, t.ID); err != nil {
				return fmt.Errorf("get lines: %w", err)
			}
			if err := documents.PrepareUpdate(ctx, "inventory transfer", &prior.Header, &t.Header); err != nil {
				return err
			}
			changes, err = documents.DiffLines(priorLines, t.Lines, lineOf)
			return err
		}).
		Step(documents.StageValuation, func(ctx context.Context) error {
			if err := s.deps.Valuation.MoveQuantity(ctx, movements(prior.ToLocationID, prior.FromLocationID, priorLines)); err != nil {
				return err
			}
			return s.move(ctx, t.FromLocationID, t.ToLocationID, t.Lines)
		}).
		Step(documents.StageHeader, func(ctx context.Context) error {
			return s.repo.Update(ctx, t)
		}).
		Step(documents.StageLines, func(ctx context.Context) error {
			return s.repo.SaveLines(ctx, t.ID, changes)
		}).
		Step(documents.StageStatus, s.emit(state, t)).
		Run(ctx)
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterUpdate(ctx, t); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}
	return nil
}

// Delete moves the transferred quantity back to its source.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	stored, err := s.Get(ctx, docID)
	if err != nil {
		return err
	}

	state := documents.NewSaveState(DocType, documents.OpDelete, docID)
	var (
		prior      *InventoryTransfer
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
		Step(documents.StageValuation, func(ctx context.Context) error {
			return s.deps.Valuation.MoveQuantity(ctx, movements(prior.ToLocationID, prior.FromLocationID, priorLines))
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

// BulkDelete deletes several transfers atomically.
func (s *Service) BulkDelete(ctx context.Context, ids []id.ID) error {
	return documents.BulkDelete(ctx, s.deps.TxManager, ids, s.Delete)
}

// Get returns a transfer with its lines.
func (s *Service) Get(ctx context.Context, docID id.ID) (*InventoryTransfer, error) {
	t, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if t.Lines, err = s.repo.GetLines(ctx, docID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return t, nil
}

// List returns a page of transfer headers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*InventoryTransfer], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// move checks every line fits the running on-hand at the source, then moves.
func (s *Service) move(ctx context.Context, from, to id.ID, lines []Line) error {
	checks := make([]documents.Movement, len(lines))
	for i, l := range lines {
		checks[i] = documents.Movement{ItemID: l.ItemID, LocationID: from, Change: -l.Quantity}
	}
	if err := documents.CheckRules(ctx, s.deps, rules.ScopeTransfer, checks); err != nil {
		return err
	}
	return s.deps.Valuation.MoveQuantity(ctx, movements(from, to, lines))
}

func movements(from, to id.ID, lines []Line) []valuation.Movement {
	out := make([]valuation.Movement, len(lines))
	for i, l := range lines {
		out[i] = valuation.Movement{ItemID: l.ItemID, FromLocationID: from, ToLocationID: to, Quantity: l.Quantity}
	}
	return out
}

func (s *Service) emit(state *documents.SaveState, t *InventoryTransfer) func(context.Context) error {
	return func(context.Context) error {
		state.EmitSaved(&t.Header)
		return nil
	}
}
