package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockbook/internal/core/id"
	"stockbook/internal/core/numerator"
	"stockbook/internal/core/tx"
	"stockbook/internal/domain/audit"
	"stockbook/internal/domain/events"
	"stockbook/internal/domain/journal"
	"stockbook/internal/domain/registers/stock"
	"stockbook/internal/domain/rules"
	"stockbook/internal/domain/saga"
	"stockbook/internal/domain/valuation"
	"stockbook/pkg/logger"
)

// Deps are the collaborators document services share.
type Deps struct {
	TxManager tx.Manager
	Numerator numerator.Generator
	Stock     *stock.Service
	Valuation *valuation.Processor
	Journal   journal.Poster
	Rules     *rules.Engine
	Locker    Locker
	Events    events.Publisher
	Audit     audit.Recorder

	Locations LocationGuard
	Vendors   VendorTerms
}

// LocationGuard rejects locations that cannot take stock movements.
type LocationGuard interface {
	RequireActive(ctx context.Context, ids ...id.ID) error
}

// VendorTerms computes bill due dates from vendor payment terms.
type VendorTerms interface {
	DueDate(ctx context.Context, vendorID id.ID, on time.Time) (time.Time, error)
}

// RequireActive checks locations when a guard is configured.
func (d Deps) RequireActive(ctx context.Context, ids ...id.ID) error {
	if d.Locations == nil {
		return nil
	}
	return d.Locations.RequireActive(ctx, ids...)
}

// Plan is a document save: a saga whose steps record progress on a SaveState.
type Plan struct {
	deps  Deps
	state *SaveState
	saga  *saga.Saga
	keys  []string
}

// NewPlan starts a save plan. keys are taken through the Locker before any
// other step and held until the transaction has committed or rolled back.
func NewPlan(deps Deps, state *SaveState, keys []string) *Plan {
	if deps.Locker == nil {
		deps.Locker = NopLocker{}
	}
	p := &Plan{
		deps:  deps,
		state: state,
		saga:  saga.New(state.DocType + "." + string(state.Op)),
		keys:  keys,
	}
	p.Step(StageLock, p.lock)
	return p
}

// State returns the workflow state.
func (p *Plan) State() *SaveState {
	return p.state
}

// Step appends a required stage whose effects the transaction undoes.
func (p *Plan) Step(stage Stage, do saga.Action) *Plan {
	return p.Then(stage, do, nil)
}

// Then appends a required stage with a compensation for effects outside the
// transaction.
func (p *Plan) Then(stage Stage, do, undo saga.Action) *Plan {
	p.saga.Then(string(stage), p.track(stage, do), undo)
	return p
}

// JournalFunc builds a document's journal entry. A nil or empty builder
// posts nothing.
type JournalFunc func(ctx context.Context) (*journal.Builder, error)

// Journal appends the journal stage. Existing entries of the document are
// removed first, then the built entry is posted. With a remote poster a later
// failure reverses the new entry and reposts the removed ones.
func (p *Plan) Journal(sourceType journal.SourceType, build JournalFunc) *Plan {
	external := journal.IsExternal(p.deps.Journal)
	var removed []journal.Entry

	do := func(ctx context.Context) error {
		if p.state.Op != OpCreate {
			if external {
				prior, err := p.deps.Journal.ForSource(ctx, sourceType, p.state.DocID)
				if err != nil {
					return fmt.Errorf("load journal: %w", err)
				}
				removed = prior
			}
			if err := p.deps.Journal.Reverse(ctx, sourceType, p.state.DocID); err != nil {
				return fmt.Errorf("reverse journal: %w", err)
			}
		}
		if p.state.Op == OpDelete {
			return nil
		}
		b, err := build(ctx)
		if err != nil {
			return err
		}
		if b == nil || b.Empty() {
			return nil
		}
		entry, err := p.deps.Journal.Post(ctx, b.Request())
		if err != nil {
			return fmt.Errorf("post journal: %w", err)
		}
		p.state.Journal = &entry
		return nil
	}

	var undo saga.Action
	if external {
		undo = func(ctx context.Context) error {
			if p.state.Journal != nil {
				if err := p.deps.Journal.Reverse(ctx, sourceType, p.state.DocID); err != nil {
					return err
				}
			}
			for _, e := range removed {
				if _, err := p.deps.Journal.Post(ctx, e.Request()); err != nil {
					return fmt.Errorf("repost journal entry %s: %w", e.ID, err)
				}
			}
			return nil
		}
	}
	return p.Then(StageJournal, do, undo)
}

// Run executes the plan in one transaction, then records audit and outbox
// entries in savepoints so their failure never fails the save.
func (p *Plan) Run(ctx context.Context) error {
	p.saga.Also(string(StageAudit), p.track(StageAudit, p.nested(p.recordAudit)))
	p.saga.Also(string(StageEvents), p.track(StageEvents, p.nested(p.publishEvents)))

	defer p.unlock(context.WithoutCancel(ctx)) //nolint:errcheck

	err := p.deps.TxManager.RunInTransaction(ctx, p.saga.Run)
	if err != nil {
		var stepErr *saga.StepError
		if errors.As(err, &stepErr) {
			p.state.Failed = Stage(stepErr.Step)
		}
		return err
	}

	logger.Info(ctx, "document saved",
		"doc_type", p.state.DocType, "op", p.state.Op, "id", p.state.DocID, "stages", len(p.state.Completed))
	return nil
}

func (p *Plan) track(stage Stage, do saga.Action) saga.Action {
	return func(ctx context.Context) error {
		if err := do(ctx); err != nil {
			return err
		}
		p.state.Completed = append(p.state.Completed, stage)
		return nil
	}
}

func (p *Plan) nested(do saga.Action) saga.Action {
	return func(ctx context.Context) error {
		return p.deps.TxManager.RunNested(ctx, do)
	}
}

func (p *Plan) lock(ctx context.Context) error {
	if len(p.keys) == 0 {
		return nil
	}
	release, err := p.deps.Locker.Acquire(ctx, p.keys)
	if err != nil {
		return err
	}
	p.state.release = Once(release)
	return nil
}

func (p *Plan) unlock(ctx context.Context) error {
	if p.state.release == nil {
		return nil
	}
	return p.state.release(ctx)
}

func (p *Plan) recordAudit(ctx context.Context) error {
	if p.deps.Audit == nil {
		return nil
	}
	e, err := audit.NewEntry(ctx, p.state.DocType, p.state.DocID, audit.Action(p.state.Op), p.state.Snapshot)
	if err != nil {
		return fmt.Errorf("build audit entry: %w", err)
	}
	return p.deps.Audit.Record(ctx, e)
}

func (p *Plan) publishEvents(ctx context.Context) error {
	if p.deps.Events == nil || len(p.state.Events) == 0 {
		return nil
	}
	return p.deps.Events.Publish(ctx, p.state.Events...)
}
