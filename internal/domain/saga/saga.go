// Package saga runs a document save as an ordered list of steps with
// compensating actions.
//
// Database effects of a save are already covered by the surrounding
// transaction. Compensations exist for what the transaction cannot undo:
// journal entries posted to a remote GL service, distributed locks, and any
// step wired against an external collaborator.
package saga

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"stockbook/pkg/logger"
)

var tracer = otel.Tracer("stockbook/saga")

// Action is the body of a step or of its compensation.
type Action func(ctx context.Context) error

// Step is one unit of a saga.
type Step struct {
	Name       string
	Do         Action
	Compensate Action

	// BestEffort steps log their failure and let the saga continue.
	// They are never compensated.
	BestEffort bool
}

// Saga is a named, ordered list of steps. Build it with Then/Also and run it once.
type Saga struct {
	name  string
	steps []Step
}

// New creates an empty saga.
func New(name string) *Saga {
	return &Saga{name: name}
}

// Then appends a required step. compensate may be nil.
func (s *Saga) Then(name string, do, compensate Action) *Saga {
	s.steps = append(s.steps, Step{Name: name, Do: do, Compensate: compensate})
	return s
}

// Also appends a best-effort step.
func (s *Saga) Also(name string, do Action) *Saga {
	s.steps = append(s.steps, Step{Name: name, Do: do, BestEffort: true})
	return s
}

// Steps returns the step names in execution order.
func (s *Saga) Steps() []string {
	names := make([]string, len(s.steps))
	for i, st := range s.steps {
		names[i] = st.Name
	}
	return names
}

// StepError reports which step failed and what the rollback left behind.
type StepError struct {
	Saga string
	Step string
	Err  error

	// Compensated lists the steps that were rolled back, most recent first.
	Compensated []string
	// CompensationErr joins errors from compensations that failed.
	CompensationErr error
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("%s: step %s: %v", e.Saga, e.Step, e.Err)
	if e.CompensationErr != nil {
		msg += fmt.Sprintf(" (compensation failed: %v)", e.CompensationErr)
	}
	return msg
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Run executes the steps in order. When a required step fails, the completed
// steps are compensated in reverse order and a *StepError is returned.
// Compensations run on a context detached from ctx's cancellation.
func (s *Saga) Run(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "saga."+s.name)
	defer span.End()

	log := logger.FromContext(ctx).WithComponent("saga").With("saga", s.name)

	done := make([]Step, 0, len(s.steps))
	for _, st := range s.steps {
		err := s.runStep(ctx, st)
		if err == nil {
			done = append(done, st)
			continue
		}

		if st.BestEffort {
			log.Warnw("best-effort step failed", "step", st.Name, "error", err)
			continue
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, st.Name)

		stepErr := &StepError{Saga: s.name, Step: st.Name, Err: err}
		s.compensate(context.WithoutCancel(ctx), log, done, stepErr)
		return stepErr
	}
	return nil
}

func (s *Saga) runStep(ctx context.Context, st Step) error {
	ctx, span := tracer.Start(ctx, "saga.step")
	span.SetAttributes(attribute.String("saga.step", st.Name), attribute.Bool("saga.best_effort", st.BestEffort))
	defer span.End()

	if st.Do == nil {
		return nil
	}
	err := st.Do(ctx)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (s *Saga) compensate(ctx context.Context, log *logger.Logger, done []Step, stepErr *StepError) {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		st := done[i]
		if st.Compensate == nil || st.BestEffort {
			continue
		}
		if err := st.Compensate(ctx); err != nil {
			log.Errorw("compensation failed", "step", st.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", st.Name, err))
			continue
		}
		stepErr.Compensated = append(stepErr.Compensated, st.Name)
	}
	stepErr.CompensationErr = errors.Join(errs...)
}
