package documents

import (
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/events"
	"stockbook/internal/domain/journal"
	"stockbook/internal/domain/valuation"
)

// Op is the save operation being run.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Stage names a step of the save workflow.
type Stage string

const (
	StageLock      Stage = "lock"
	StageLoad      Stage = "load"
	StageNumber    Stage = "number"
	StageHeader    Stage = "header"
	StageLines     Stage = "lines"
	StageReconcile Stage = "reconcile"
	StageValuation Stage = "valuation"
	StageJournal   Stage = "journal"
	StageStatus    Stage = "status"
	StageAudit     Stage = "audit"
	StageEvents    Stage = "events"
)

// SaveState is the workflow state of one document save. Steps read what
// earlier steps produced from it and record their own output on it.
type SaveState struct {
	DocType string
	Op      Op
	DocID   id.ID

	// Completed lists finished stages in order; Failed is set when a required stage failed.
	Completed []Stage
	Failed    Stage

	// ParentDeltas is the net consumed change per parent line.
	ParentDeltas map[id.ID]types.Quantity
	Parents      ParentResult

	Receipts     []valuation.ReceiptResult
	Fulfillments []valuation.FulfillmentResult

	Journal *journal.Entry

	// Snapshot is recorded in the audit log.
	Snapshot any
	Events   []events.Event

	release Release
}

// NewSaveState starts the state of a save.
func NewSaveState(docType string, op Op, docID id.ID) *SaveState {
	return &SaveState{DocType: docType, Op: op, DocID: docID}
}

// Done reports whether stage completed.
func (s *SaveState) Done(stage Stage) bool {
	for _, c := range s.Completed {
		if c == stage {
			return true
		}
	}
	return false
}

// Emit queues a domain event for the outbox.
func (s *SaveState) Emit(eventType string, payload any) {
	s.Events = append(s.Events, events.Event{
		AggregateType: s.DocType,
		AggregateID:   s.DocID,
		Type:          eventType,
		Payload:       payload,
	})
}

// EmitSaved queues the created, updated or deleted event for the document.
func (s *SaveState) EmitSaved(h *Header) {
	eventType := events.DocumentCreated
	switch s.Op {
	case OpUpdate:
		eventType = events.DocumentUpdated
	case OpDelete:
		eventType = events.DocumentDeleted
	}
	s.Emit(eventType, map[string]any{
		"number":     h.Number,
		"status":     h.Status,
		"totalGross": h.TotalGross.String(),
	})
}

// EmitParentStatus queues a status event per parent document that flipped.
func (s *SaveState) EmitParentStatus(parentType string) {
	for _, docID := range s.Parents.ChangedParents() {
		s.Events = append(s.Events, events.Event{
			AggregateType: parentType,
			AggregateID:   docID,
			Type:          events.StatusChanged,
			Payload:       map[string]any{"status": s.Parents.StatusChanges[docID], "by": s.DocID},
		})
	}
}
