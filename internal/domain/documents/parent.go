package documents

import (
	"context"
	"fmt"
	"sort"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/reconcile"
	"stockbook/internal/domain/status"
	"stockbook/pkg/logger"
)

// ParentResult is what reconciling one save did to the parent documents.
type ParentResult struct {
	Adjustments []reconcile.Adjustment
	// StatusChanges holds only the parents whose status flipped.
	StatusChanges map[id.ID]status.Status
}

// ReconcileParents applies net consumed deltas to parent lines and rederives
// the status of every parent document touched. When parentDocID is set, all
// touched lines must belong to that document.
func ReconcileParents(ctx context.Context, store ParentStore, deltas map[id.ID]types.Quantity, parentDocID *id.ID) (ParentResult, error) {
	res := ParentResult{StatusChanges: make(map[id.ID]status.Status)}
	if len(deltas) == 0 {
		return res, nil
	}

	lineIDs := make([]id.ID, 0, len(deltas))
	for lineID := range deltas {
		lineIDs = append(lineIDs, lineID)
	}
	// stable lock order across concurrent saves
	lineIDs = id.Unique(lineIDs)

	rows, err := store.LockParentLines(ctx, lineIDs)
	if err != nil {
		return res, fmt.Errorf("lock parent lines: %w", err)
	}

	found := make(map[id.ID]bool, len(rows))
	parents := make([]reconcile.ParentLine, len(rows))
	var docIDs []id.ID
	for i, r := range rows {
		if parentDocID != nil && r.DocumentID != *parentDocID {
			return res, apperror.NewValidation("line references a different parent document").
				WithDetail("parent_line_id", r.LineID.String()).
				WithDetail("parent_document_id", parentDocID.String())
		}
		found[r.LineID] = true
		parents[i] = reconcile.ParentLine{LineID: r.LineID, Ordered: r.Ordered, Consumed: r.Consumed}
		docIDs = append(docIDs, r.DocumentID)
	}
	for _, lineID := range lineIDs {
		if !found[lineID] {
			return res, apperror.NewNotFound("parent line", lineID.String())
		}
	}

	_, res.Adjustments = reconcile.Apply(parents, deltas)

	consumed := make(map[id.ID]types.Quantity, len(res.Adjustments))
	for _, a := range res.Adjustments {
		if a.Clamped {
			logger.Warn(ctx, "consumed quantity clamped",
				"parent_line_id", a.LineID, "before", a.Before.String(), "delta", a.Requested.String(), "after", a.After.String())
		}
		if a.After != a.Before {
			consumed[a.LineID] = a.After
		}
	}
	if len(consumed) > 0 {
		if err := store.SetConsumed(ctx, consumed); err != nil {
			return res, fmt.Errorf("update consumed quantities: %w", err)
		}
	}

	docIDs = id.Unique(docIDs)
	all, err := store.ParentLinesOf(ctx, docIDs)
	if err != nil {
		return res, fmt.Errorf("load parent lines: %w", err)
	}
	byDoc := make(map[id.ID][]reconcile.ParentLine, len(docIDs))
	for _, r := range all {
		byDoc[r.DocumentID] = append(byDoc[r.DocumentID], reconcile.ParentLine{LineID: r.LineID, Ordered: r.Ordered, Consumed: r.Consumed})
	}
	for _, docID := range docIDs {
		s := reconcile.DeriveStatus(byDoc[docID])
		changed, err := store.SetStatus(ctx, docID, s)
		if err != nil {
			return res, fmt.Errorf("update parent status: %w", err)
		}
		if changed {
			res.StatusChanges[docID] = s
		}
	}
	return res, nil
}

// OwnStatus derives a parent-capable document's status from its own lines.
func OwnStatus(rows []ParentLineRow) status.Status {
	lines := make([]reconcile.ParentLine, len(rows))
	for i, r := range rows {
		lines[i] = reconcile.ParentLine{LineID: r.LineID, Ordered: r.Ordered, Consumed: r.Consumed}
	}
	return reconcile.DeriveStatus(lines)
}

// ChangedParents lists the parents whose status flipped, in id order.
func (r ParentResult) ChangedParents() []id.ID {
	out := make([]id.ID, 0, len(r.StatusChanges))
	for docID := range r.StatusChanges {
		out = append(out, docID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
