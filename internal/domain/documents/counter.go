package documents

import (
	"fmt"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// ProtectConsumed copies the stored consumed counter onto the submitted lines
// and rejects edits that would undo consumed quantity: removing a consumed
// line, changing its item or dropping its quantity below the counter.
// deleted are the line ids DiffLines is about to delete.
func ProtectConsumed[L any](entity string, prior, current []L, deleted []id.ID, line func(*L) *Line, counter func(*L) *types.Quantity) error {
	byID := make(map[id.ID]int, len(prior))
	for i := range prior {
		byID[line(&prior[i]).LineID] = i
	}

	for _, lineID := range deleted {
		i, ok := byID[lineID]
		if !ok {
			continue
		}
		if used := *counter(&prior[i]); used > 0 {
			return apperror.NewQuantityConsumed(entity, lineID.String(), used.String())
		}
	}

	for i := range current {
		cur := line(&current[i])
		j, ok := byID[cur.LineID]
		if !ok {
			*counter(&current[i]) = 0
			continue
		}
		used := *counter(&prior[j])
		*counter(&current[i]) = used
		if used.IsZero() {
			continue
		}
		if cur.ItemID != line(&prior[j]).ItemID {
			return apperror.NewValidation("item of a consumed line cannot change").
				WithDetail("field", fmt.Sprintf("lines[%d].itemId", i))
		}
		if cur.Quantity < used {
			return apperror.NewQuantityConsumed(entity, cur.LineID.String(), used.String())
		}
	}
	return nil
}

// RejectConsumed fails when any line has consumed quantity. Used before
// deleting a parent document.
func RejectConsumed[L any](entity string, lines []L, line func(*L) *Line, counter func(*L) *types.Quantity) error {
	for i := range lines {
		if used := *counter(&lines[i]); used > 0 {
			return apperror.NewQuantityConsumed(entity, line(&lines[i]).LineID.String(), used.String())
		}
	}
	return nil
}
