package documents

import (
	"context"
	"fmt"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/registers/stock"
	"stockbook/internal/domain/rules"
)

// Movement is the change one line makes to one location.
type Movement struct {
	ItemID     id.ID
	LocationID id.ID
	Change     types.Quantity
}

// CheckRules evaluates the rules of scope for every movement of an inventory
// item, in line order. On-hand is read once and runs forward, so a second line
// of the same item and location sees the first.
func CheckRules(ctx context.Context, deps Deps, scope rules.Scope, moves []Movement) error {
	if deps.Rules == nil || len(moves) == 0 {
		return nil
	}

	itemIDs := make([]id.ID, len(moves))
	keys := make([]stock.Key, len(moves))
	for i, m := range moves {
		itemIDs[i] = m.ItemID
		keys[i] = stock.Key{ItemID: m.ItemID, LocationID: m.LocationID}
	}
	tracked, err := deps.Valuation.Tracked(ctx, itemIDs)
	if err != nil {
		return err
	}
	onHand, err := deps.Stock.Quantities(ctx, keys)
	if err != nil {
		return fmt.Errorf("read on-hand: %w", err)
	}

	for i, m := range moves {
		if !tracked[m.ItemID] {
			continue
		}
		key := keys[i]
		facts := rules.Facts{
			ItemID:     m.ItemID.String(),
			LocationID: m.LocationID.String(),
			OnHand:     onHand[key],
			Change:     m.Change,
			Requested:  max(-m.Change, 0),
		}
		if err := deps.Rules.Check(ctx, scope, facts); err != nil {
			return err
		}
		onHand[key] += m.Change
	}
	return nil
}
