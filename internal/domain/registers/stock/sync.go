package stock

import (
	"context"
	"fmt"

	"stockbook/internal/core/entity"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// QuantitySet asks for an absolute on-hand value at one location.
type QuantitySet struct {
	ItemID     id.ID          `json:"itemId"`
	LocationID id.ID          `json:"locationId"`
	Quantity   types.Quantity `json:"quantity"`
	// Attributes are merged into the level's custom fields.
	Attributes entity.Attributes `json:"additionalData,omitempty"`
}

// Key returns the (item, location) pair of q.
func (q QuantitySet) Key() Key {
	return Key{ItemID: q.ItemID, LocationID: q.LocationID}
}

// SetResult reports what happened to one requested pair.
type SetResult struct {
	ItemID     id.ID          `json:"itemId"`
	LocationID id.ID          `json:"locationId"`
	LevelID    id.ID          `json:"levelId,omitempty"`
	Quantity   types.Quantity `json:"quantity"`
	Created    bool           `json:"created"`
	// Skipped is set for service items, which carry no inventory.
	Skipped bool   `json:"skipped"`
	Error   string `json:"error,omitempty"`

	Err error `json:"-"`
}

// OK reports whether the pair was written or deliberately skipped.
func (r SetResult) OK() bool {
	return r.Err == nil
}

// BulkSetQuantity writes absolute quantities for a batch of pairs.
//
// Service items are skipped. Existence of the remaining pairs is checked in
// one round trip; a pair whose check fails is reported on its own result and
// left unwritten. The rest is written with at most two calls: one bulk update
// of existing levels and one bulk create of new ones. A failed bulk write
// fails the whole batch. When a pair repeats, the last entry wins.
func (s *Service) BulkSetQuantity(ctx context.Context, items []QuantitySet) ([]SetResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	results := make([]SetResult, len(items))
	itemIDs := make([]id.ID, 0, len(items))
	for i, it := range items {
		results[i] = SetResult{ItemID: it.ItemID, LocationID: it.LocationID, Quantity: it.Quantity}
		itemIDs = append(itemIDs, it.ItemID)
	}

	tracked, err := s.kinds.TrackedItems(ctx, id.Unique(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("lookup item kinds: %w", err)
	}

	// last index per pair, in first-seen order
	lastIdx := make(map[Key]int, len(items))
	var keys []Key
	for i, it := range items {
		if !tracked[it.ItemID] {
			results[i].Skipped = true
			continue
		}
		k := it.Key()
		if _, seen := lastIdx[k]; !seen {
			keys = append(keys, k)
		}
		lastIdx[k] = i
	}
	if len(keys) == 0 {
		return results, nil
	}

	lookups := s.repo.FindLevels(ctx, keys)
	if len(lookups) != len(keys) {
		return nil, fmt.Errorf("find levels: expected %d results, got %d", len(keys), len(lookups))
	}

	var updates, creates []Level
	outcome := make(map[Key]SetResult, len(keys))
	for _, lk := range lookups {
		it := items[lastIdx[lk.Key]]
		res := SetResult{ItemID: it.ItemID, LocationID: it.LocationID, Quantity: it.Quantity}

		switch {
		case lk.Err != nil:
			res.Err = lk.Err
			res.Error = lk.Err.Error()
			s.log.WithContext(ctx).Warnw("level lookup failed, pair left unchanged",
				"item_id", it.ItemID, "location_id", it.LocationID, "error", lk.Err)
		case lk.Found:
			level := lk.Level
			level.QuantityAvailable = it.Quantity
			level.Attributes = level.Attributes.Merge(it.Attributes)
			updates = append(updates, level)
			res.LevelID = level.ID
		default:
			level := NewLevel(lk.Key, it.Quantity, it.Attributes.Clone())
			creates = append(creates, level)
			res.LevelID = level.ID
			res.Created = true
		}
		outcome[lk.Key] = res
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateLevels(ctx, updates); err != nil {
			return nil, fmt.Errorf("bulk update levels: %w", err)
		}
	}
	if len(creates) > 0 {
		if err := s.repo.CreateLevels(ctx, creates); err != nil {
			return nil, fmt.Errorf("bulk create levels: %w", err)
		}
	}

	for i, it := range items {
		if results[i].Skipped {
			continue
		}
		// repeated pairs report the value actually stored
		results[i] = outcome[it.Key()]
	}

	s.log.WithContext(ctx).Debugw("bulk set quantities",
		"requested", len(items), "updated", len(updates), "created", len(creates))

	return results, nil
}
