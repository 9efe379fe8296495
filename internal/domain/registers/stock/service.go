package stock

import (
	"context"
	"fmt"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/pkg/logger"
)

// Service reads and writes inventory levels.
// Callers own the transaction; writes made here join the one in ctx.
type Service struct {
	repo  Repository
	kinds ItemKindLookup
	log   *logger.Logger
}

// NewService creates a new stock service.
func NewService(repo Repository, kinds ItemKindLookup) *Service {
	return &Service{
		repo:  repo,
		kinds: kinds,
		log:   logger.Default().WithComponent("stock"),
	}
}

// GetQuantity returns on-hand at one location; a missing level is zero.
func (s *Service) GetQuantity(ctx context.Context, itemID, locationID id.ID) (types.Quantity, error) {
	level, err := s.repo.GetLevel(ctx, Key{ItemID: itemID, LocationID: locationID})
	if err != nil {
		if apperror.IsNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get level: %w", err)
	}
	return level.QuantityAvailable, nil
}

// GetLevel returns the stored level, NOT_FOUND when the pair has none.
func (s *Service) GetLevel(ctx context.Context, itemID, locationID id.ID) (Level, error) {
	return s.repo.GetLevel(ctx, Key{ItemID: itemID, LocationID: locationID})
}

// SetQuantity stores an absolute on-hand value, creating the level if needed.
func (s *Service) SetQuantity(ctx context.Context, itemID, locationID id.ID, qty types.Quantity) (Level, error) {
	found, err := s.lookupOne(ctx, Key{ItemID: itemID, LocationID: locationID})
	if err != nil {
		return Level{}, err
	}
	return s.write(ctx, found, qty)
}

// AdjustQuantity reads on-hand, adds delta and writes the absolute result back.
// The level row stays locked between the read and the write when ctx carries a transaction.
func (s *Service) AdjustQuantity(ctx context.Context, itemID, locationID id.ID, delta types.Quantity) (types.Quantity, error) {
	found, err := s.lookupOne(ctx, Key{ItemID: itemID, LocationID: locationID})
	if err != nil {
		return 0, err
	}
	var current types.Quantity
	if found.Found {
		current = found.Level.QuantityAvailable
	}
	level, err := s.write(ctx, found, current+delta)
	if err != nil {
		return 0, err
	}
	return level.QuantityAvailable, nil
}

func (s *Service) lookupOne(ctx context.Context, key Key) (Lookup, error) {
	found := s.repo.FindLevels(ctx, []Key{key})
	if len(found) != 1 {
		return Lookup{}, fmt.Errorf("find level: expected 1 result, got %d", len(found))
	}
	if found[0].Err != nil {
		return Lookup{}, fmt.Errorf("find level: %w", found[0].Err)
	}
	return found[0], nil
}

func (s *Service) write(ctx context.Context, found Lookup, qty types.Quantity) (Level, error) {
	if found.Found {
		level := found.Level
		level.QuantityAvailable = qty
		if err := s.repo.UpdateLevels(ctx, []Level{level}); err != nil {
			return Level{}, fmt.Errorf("update level: %w", err)
		}
		return level, nil
	}

	level := NewLevel(found.Key, qty, nil)
	if err := s.repo.CreateLevels(ctx, []Level{level}); err != nil {
		return Level{}, fmt.Errorf("create level: %w", err)
	}
	return level, nil
}

// Quantities reads on-hand for several pairs in one round trip, locking the
// existing rows when ctx carries a transaction. Any failed check fails the call.
func (s *Service) Quantities(ctx context.Context, keys []Key) (map[Key]types.Quantity, error) {
	out := make(map[Key]types.Quantity, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	for _, lk := range s.repo.FindLevels(ctx, keys) {
		if lk.Err != nil {
			return nil, fmt.Errorf("find level %s/%s: %w", lk.Key.ItemID, lk.Key.LocationID, lk.Err)
		}
		if lk.Found {
			out[lk.Key] = lk.Level.QuantityAvailable
		} else {
			out[lk.Key] = 0
		}
	}
	return out, nil
}

// TotalQuantity returns the item's on-hand across all locations.
func (s *Service) TotalQuantity(ctx context.Context, itemID id.ID) (types.Quantity, error) {
	total, err := s.repo.TotalQuantity(ctx, itemID)
	if err != nil {
		return 0, fmt.Errorf("total quantity: %w", err)
	}
	return total, nil
}

// TotalQuantities returns on-hand across all locations for several items.
func (s *Service) TotalQuantities(ctx context.Context, itemIDs []id.ID) (map[id.ID]types.Quantity, error) {
	totals, err := s.repo.TotalQuantities(ctx, id.Unique(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("total quantities: %w", err)
	}
	return totals, nil
}

// ListLevels returns levels matching filter and the total count.
func (s *Service) ListLevels(ctx context.Context, filter LevelFilter) ([]Level, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.ListLevels(ctx, filter)
}
