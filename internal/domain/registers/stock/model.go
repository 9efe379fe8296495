// Package stock keeps on-hand quantity per (item, location).
//
// There is exactly one level per pair; a missing level means zero. Levels are
// only ever written with absolute values computed by the caller.
package stock

import (
	"time"

	"stockbook/internal/core/entity"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// Key identifies an inventory level.
type Key struct {
	ItemID     id.ID `json:"itemId"`
	LocationID id.ID `json:"locationId"`
}

// Level is the on-hand quantity of one item at one location.
type Level struct {
	ID                id.ID             `db:"id" json:"id"`
	ItemID            id.ID             `db:"item_id" json:"itemId"`
	LocationID        id.ID             `db:"location_id" json:"locationId"`
	QuantityAvailable types.Quantity    `db:"quantity_available" json:"quantityAvailable"`
	Attributes        entity.Attributes `db:"attributes" json:"attributes,omitempty"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updatedAt"`
}

// Key returns the (item, location) pair of l.
func (l Level) Key() Key {
	return Key{ItemID: l.ItemID, LocationID: l.LocationID}
}

// NewLevel creates a level for a pair that has no record yet.
func NewLevel(key Key, qty types.Quantity, attrs entity.Attributes) Level {
	return Level{
		ID:                id.New(),
		ItemID:            key.ItemID,
		LocationID:        key.LocationID,
		QuantityAvailable: qty,
		Attributes:        attrs,
		UpdatedAt:         time.Now().UTC(),
	}
}

// Lookup is the result of an existence check for one pair.
type Lookup struct {
	Key   Key
	Level Level
	Found bool
	// Err is set when this pair's check failed. Other pairs are unaffected.
	Err error
}

// LevelFilter narrows ListLevels.
type LevelFilter struct {
	ItemID      *id.ID
	LocationID  *id.ID
	ExcludeZero bool
	Limit       int
	Offset      int
}
