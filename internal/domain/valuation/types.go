// Package valuation applies goods movements to on-hand quantities and the
// global weighted-average cost of each item.
package valuation

import (
	"context"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// Mode is the document operation a processor call belongs to.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
	ModeDelete Mode = "delete"
)

// ItemCost is the costing state of one product.
type ItemCost struct {
	// Tracked is false for service items, which carry no inventory.
	Tracked     bool
	AverageCost decimal.Decimal
}

// CostStore reads and writes product average costs.
type CostStore interface {
	ItemCosts(ctx context.Context, itemIDs []id.ID) (map[id.ID]ItemCost, error)
	// UpdateAverageCost stores one product's recomputed average cost.
	UpdateAverageCost(ctx context.Context, itemID id.ID, cost decimal.Decimal) error
}

// Receipt is inbound quantity at a rate.
type Receipt struct {
	ItemID     id.ID
	LocationID id.ID
	Quantity   types.Quantity
	Rate       decimal.Decimal

	// AtAverage receives at the item's current average cost instead of Rate.
	AtAverage bool
}

// ReceiptResult reports the effect of one receipt.
type ReceiptResult struct {
	ItemID     id.ID          `json:"itemId"`
	LocationID id.ID          `json:"locationId"`
	Quantity   types.Quantity `json:"quantity"`

	// Rate is the unit cost the quantity was received at.
	Rate             decimal.Decimal `json:"rate"`
	PreviousAvgCost  decimal.Decimal `json:"previousAvgCost"`
	NewAvgCost       decimal.Decimal `json:"newAvgCost"`
	LocationQuantity types.Quantity  `json:"locationQuantity"`
	TotalQuantity    types.Quantity  `json:"totalQuantity"`
	Skipped          bool            `json:"skipped"`
}

// Fulfillment is outbound quantity charged at the current average.
type Fulfillment struct {
	ItemID     id.ID
	LocationID id.ID
	Quantity   types.Quantity
}

// FulfillmentResult reports the effect of one fulfillment.
type FulfillmentResult struct {
	ItemID     id.ID          `json:"itemId"`
	LocationID id.ID          `json:"locationId"`
	Quantity   types.Quantity `json:"quantity"`

	// CostAtFulfillment is the unit cost charged out; keep it to reverse later.
	CostAtFulfillment decimal.Decimal `json:"costAtFulfillment"`
	COGS              decimal.Decimal `json:"cogs"`
	NewAvgCost        decimal.Decimal `json:"newAvgCost"`
	LocationQuantity  types.Quantity  `json:"locationQuantity"`
	TotalQuantity     types.Quantity  `json:"totalQuantity"`
	Skipped           bool            `json:"skipped"`
}

// FulfillmentReversal puts fulfilled quantity back at its original cost.
type FulfillmentReversal struct {
	ItemID            id.ID
	LocationID        id.ID
	Quantity          types.Quantity
	CostAtFulfillment decimal.Decimal
}

// Removal takes previously received quantity back out at the current average.
type Removal struct {
	ItemID     id.ID
	LocationID id.ID
	Quantity   types.Quantity
}

// Movement moves quantity between two locations. Cost is unaffected.
type Movement struct {
	ItemID         id.ID
	FromLocationID id.ID
	ToLocationID   id.ID
	Quantity       types.Quantity
}
