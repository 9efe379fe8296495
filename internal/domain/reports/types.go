// Package reports builds read-only views over stock levels and documents.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// --- Inventory valuation ---

// ValuationFilter narrows the inventory valuation.
type ValuationFilter struct {
	ItemIDs     []id.ID
	LocationIDs []id.ID
	// Search matches item code or name.
	Search      string
	ExcludeZero bool
}

// ValuationRow is one (item, location) level joined with its product.
// Items with no level at all come back with a nil LocationID.
type ValuationRow struct {
	ItemID       id.ID           `db:"item_id"`
	ItemCode     string          `db:"item_code"`
	ItemName     string          `db:"item_name"`
	Unit         string          `db:"unit"`
	AverageCost  decimal.Decimal `db:"average_cost"`
	LocationID   *id.ID          `db:"location_id"`
	LocationCode *string         `db:"location_code"`
	LocationName *string         `db:"location_name"`
	Quantity     types.Quantity  `db:"quantity"`
}

// LocationQuantity is the on-hand of an item at one location.
type LocationQuantity struct {
	LocationID   id.ID           `json:"locationId"`
	LocationCode string          `json:"locationCode"`
	LocationName string          `json:"locationName"`
	Quantity     types.Quantity  `json:"quantity"`
	Value        decimal.Decimal `json:"value"`
}

// ValuationItem values one item: global quantity times the average cost.
type ValuationItem struct {
	ItemID      id.ID              `json:"itemId"`
	ItemCode    string             `json:"itemCode"`
	ItemName    string             `json:"itemName"`
	Unit        string             `json:"unit,omitempty"`
	Quantity    types.Quantity     `json:"quantity"`
	AverageCost decimal.Decimal    `json:"averageCost"`
	Value       decimal.Decimal    `json:"value"`
	Locations   []LocationQuantity `json:"locations"`
}

// Valuation is the inventory valuation report.
type Valuation struct {
	AsOf          time.Time       `json:"asOf"`
	Items         []ValuationItem `json:"items"`
	TotalItems    int             `json:"totalItems"`
	TotalQuantity types.Quantity  `json:"totalQuantity"`
	TotalValue    decimal.Decimal `json:"totalValue"`
}

// --- Document journal ---

// DocumentJournalFilter narrows the cross-document journal.
type DocumentJournalFilter struct {
	FromDate *time.Time
	ToDate   *time.Time

	DocumentTypes []string
	Status        string

	NumberContains string

	VendorIDs   []id.ID
	LocationIDs []id.ID

	// SortBy is "date", "number", "type" or "amount".
	SortBy    string
	SortOrder string

	Limit  int
	Offset int
}

// DocumentJournalItem is one document in the journal.
type DocumentJournalItem struct {
	ID           id.ID           `db:"id" json:"id"`
	DocumentType string          `db:"document_type" json:"documentType"`
	Number       string          `db:"number" json:"number"`
	Date         time.Time       `db:"date" json:"date"`
	Status       string          `db:"status" json:"status"`
	VendorID     *id.ID          `db:"vendor_id" json:"vendorId,omitempty"`
	LocationID   *id.ID          `db:"location_id" json:"locationId,omitempty"`
	TotalGross   decimal.Decimal `db:"total_gross" json:"totalGross"`
	Memo         string          `db:"memo" json:"memo,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

// DocumentJournal is a page of the document journal.
type DocumentJournal struct {
	Items      []DocumentJournalItem `json:"items"`
	TotalCount int                   `json:"totalCount"`
	Limit      int                   `json:"limit"`
	Offset     int                   `json:"offset"`

	Summary []DocumentTypeSummary `json:"summary,omitempty"`
}

// DocumentTypeSummary counts documents of one type.
type DocumentTypeSummary struct {
	DocumentType string          `db:"document_type" json:"documentType"`
	Count        int             `db:"count" json:"count"`
	OpenCount    int             `db:"open_count" json:"openCount"`
	TotalGross   decimal.Decimal `db:"total_gross" json:"totalGross"`
}
