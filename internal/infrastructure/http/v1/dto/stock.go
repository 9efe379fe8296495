package dto

import (
	"stockbook/internal/core/entity"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/registers/stock"
)

// StockLevelsQuery narrows GET /stock/levels.
type StockLevelsQuery struct {
	ItemID      string `form:"itemId"`
	LocationID  string `form:"locationId"`
	ExcludeZero bool   `form:"excludeZero"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"pageSize" binding:"omitempty,min=1,max=500"`
}

// Filter converts the query into a stock filter.
func (q StockLevelsQuery) Filter() (stock.LevelFilter, error) {
	itemID, err := ParseOptionalID("itemId", q.ItemID)
	if err != nil {
		return stock.LevelFilter{}, err
	}
	locationID, err := ParseOptionalID("locationId", q.LocationID)
	if err != nil {
		return stock.LevelFilter{}, err
	}
	page, size := q.Page, q.PageSize
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = 50
	}
	return stock.LevelFilter{
		ItemID:      itemID,
		LocationID:  locationID,
		ExcludeZero: q.ExcludeZero,
		Limit:       size,
		Offset:      (page - 1) * size,
	}, nil
}

// QuantitySetRequest is one absolute quantity to write.
type QuantitySetRequest struct {
	ItemID         id.ID             `json:"itemId"`
	LocationID     id.ID             `json:"locationId"`
	Quantity       types.Quantity    `json:"quantity" binding:"qty"`
	AdditionalData entity.Attributes `json:"additionalData"`
}

// BulkSetQuantityRequest is the body of PUT /stock/levels/bulk.
type BulkSetQuantityRequest struct {
	LineSet[QuantitySetRequest]
}

// Items converts the request into synchronizer input.
func (r BulkSetQuantityRequest) Items() []stock.QuantitySet {
	return mapLines(r.All(), func(q QuantitySetRequest) stock.QuantitySet {
		return stock.QuantitySet{
			ItemID:     q.ItemID,
			LocationID: q.LocationID,
			Quantity:   q.Quantity,
			Attributes: q.AdditionalData,
		}
	})
}

// BulkSetQuantityResponse reports every requested pair.
type BulkSetQuantityResponse struct {
	Results   []stock.SetResult `json:"results"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// NewBulkSetQuantityResponse counts the outcomes of results.
func NewBulkSetQuantityResponse(results []stock.SetResult) BulkSetQuantityResponse {
	resp := BulkSetQuantityResponse{Results: results}
	for _, r := range results {
		if r.OK() {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	return resp
}

// ItemTotalResponse is the on-hand of an item across every location.
type ItemTotalResponse struct {
	ItemID            id.ID          `json:"itemId"`
	QuantityAvailable types.Quantity `json:"quantityAvailable"`
}
