// Package costing implements weighted-average inventory costing.
//
// All functions are pure. Average cost is global per item: callers pass the
// item's on-hand quantity across all locations, not a single location's.
// Zero-valued inputs stand for missing values. When a resulting quantity is
// zero the average cost becomes zero and any remaining value is dropped.
package costing

import (
	"github.com/shopspring/decimal"
)

// ReceiptCost is the outcome of receiving quantity at a rate.
type ReceiptCost struct {
	NewAvgCost    decimal.Decimal `json:"newAvgCost"`
	NewTotalValue decimal.Decimal `json:"newTotalValue"`
	NewTotalQty   decimal.Decimal `json:"newTotalQty"`
}

// FulfillmentCost is the outcome of removing quantity at the current average.
type FulfillmentCost struct {
	NewAvgCost  decimal.Decimal `json:"newAvgCost"`
	COGS        decimal.Decimal `json:"cogs"`
	NewQuantity decimal.Decimal `json:"newQuantity"`
	NewValue    decimal.Decimal `json:"newValue"`
}

// ReversalCost is the outcome of putting fulfilled quantity back.
type ReversalCost struct {
	NewAvgCost    decimal.Decimal `json:"newAvgCost"`
	NewQuantity   decimal.Decimal `json:"newQuantity"`
	NewTotalValue decimal.Decimal `json:"newTotalValue"`
}

// CalculateAverageCost blends a receipt into the existing global average.
func CalculateAverageCost(existingQty, existingAvgCost, receiptQty, receiptRate decimal.Decimal) ReceiptCost {
	newQty := existingQty.Add(receiptQty)
	newValue := existingQty.Mul(existingAvgCost).Add(receiptQty.Mul(receiptRate))
	return ReceiptCost{
		NewAvgCost:    average(newValue, newQty),
		NewTotalValue: newValue,
		NewTotalQty:   newQty,
	}
}

// CalculateFulfillmentCost charges fulfillmentQty out at currentAvgCost.
// Outbound movement leaves the average unchanged unless quantity reaches zero.
func CalculateFulfillmentCost(currentAvgCost, availableQty, fulfillmentQty decimal.Decimal) FulfillmentCost {
	cogs := fulfillmentQty.Mul(currentAvgCost)
	newValue := currentAvgCost.Mul(availableQty).Sub(cogs)
	newQty := availableQty.Sub(fulfillmentQty)
	return FulfillmentCost{
		NewAvgCost:  average(newValue, newQty),
		COGS:        cogs,
		NewQuantity: newQty,
		NewValue:    newValue,
	}
}

// ReverseItemFulfillment adds fulfilledQuantity back at the cost it was
// originally charged out at, not at today's average.
func ReverseItemFulfillment(currentAvgCost, currentQuantity, fulfilledQuantity, originalFulfillmentAvgCost decimal.Decimal) ReversalCost {
	newQty := currentQuantity.Add(fulfilledQuantity)
	newValue := currentAvgCost.Mul(currentQuantity).Add(fulfilledQuantity.Mul(originalFulfillmentAvgCost))
	return ReversalCost{
		NewAvgCost:    average(newValue, newQty),
		NewQuantity:   newQty,
		NewTotalValue: newValue,
	}
}

// ReverseReceipt removes previously received quantity. The removed units leave
// at the current average, which is the same arithmetic as a fulfillment.
func ReverseReceipt(existingQty, existingAvgCost, removedQty decimal.Decimal) FulfillmentCost {
	return CalculateFulfillmentCost(existingAvgCost, existingQty, removedQty)
}

func average(value, qty decimal.Decimal) decimal.Decimal {
	if !qty.IsPositive() {
		return decimal.Zero
	}
	return value.Div(qty)
}
