package fulfill

import (
	"github.com/merchops/shipdesk/internal/shopify"
)

// statusPriority scores a fulfillment order's status for dedup tie-breaking.
// OPEN fulfillment orders are the most actionable target for a new
// fulfillment; any other known status still beats CLOSED or unset.
func statusPriority(status string) int {
	switch {
	case status == shopify.FulfillmentOrderOpen:
		return 3
	case status != "" && status != shopify.FulfillmentOrderClosed:
		return 2
	default:
		return 1
	}
}

// Fulfillable reports whether a fulfillment order can accept a new
// fulfillment. Unset or unrecognized statuses are treated as fulfillable;
// only CLOSED and ON_HOLD are not.
func Fulfillable(status string) bool {
	return status != shopify.FulfillmentOrderClosed && status != shopify.FulfillmentOrderOnHold
}

// MergeLineItems flattens the line items of all fulfillment orders into a
// de-duplicated shippable view.
//
// Items with no remaining quantity are dropped. The same catalog line item
// can appear in several fulfillment orders after partial splits; exactly one
// wins per catalog identity, chosen by highest status priority, with ties
// keeping the first one encountered. Output order follows first encounter of
// each winning identity.
func MergeLineItems(fos []shopify.FulfillmentOrder) []MergedLineItem {
	var merged []MergedLineItem
	position := make(map[string]int)

	for _, fo := range fos {
		for _, item := range fo.LineItems {
			if item.RemainingQuantity <= 0 {
				continue
			}

			key := item.CatalogLineItemID
			if key == "" {
				key = item.ID
			}

			candidate := MergedLineItem{
				FulfillmentOrderLineItem: item,
				FulfillmentOrderID:       fo.ID,
				FulfillmentOrderStatus:   fo.Status,
			}

			idx, seen := position[key]
			if !seen {
				position[key] = len(merged)
				merged = append(merged, candidate)
				continue
			}
			if statusPriority(fo.Status) > statusPriority(merged[idx].FulfillmentOrderStatus) {
				merged[idx] = candidate
			}
		}
	}

	return merged
}
