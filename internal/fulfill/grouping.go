package fulfill

import (
	"github.com/merchops/shipdesk/internal/shopify"
)

// BuildRequests partitions picked items into the minimal set of
// fulfillment-creation requests.
//
// Items are grouped first by GroupKey (shared tracking identity), then
// within each group by owning fulfillment order, since the platform requires
// line items listed per fulfillment order inside one request. Both levels
// preserve first-encounter order. The returned keys parallel the requests.
//
// Picks with a non-positive quantity are rejected, not silently dropped:
// callers filter zero-quantity rows before calling, so one slipping through
// means the selection is stale.
func BuildRequests(picks []PickedItem, notify bool) ([]shopify.FulfillmentCreateRequest, []GroupKey, error) {
	if len(picks) == 0 {
		return nil, nil, ErrNothingToFulfill
	}

	var keys []GroupKey
	groupIdx := make(map[GroupKey]int)
	// per group: fulfillment order id -> position in that group's Groups slice
	foIdx := make([]map[string]int, 0)
	requests := make([]shopify.FulfillmentCreateRequest, 0)

	for _, pick := range picks {
		if pick.Quantity <= 0 {
			return nil, nil, Validationf("invalid quantity %d for item %s", pick.Quantity, pick.LineItemID)
		}
		if pick.LineItemID == "" || pick.FulfillmentOrderID == "" {
			return nil, nil, Validationf("pick is missing its line item or fulfillment order reference")
		}

		key := groupKeyFor(pick)
		gi, ok := groupIdx[key]
		if !ok {
			gi = len(requests)
			groupIdx[key] = gi
			keys = append(keys, key)
			req := shopify.FulfillmentCreateRequest{NotifyCustomer: notify}
			if key.HasTracking {
				req.Tracking = &shopify.TrackingInfo{Number: key.Number, Company: key.Carrier}
			}
			requests = append(requests, req)
			foIdx = append(foIdx, make(map[string]int))
		}

		fi, ok := foIdx[gi][pick.FulfillmentOrderID]
		if !ok {
			fi = len(requests[gi].Groups)
			foIdx[gi][pick.FulfillmentOrderID] = fi
			requests[gi].Groups = append(requests[gi].Groups, shopify.FulfillmentOrderGroup{
				FulfillmentOrderID: pick.FulfillmentOrderID,
			})
		}

		requests[gi].Groups[fi].LineItems = append(requests[gi].Groups[fi].LineItems, shopify.FulfillmentLineItem{
			ID:       pick.LineItemID,
			Quantity: pick.Quantity,
		})
	}

	return requests, keys, nil
}
