// Package fulfill contains the order fulfillment business logic: resolving a
// shippable, de-duplicated view of an order's outstanding line items and
// turning operator selections into grouped fulfillment-creation requests.
//
// This package has no HTTP dependencies; it talks to the commerce platform
// only through the Platform interface so tests can substitute fakes.
package fulfill

import (
	"github.com/merchops/shipdesk/internal/shopify"
)

// MergedLineItem is one outstanding line item after de-duplication across
// fulfillment orders, annotated with the fulfillment order that won it.
type MergedLineItem struct {
	shopify.FulfillmentOrderLineItem
	FulfillmentOrderID     string `json:"fulfillmentOrderId"`
	FulfillmentOrderStatus string `json:"fulfillmentOrderStatus"`
}

// PickedItem is an operator's selection of one line item to fulfill.
// Quantity must satisfy 0 < quantity <= remaining; the engine re-validates
// against freshly fetched remaining quantities before any remote call.
type PickedItem struct {
	LineItemID         string `json:"lineItemId"`
	FulfillmentOrderID string `json:"fulfillmentOrderId"`
	Quantity           int    `json:"quantity"`
	TrackingNumber     string `json:"trackingNumber,omitempty"`
	Carrier            string `json:"carrier,omitempty"`
}

// GroupKey is the shipping identity that merges picked items into one
// fulfillment request: the (tracking number, carrier) pair, or the
// no-tracking sentinel (the zero value). A carrier without a tracking number
// does not form a distinct group.
type GroupKey struct {
	HasTracking bool   `json:"hasTracking"`
	Number      string `json:"trackingNumber,omitempty"`
	Carrier     string `json:"carrier,omitempty"`
}

// groupKeyFor derives the GroupKey for one picked item. The sentinel and a
// real tracking pair can never collide: a real pair always has HasTracking
// set and a non-empty number.
func groupKeyFor(item PickedItem) GroupKey {
	if item.TrackingNumber == "" {
		return GroupKey{}
	}
	return GroupKey{HasTracking: true, Number: item.TrackingNumber, Carrier: item.Carrier}
}

// String renders the key for logs and group result traceability.
func (k GroupKey) String() string {
	if !k.HasTracking {
		return "no-tracking"
	}
	if k.Carrier == "" {
		return k.Number
	}
	return k.Number + " (" + k.Carrier + ")"
}

// CreatedFulfillment records one successfully created fulfillment.
type CreatedFulfillment struct {
	FulfillmentID string   `json:"fulfillmentId"`
	Status        string   `json:"status"`
	Key           GroupKey `json:"group"`
}

// GroupedResult reports a grouped creation run. When a group fails, Created
// holds the groups that succeeded before it and FailedKey names the group
// that triggered the abort; groups after it were never attempted. Already
// created fulfillments are not rolled back.
type GroupedResult struct {
	Created   []CreatedFulfillment `json:"created"`
	FailedKey *GroupKey            `json:"failedGroup,omitempty"`
}
