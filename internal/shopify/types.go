package shopify

import (
	"fmt"
	"strings"
)

// Order is an immutable snapshot of a platform order.
type Order struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	DisplayFinancialStatus   string `json:"displayFinancialStatus"`
	DisplayFulfillmentStatus string `json:"displayFulfillmentStatus"`
}

// Fulfillment order statuses reported by the platform.
const (
	FulfillmentOrderOpen       = "OPEN"
	FulfillmentOrderInProgress = "IN_PROGRESS"
	FulfillmentOrderScheduled  = "SCHEDULED"
	FulfillmentOrderOnHold     = "ON_HOLD"
	FulfillmentOrderClosed     = "CLOSED"
)

// FulfillmentOrder is a platform-side grouping of an order's items assigned
// to one fulfillment location. An order may have several.
type FulfillmentOrder struct {
	ID        string                     `json:"id"`
	Status    string                     `json:"status"`
	LineItems []FulfillmentOrderLineItem `json:"lineItems"`
}

// FulfillmentOrderLineItem is one line of a fulfillment order.
// CatalogLineItemID points at the underlying order line item; the same
// catalog line can appear in more than one fulfillment order after splits.
type FulfillmentOrderLineItem struct {
	ID                string `json:"id"`
	RemainingQuantity int    `json:"remainingQuantity"`
	TotalQuantity     int    `json:"totalQuantity"`
	Title             string `json:"title"`
	SKU               string `json:"sku,omitempty"`
	VariantTitle      string `json:"variantTitle,omitempty"`
	CatalogLineItemID string `json:"catalogLineItemId"`
}

// TrackingInfo carries the optional shipment tracking details for a
// fulfillment. Company may be empty even when Number is set.
type TrackingInfo struct {
	Number  string `json:"number"`
	Company string `json:"company,omitempty"`
}

// FulfillmentLineItem is an (id, quantity) pair inside a creation request.
type FulfillmentLineItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// FulfillmentOrderGroup lists the line items to fulfill for one fulfillment
// order. The platform requires line items grouped per fulfillment order
// inside a single creation request, never intermixed.
type FulfillmentOrderGroup struct {
	FulfillmentOrderID string                `json:"fulfillmentOrderId"`
	LineItems          []FulfillmentLineItem `json:"fulfillmentOrderLineItems"`
}

// FulfillmentCreateRequest is one fulfillmentCreateV2 call.
type FulfillmentCreateRequest struct {
	NotifyCustomer bool
	Tracking       *TrackingInfo
	Groups         []FulfillmentOrderGroup
}

// Fulfillment is the platform's record of a created fulfillment.
type Fulfillment struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// UserError is a business-rule violation reported by the platform. The call
// itself executed; the platform rejected the payload.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// UserErrorList is the full set of userErrors from one mutation response.
// It is distinct from transport failures so callers can tell a rejected
// payload apart from a failed call.
type UserErrorList []UserError

func (l UserErrorList) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		if len(e.Field) > 0 {
			msgs[i] = fmt.Sprintf("%s: %s", strings.Join(e.Field, "."), e.Message)
		} else {
			msgs[i] = e.Message
		}
	}
	return "platform rejected request: " + strings.Join(msgs, "; ")
}
