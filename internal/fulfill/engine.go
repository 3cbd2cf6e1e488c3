package fulfill

import (
	"context"

	"github.com/merchops/shipdesk/internal/logging"
	"github.com/merchops/shipdesk/internal/shopify"
)

// Platform is the slice of the commerce API the engine needs.
type Platform interface {
	OrderWithFulfillmentOrders(ctx context.Context, orderID string) (*shopify.Order, []shopify.FulfillmentOrder, error)
	CreateFulfillment(ctx context.Context, req shopify.FulfillmentCreateRequest) (*shopify.Fulfillment, error)
}

// Engine creates grouped fulfillments for one order.
//
// Execution is strictly sequential and fail-fast: the first group whose
// creation fails aborts all remaining groups. Fulfillments created before
// the failure are NOT rolled back; the result reports them alongside the
// failed group so the caller can surface the partial outcome.
//
// Known race: nothing coordinates concurrent operators acting on the same
// order. Two operators can both pass validation against the same snapshot
// and the platform arbitrates whoever submits second.
type Engine struct {
	platform Platform
}

// NewEngine creates an Engine backed by the given platform client.
func NewEngine(platform Platform) *Engine {
	return &Engine{platform: platform}
}

// OrderDetails fetches an order with its fulfillment orders and the merged
// shippable line-item view operators pick from.
func (e *Engine) OrderDetails(ctx context.Context, orderID string) (*shopify.Order, []shopify.FulfillmentOrder, []MergedLineItem, error) {
	order, fos, err := e.platform.OrderWithFulfillmentOrders(ctx, orderID)
	if err != nil {
		return nil, nil, nil, err
	}
	if order == nil {
		return nil, nil, nil, &NotFoundError{Resource: "order", Key: orderID}
	}
	return order, fos, MergeLineItems(fos), nil
}

// CreateGrouped validates the picks against fresh platform state, builds one
// request per shipping group and executes them in order.
//
// The returned GroupedResult is meaningful even when err is non-nil: it
// carries the groups created before the failure and the key of the group
// that triggered the abort.
func (e *Engine) CreateGrouped(ctx context.Context, orderID string, picks []PickedItem, notify bool) (*GroupedResult, error) {
	result := &GroupedResult{Created: []CreatedFulfillment{}}

	if len(picks) == 0 {
		return result, ErrNothingToFulfill
	}

	order, fos, err := e.platform.OrderWithFulfillmentOrders(ctx, orderID)
	if err != nil {
		return result, err
	}
	if order == nil {
		return result, &NotFoundError{Resource: "order", Key: orderID}
	}

	if err := validatePicks(picks, fos); err != nil {
		return result, err
	}

	requests, keys, err := BuildRequests(picks, notify)
	if err != nil {
		return result, err
	}

	logger := logging.WithFields(ctx, "order", order.Name, "groups", len(requests))
	logger.Info("creating grouped fulfillments")

	for i, req := range requests {
		fulfillment, err := e.platform.CreateFulfillment(ctx, req)
		if err != nil {
			// Fail fast: abort remaining groups, keep what already landed.
			key := keys[i]
			result.FailedKey = &key
			logger.Error("group failed, aborting remaining",
				"group", key.String(),
				"created_so_far", len(result.Created),
				"error", err,
			)
			return result, err
		}
		result.Created = append(result.Created, CreatedFulfillment{
			FulfillmentID: fulfillment.ID,
			Status:        fulfillment.Status,
			Key:           keys[i],
		})
		logger.Info("group fulfilled", "group", keys[i].String(), "fulfillment", fulfillment.ID)
	}

	return result, nil
}

// validatePicks re-checks every pick against the freshly fetched remaining
// quantities. Client-side clamping is not trusted: the order can change
// between page load and submit.
func validatePicks(picks []PickedItem, fos []shopify.FulfillmentOrder) error {
	type itemState struct {
		remaining int
		foStatus  string
	}

	items := make(map[string]itemState)
	for _, fo := range fos {
		for _, item := range fo.LineItems {
			items[item.ID] = itemState{remaining: item.RemainingQuantity, foStatus: fo.Status}
		}
	}

	for _, pick := range picks {
		if pick.Quantity <= 0 {
			return Validationf("invalid quantity %d for item %s", pick.Quantity, pick.LineItemID)
		}
		state, ok := items[pick.LineItemID]
		if !ok {
			return &NotFoundError{Resource: "line item", Key: pick.LineItemID}
		}
		if !Fulfillable(state.foStatus) {
			return Validationf("item %s belongs to a fulfillment order that cannot be fulfilled (%s)", pick.LineItemID, state.foStatus)
		}
		if pick.Quantity > state.remaining {
			return Validationf("quantity %d exceeds remaining %d for item %s", pick.Quantity, state.remaining, pick.LineItemID)
		}
	}
	return nil
}
