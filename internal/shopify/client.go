// Package shopify is a minimal client for the Shopify Admin GraphQL API,
// covering the three calls this application needs: order search, fulfillment
// order retrieval and fulfillment creation.
//
// The client is stateless; every method issues exactly one HTTP call and the
// caller owns cancellation and timeouts through the context. There is no
// retry or backoff here: a failed call is terminal for its unit of work and
// the policy for what happens next belongs to the caller.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/merchops/shipdesk/internal/config"
)

// Client executes Admin GraphQL queries against one shop.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// New creates a client for the shop named in cfg.
func New(cfg config.ShopifyConfig) *Client {
	return &Client{
		endpoint: fmt.Sprintf("https://%s/admin/api/%s/graphql.json", cfg.ShopDomain, cfg.APIVersion),
		token:    cfg.AccessToken,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

// NewWithEndpoint creates a client pointed at an explicit URL. Used by tests
// to target a stub server.
func NewWithEndpoint(endpoint, token string) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		http:     &http.Client{},
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// Execute runs one GraphQL document and returns the raw data payload.
// A non-200 response or a non-empty top-level errors array is a transport
// failure; userErrors inside mutation payloads are the caller's concern.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphql call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read graphql response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graphql call: status %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}

	var parsed graphqlResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode graphql response: %w", err)
	}

	if len(parsed.Errors) > 0 {
		msgs := make([]string, len(parsed.Errors))
		for i, e := range parsed.Errors {
			msgs[i] = e.Message
		}
		return nil, fmt.Errorf("graphql errors: %s", strings.Join(msgs, "; "))
	}

	return parsed.Data, nil
}

// FindOrders searches orders by query string (e.g. "name:#1001") and returns
// matches in platform order.
func (c *Client) FindOrders(ctx context.Context, query string, first int) ([]Order, error) {
	data, err := c.Execute(ctx, ordersSearchQuery, map[string]any{
		"query": query,
		"first": first,
	})
	if err != nil {
		return nil, fmt.Errorf("find orders %q: %w", query, err)
	}

	var result struct {
		Orders struct {
			Edges []struct {
				Node Order `json:"node"`
			} `json:"edges"`
		} `json:"orders"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse orders response: %w", err)
	}

	orders := make([]Order, 0, len(result.Orders.Edges))
	for _, edge := range result.Orders.Edges {
		orders = append(orders, edge.Node)
	}
	return orders, nil
}

// OrderWithFulfillmentOrders fetches an order snapshot along with its
// fulfillment orders and their nested line items, preserving platform order.
// Returns nil order when the ID does not resolve.
func (c *Client) OrderWithFulfillmentOrders(ctx context.Context, orderID string) (*Order, []FulfillmentOrder, error) {
	data, err := c.Execute(ctx, fulfillmentOrdersQuery, map[string]any{
		"id": OrderGID(orderID),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch fulfillment orders: %w", err)
	}

	var result struct {
		Order *struct {
			Order
			FulfillmentOrders struct {
				Edges []struct {
					Node struct {
						ID        string `json:"id"`
						Status    string `json:"status"`
						LineItems struct {
							Edges []struct {
								Node struct {
									ID                string `json:"id"`
									RemainingQuantity int    `json:"remainingQuantity"`
									TotalQuantity     int    `json:"totalQuantity"`
									LineItem          struct {
										ID           string `json:"id"`
										Title        string `json:"title"`
										SKU          string `json:"sku"`
										VariantTitle string `json:"variantTitle"`
									} `json:"lineItem"`
								} `json:"node"`
							} `json:"edges"`
						} `json:"lineItems"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"fulfillmentOrders"`
		} `json:"order"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, nil, fmt.Errorf("parse fulfillment orders response: %w", err)
	}

	if result.Order == nil {
		return nil, nil, nil
	}

	fos := make([]FulfillmentOrder, 0, len(result.Order.FulfillmentOrders.Edges))
	for _, foEdge := range result.Order.FulfillmentOrders.Edges {
		fo := FulfillmentOrder{
			ID:     foEdge.Node.ID,
			Status: foEdge.Node.Status,
		}
		for _, liEdge := range foEdge.Node.LineItems.Edges {
			n := liEdge.Node
			fo.LineItems = append(fo.LineItems, FulfillmentOrderLineItem{
				ID:                n.ID,
				RemainingQuantity: n.RemainingQuantity,
				TotalQuantity:     n.TotalQuantity,
				Title:             n.LineItem.Title,
				SKU:               n.LineItem.SKU,
				VariantTitle:      n.LineItem.VariantTitle,
				CatalogLineItemID: n.LineItem.ID,
			})
		}
		fos = append(fos, fo)
	}

	order := result.Order.Order
	return &order, fos, nil
}

// FulfillmentOrders fetches just the fulfillment orders for an order.
func (c *Client) FulfillmentOrders(ctx context.Context, orderID string) ([]FulfillmentOrder, error) {
	_, fos, err := c.OrderWithFulfillmentOrders(ctx, orderID)
	return fos, err
}

// CreateFulfillment submits one fulfillmentCreateV2 mutation. A non-empty
// userErrors array comes back as UserErrorList; transport and GraphQL-level
// failures come back as plain errors.
func (c *Client) CreateFulfillment(ctx context.Context, req FulfillmentCreateRequest) (*Fulfillment, error) {
	lineItemsByFO := make([]map[string]any, 0, len(req.Groups))
	for _, group := range req.Groups {
		lineItemsByFO = append(lineItemsByFO, map[string]any{
			"fulfillmentOrderId":        group.FulfillmentOrderID,
			"fulfillmentOrderLineItems": group.LineItems,
		})
	}

	fulfillment := map[string]any{
		"notifyCustomer":              req.NotifyCustomer,
		"lineItemsByFulfillmentOrder": lineItemsByFO,
	}
	if req.Tracking != nil && req.Tracking.Number != "" {
		fulfillment["trackingInfo"] = req.Tracking
	}

	data, err := c.Execute(ctx, fulfillmentCreateMutation, map[string]any{
		"fulfillment": fulfillment,
	})
	if err != nil {
		return nil, fmt.Errorf("create fulfillment: %w", err)
	}

	var result struct {
		FulfillmentCreateV2 struct {
			Fulfillment *Fulfillment  `json:"fulfillment"`
			UserErrors  UserErrorList `json:"userErrors"`
		} `json:"fulfillmentCreateV2"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse fulfillment create response: %w", err)
	}

	if len(result.FulfillmentCreateV2.UserErrors) > 0 {
		return nil, result.FulfillmentCreateV2.UserErrors
	}
	if result.FulfillmentCreateV2.Fulfillment == nil {
		return nil, fmt.Errorf("create fulfillment: platform returned neither fulfillment nor userErrors")
	}

	return result.FulfillmentCreateV2.Fulfillment, nil
}

// truncate shortens raw diagnostic bodies for error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
