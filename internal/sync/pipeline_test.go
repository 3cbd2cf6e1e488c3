package sync

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchops/shipdesk/internal/csvx"
	"github.com/merchops/shipdesk/internal/shopify"
)

// fakePlatform maps order names to scripted orders and fulfillment orders.
type fakePlatform struct {
	orders map[string]shopify.Order              // key: order name with marker
	fos    map[string][]shopify.FulfillmentOrder // key: order ID

	findErr   error
	fetchErr  error
	createErr map[string]error // key: fulfillment order ID

	created []shopify.FulfillmentCreateRequest
}

func (f *fakePlatform) FindOrders(ctx context.Context, query string, first int) ([]shopify.Order, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	name := strings.TrimPrefix(query, "name:")
	if order, ok := f.orders[name]; ok {
		return []shopify.Order{order}, nil
	}
	return nil, nil
}

func (f *fakePlatform) FulfillmentOrders(ctx context.Context, orderID string) ([]shopify.FulfillmentOrder, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.fos[orderID], nil
}

func (f *fakePlatform) CreateFulfillment(ctx context.Context, req shopify.FulfillmentCreateRequest) (*shopify.Fulfillment, error) {
	f.created = append(f.created, req)
	if len(req.Groups) == 1 {
		if err, ok := f.createErr[req.Groups[0].FulfillmentOrderID]; ok {
			return nil, err
		}
	}
	return &shopify.Fulfillment{ID: fmt.Sprintf("f-%d", len(f.created)), Status: "SUCCESS"}, nil
}

func singleOrderPlatform() *fakePlatform {
	return &fakePlatform{
		orders: map[string]shopify.Order{
			"#1001": {ID: "o1", Name: "#1001"},
		},
		fos: map[string][]shopify.FulfillmentOrder{
			"o1": {
				{ID: "fo1", Status: "OPEN", LineItems: []shopify.FulfillmentOrderLineItem{
					{ID: "a", RemainingQuantity: 2},
					{ID: "b", RemainingQuantity: 1},
				}},
			},
		},
	}
}

func TestRun_SingleRow(t *testing.T) {
	platform := singleOrderPlatform()
	p := NewPipeline(platform, 5)

	result, err := p.Run(context.Background(), "orders.csv", "order_name,tracking_number,carrier,notify_customer\n1001,1Z9,UPS,yes\n")
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalRows)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.CreatedFulfillments)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "orders.csv", result.Filename)
	assert.NotEmpty(t, result.RunID)

	require.Len(t, platform.created, 1)
	req := platform.created[0]
	assert.True(t, req.NotifyCustomer)
	require.NotNil(t, req.Tracking)
	assert.Equal(t, "1Z9", req.Tracking.Number)
	assert.Equal(t, "UPS", req.Tracking.Company)
	require.Len(t, req.Groups, 1)
	assert.Len(t, req.Groups[0].LineItems, 2, "full remaining quantity of every line item")
	assert.Equal(t, 2, req.Groups[0].LineItems[0].Quantity)
}

func TestRun_OneFulfillmentPerFO(t *testing.T) {
	platform := singleOrderPlatform()
	platform.fos["o1"] = append(platform.fos["o1"], shopify.FulfillmentOrder{
		ID: "fo2", Status: "IN_PROGRESS", LineItems: []shopify.FulfillmentOrderLineItem{
			{ID: "c", RemainingQuantity: 3},
		},
	})
	p := NewPipeline(platform, 5)

	result, err := p.Run(context.Background(), "orders.csv", "order_name,tracking_number\n1001,1Z9\n")
	require.NoError(t, err)

	assert.Equal(t, 2, result.CreatedFulfillments)
	require.Len(t, platform.created, 2)
	assert.Equal(t, "fo1", platform.created[0].Groups[0].FulfillmentOrderID)
	assert.Equal(t, "fo2", platform.created[1].Groups[0].FulfillmentOrderID)
	// Row tracking info is shared across all FOs created for that row.
	assert.Equal(t, "1Z9", platform.created[1].Tracking.Number)
}

func TestRun_SkipsClosedAndEmptyFOs(t *testing.T) {
	platform := singleOrderPlatform()
	platform.fos["o1"] = append(platform.fos["o1"],
		shopify.FulfillmentOrder{ID: "fo-closed", Status: "CLOSED", LineItems: []shopify.FulfillmentOrderLineItem{
			{ID: "x", RemainingQuantity: 4},
		}},
		shopify.FulfillmentOrder{ID: "fo-empty", Status: "OPEN", LineItems: []shopify.FulfillmentOrderLineItem{
			{ID: "y", RemainingQuantity: 0},
		}},
	)
	p := NewPipeline(platform, 5)

	result, err := p.Run(context.Background(), "orders.csv", "order_name\n1001\n")
	require.NoError(t, err)

	assert.Equal(t, 1, result.CreatedFulfillments)
	require.Len(t, platform.created, 1)
	assert.Equal(t, "fo1", platform.created[0].Groups[0].FulfillmentOrderID)
}

func TestRun_MissingOrderName(t *testing.T) {
	// Second data row (file row 3) has no order_name.
	platform := singleOrderPlatform()
	p := NewPipeline(platform, 5)

	raw := "order_name\n1001\n,\n1001\n"
	result, err := p.Run(context.Background(), "orders.csv", raw)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, "Missing order_name", result.Errors[0].Message)
}

func TestRun_OrderNotFound(t *testing.T) {
	p := NewPipeline(singleOrderPlatform(), 5)

	result, err := p.Run(context.Background(), "orders.csv", "order_name\n9999\n")
	require.NoError(t, err)

	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Order not found", result.Errors[0].Message)
	assert.Equal(t, "#9999", result.Errors[0].OrderName)
}

func TestRun_NoFulfillmentOrders(t *testing.T) {
	platform := singleOrderPlatform()
	platform.fos = map[string][]shopify.FulfillmentOrder{}
	p := NewPipeline(platform, 5)

	result, err := p.Run(context.Background(), "orders.csv", "order_name\n1001\n")
	require.NoError(t, err)

	assert.Equal(t, 0, result.Processed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "No fulfillmentOrders", result.Errors[0].Message)
}

func TestRun_CreationFailureIsIsolated(t *testing.T) {
	// fo1 fails but fo2 is still attempted and the row stays processed.
	platform := singleOrderPlatform()
	platform.fos["o1"] = append(platform.fos["o1"], shopify.FulfillmentOrder{
		ID: "fo2", Status: "OPEN", LineItems: []shopify.FulfillmentOrderLineItem{
			{ID: "c", RemainingQuantity: 1},
		},
	})
	platform.createErr = map[string]error{"fo1": shopify.UserErrorList{{Message: "Invalid quantity"}}}
	p := NewPipeline(platform, 5)

	result, err := p.Run(context.Background(), "orders.csv", "order_name\n1001\n")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed, "per-FO failure does not void the row")
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, result.CreatedFulfillments)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "Fulfillment failed")
	assert.Len(t, platform.created, 2, "remaining FOs still attempted")
}

func TestRun_LookupFailureDoesNotStopBatch(t *testing.T) {
	platform := singleOrderPlatform()
	p := NewPipeline(platform, 5)

	// Row 2 unknown order, row 3 fine.
	result, err := p.Run(context.Background(), "orders.csv", "order_name\n8888\n1001\n")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.CreatedFulfillments)
}

func TestRun_ErrorSampleCap(t *testing.T) {
	platform := &fakePlatform{orders: map[string]shopify.Order{}}
	p := NewPipeline(platform, 5)

	var sb strings.Builder
	sb.WriteString("order_name\n")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&sb, "%d\n", 5000+i)
	}

	result, err := p.Run(context.Background(), "orders.csv", sb.String())
	require.NoError(t, err)

	assert.Equal(t, 30, result.TotalRows)
	assert.Equal(t, 30, result.Failed, "Failed counts all rows, not just sampled ones")
	assert.Len(t, result.Errors, 20, "sample is capped")
}

func TestRun_EmptyCSV(t *testing.T) {
	p := NewPipeline(singleOrderPlatform(), 5)

	_, err := p.Run(context.Background(), "orders.csv", "\n\n")
	assert.ErrorIs(t, err, csvx.ErrEmptyCSV)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(singleOrderPlatform(), 5)
	result, err := p.Run(ctx, "orders.csv", "order_name\n1001\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Failed)
}

func TestNormalizeOrderName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1001", "#1001"},
		{"#1001", "#1001"},
		{"  ABC-1  ", "ABC-1"},
		{"", ""},
		{"   ", ""},
		{"10a1", "10a1"},
	}
	for _, tt := range tests {
		if got := NormalizeOrderName(tt.in); got != tt.want {
			t.Errorf("NormalizeOrderName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseBool(t *testing.T) {
	truthy := []string{"1", "true", "TRUE", "yes", "Yes", " yes "}
	falsy := []string{"", "0", "no", "false", "y", "on", "2"}

	for _, v := range truthy {
		if !parseBool(v) {
			t.Errorf("parseBool(%q) = false, want true", v)
		}
	}
	for _, v := range falsy {
		if parseBool(v) {
			t.Errorf("parseBool(%q) = true, want false", v)
		}
	}
}
