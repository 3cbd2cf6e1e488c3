package fulfill

import (
	"testing"

	"github.com/merchops/shipdesk/internal/shopify"
)

func item(id, catalogID string, remaining int) shopify.FulfillmentOrderLineItem {
	return shopify.FulfillmentOrderLineItem{
		ID:                id,
		CatalogLineItemID: catalogID,
		RemainingQuantity: remaining,
		TotalQuantity:     remaining,
	}
}

func TestMergeLineItems_DropsZeroRemaining(t *testing.T) {
	fos := []shopify.FulfillmentOrder{
		{ID: "fo1", Status: "OPEN", LineItems: []shopify.FulfillmentOrderLineItem{
			item("a", "cat-a", 2),
			item("b", "cat-b", 0),
			item("c", "cat-c", -1),
		}},
	}

	merged := MergeLineItems(fos)
	if len(merged) != 1 {
		t.Fatalf("len(merged) = %d, want 1", len(merged))
	}
	if merged[0].ID != "a" {
		t.Errorf("merged[0].ID = %q, want %q", merged[0].ID, "a")
	}
}

func TestMergeLineItems_OpenBeatsClosed(t *testing.T) {
	fos := []shopify.FulfillmentOrder{
		{ID: "fo-closed", Status: "CLOSED", LineItems: []shopify.FulfillmentOrderLineItem{
			item("a1", "cat-a", 1),
		}},
		{ID: "fo-open", Status: "OPEN", LineItems: []shopify.FulfillmentOrderLineItem{
			item("a2", "cat-a", 1),
		}},
	}

	merged := MergeLineItems(fos)
	if len(merged) != 1 {
		t.Fatalf("len(merged) = %d, want 1", len(merged))
	}
	if merged[0].FulfillmentOrderID != "fo-open" {
		t.Errorf("winning FO = %q, want %q", merged[0].FulfillmentOrderID, "fo-open")
	}
	if merged[0].ID != "a2" {
		t.Errorf("winning item = %q, want %q", merged[0].ID, "a2")
	}
}

func TestMergeLineItems_TiesKeepFirst(t *testing.T) {
	fos := []shopify.FulfillmentOrder{
		{ID: "fo1", Status: "OPEN", LineItems: []shopify.FulfillmentOrderLineItem{
			item("a1", "cat-a", 1),
		}},
		{ID: "fo2", Status: "OPEN", LineItems: []shopify.FulfillmentOrderLineItem{
			item("a2", "cat-a", 1),
		}},
	}

	merged := MergeLineItems(fos)
	if len(merged) != 1 {
		t.Fatalf("len(merged) = %d, want 1", len(merged))
	}
	if merged[0].FulfillmentOrderID != "fo1" {
		t.Errorf("tie should keep first encountered, got %q", merged[0].FulfillmentOrderID)
	}
}

func TestMergeLineItems_FallbackKeyWhenNoCatalogID(t *testing.T) {
	fos := []shopify.FulfillmentOrder{
		{ID: "fo1", Status: "OPEN", LineItems: []shopify.FulfillmentOrderLineItem{
			item("a", "", 1),
			item("b", "", 1),
		}},
	}

	// Without a catalog identity the FO-scoped ID keeps items distinct.
	merged := MergeLineItems(fos)
	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
}

func TestMergeLineItems_StableOutputOrder(t *testing.T) {
	fos := []shopify.FulfillmentOrder{
		{ID: "fo1", Status: "IN_PROGRESS", LineItems: []shopify.FulfillmentOrderLineItem{
			item("a1", "cat-a", 1),
			item("b1", "cat-b", 1),
		}},
		{ID: "fo2", Status: "OPEN", LineItems: []shopify.FulfillmentOrderLineItem{
			item("a2", "cat-a", 1),
		}},
	}

	// cat-a's winner moves to fo2 but keeps its first-encounter position.
	merged := MergeLineItems(fos)
	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	if merged[0].FulfillmentOrderID != "fo2" || merged[0].ID != "a2" {
		t.Errorf("merged[0] = %q in %q, want a2 in fo2", merged[0].ID, merged[0].FulfillmentOrderID)
	}
	if merged[1].ID != "b1" {
		t.Errorf("merged[1].ID = %q, want b1", merged[1].ID)
	}
}

func TestStatusPriority(t *testing.T) {
	tests := []struct {
		status string
		want   int
	}{
		{"OPEN", 3},
		{"IN_PROGRESS", 2},
		{"SCHEDULED", 2},
		{"ON_HOLD", 2},
		{"CLOSED", 1},
		{"", 1},
	}
	for _, tt := range tests {
		if got := statusPriority(tt.status); got != tt.want {
			t.Errorf("statusPriority(%q) = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestFulfillable(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"OPEN", true},
		{"IN_PROGRESS", true},
		{"SCHEDULED", true},
		{"", true},
		{"SOMETHING_NEW", true},
		{"CLOSED", false},
		{"ON_HOLD", false},
	}
	for _, tt := range tests {
		if got := Fulfillable(tt.status); got != tt.want {
			t.Errorf("Fulfillable(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
