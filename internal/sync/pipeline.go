// Package sync implements the CSV-driven bulk fulfillment pipeline: one
// fulfillment per matched order and fulfillment order, driven row by row.
//
// Failure policy is the opposite of the manual grouping engine. Rows and
// fulfillment orders are isolated units of work: a failed lookup ruins only
// its row, a failed creation ruins only its fulfillment order, and the batch
// always runs to the end. Errors are sampled with a hard cap so a large bad
// file cannot grow the result without bound.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/merchops/shipdesk/internal/csvx"
	"github.com/merchops/shipdesk/internal/fulfill"
	"github.com/merchops/shipdesk/internal/logging"
	"github.com/merchops/shipdesk/internal/shopify"
)

// maxErrorSample caps the number of row errors kept in a Result.
const maxErrorSample = 20

// orderNameMarker is the platform's display-name prefix for orders.
const orderNameMarker = "#"

// fieldAliases maps the logical CSV columns to the header names accepted
// for each (case-insensitive).
var fieldAliases = csvx.FieldAliases{
	"order_name":      {"order_name", "order", "name"},
	"tracking_number": {"tracking_number", "tracking", "tn"},
	"carrier":         {"carrier", "company", "shipping_company"},
	"notify_customer": {"notify_customer", "notify"},
}

// Platform is the slice of the commerce API the pipeline needs.
type Platform interface {
	FindOrders(ctx context.Context, query string, first int) ([]shopify.Order, error)
	FulfillmentOrders(ctx context.Context, orderID string) ([]shopify.FulfillmentOrder, error)
	CreateFulfillment(ctx context.Context, req shopify.FulfillmentCreateRequest) (*shopify.Fulfillment, error)
}

// RowError is one sampled failure, addressed by CSV row number (the first
// data row is row 2; row 1 is the header).
type RowError struct {
	Row       int    `json:"row"`
	OrderName string `json:"orderName,omitempty"`
	Message   string `json:"error"`
}

// Result summarizes one sync run. Failed always equals TotalRows minus
// Processed regardless of how many errors the sample kept.
type Result struct {
	RunID               string     `json:"runId"`
	Filename            string     `json:"filename"`
	TotalRows           int        `json:"totalRows"`
	Processed           int        `json:"processed"`
	CreatedFulfillments int        `json:"createdFulfillments"`
	Failed              int        `json:"failed"`
	Errors              []RowError `json:"errorsSample"`
}

// addError records a row failure, respecting the sample cap.
func (r *Result) addError(row int, orderName, message string) {
	if len(r.Errors) < maxErrorSample {
		r.Errors = append(r.Errors, RowError{Row: row, OrderName: orderName, Message: message})
	}
}

// Pipeline runs CSV sync batches against the platform.
type Pipeline struct {
	platform    Platform
	searchLimit int
}

// NewPipeline creates a Pipeline. searchLimit bounds how many order matches
// each lookup requests; the first match wins.
func NewPipeline(platform Platform, searchLimit int) *Pipeline {
	if searchLimit < 1 {
		searchLimit = 1
	}
	return &Pipeline{platform: platform, searchLimit: searchLimit}
}

// Run processes one CSV file. Each data row is looked up, and every
// fulfillment order of the matched order with outstanding quantity gets
// exactly one fulfillment covering its full remaining quantity, with the
// row's tracking info applied uniformly.
//
// The returned error is non-nil only for batch-level conditions (unparseable
// input, cancelled context); per-row failures live in the Result.
func (p *Pipeline) Run(ctx context.Context, filename, raw string) (*Result, error) {
	doc, err := csvx.Parse(raw)
	if err != nil {
		return nil, err
	}

	records := doc.Records(fieldAliases)
	result := &Result{
		RunID:    uuid.NewString(),
		Filename: filename,
		Errors:   []RowError{},
	}
	result.TotalRows = len(records)

	logger := logging.WithFields(ctx, "run_id", result.RunID, "file", filename)
	logger.Info("sync run started", "rows", result.TotalRows)

	for i, rec := range records {
		row := i + 2 // 1-indexed file position, header excluded

		if err := ctx.Err(); err != nil {
			result.Failed = result.TotalRows - result.Processed
			return result, fmt.Errorf("sync cancelled at row %d: %w", row, err)
		}

		orderName := NormalizeOrderName(rec["order_name"])
		if orderName == "" {
			result.addError(row, "", "Missing order_name")
			continue
		}

		if p.processRow(ctx, logger, result, row, orderName, rec) {
			result.Processed++
		}
	}

	result.Failed = result.TotalRows - result.Processed
	logger.Info("sync run finished",
		"processed", result.Processed,
		"created", result.CreatedFulfillments,
		"failed", result.Failed,
	)
	return result, nil
}

// processRow handles one data row and reports whether it counts as
// processed. Creation failures inside the row are sampled but do not void
// the row; lookup and fetch failures do.
func (p *Pipeline) processRow(ctx context.Context, logger *slog.Logger, result *Result, row int, orderName string, rec csvx.Record) bool {
	orders, err := p.platform.FindOrders(ctx, "name:"+orderName, p.searchLimit)
	if err != nil {
		result.addError(row, orderName, "Order lookup failed: "+err.Error())
		return false
	}
	if len(orders) == 0 {
		result.addError(row, orderName, "Order not found")
		return false
	}
	order := orders[0]

	fos, err := p.platform.FulfillmentOrders(ctx, order.ID)
	if err != nil {
		result.addError(row, orderName, "Fetching fulfillmentOrders failed: "+err.Error())
		return false
	}
	if len(fos) == 0 {
		result.addError(row, orderName, "No fulfillmentOrders")
		return false
	}

	var tracking *shopify.TrackingInfo
	if tn := strings.TrimSpace(rec["tracking_number"]); tn != "" {
		tracking = &shopify.TrackingInfo{
			Number:  tn,
			Company: strings.TrimSpace(rec["carrier"]),
		}
	}
	notify := parseBool(rec["notify_customer"])

	// One fulfillment per fulfillment order, full remaining quantity.
	for _, fo := range fos {
		if !fulfill.Fulfillable(fo.Status) {
			continue
		}
		var items []shopify.FulfillmentLineItem
		for _, li := range fo.LineItems {
			if li.RemainingQuantity > 0 {
				items = append(items, shopify.FulfillmentLineItem{ID: li.ID, Quantity: li.RemainingQuantity})
			}
		}
		if len(items) == 0 {
			continue
		}

		_, err := p.platform.CreateFulfillment(ctx, shopify.FulfillmentCreateRequest{
			NotifyCustomer: notify,
			Tracking:       tracking,
			Groups: []shopify.FulfillmentOrderGroup{
				{FulfillmentOrderID: fo.ID, LineItems: items},
			},
		})
		if err != nil {
			// Isolated failure: record it and keep going with the
			// remaining fulfillment orders of this row.
			result.addError(row, orderName, "Fulfillment failed: "+err.Error())
			logger.Warn("fulfillment failed", "row", row, "order", orderName, "fo", fo.ID, "error", err)
			continue
		}
		result.CreatedFulfillments++
		logger.Debug("fulfillment created", "row", row, "order", orderName, "fo", fo.ID)
	}

	return true
}

// NormalizeOrderName canonicalizes an order_name cell. Digits-only input
// gains the platform's order-name marker; a value already bearing the marker
// or any other non-empty value passes through trimmed.
func NormalizeOrderName(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if strings.HasPrefix(v, orderNameMarker) {
		return v
	}
	if isDigits(v) {
		return orderNameMarker + v
	}
	return v
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// parseBool reports whether a notify_customer cell is truthy.
// Recognized truthy tokens: "1", "true", "yes" (case-insensitive).
func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
