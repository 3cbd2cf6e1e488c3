package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/merchops/shipdesk/internal/fulfill"
	"github.com/merchops/shipdesk/internal/logging"
	"github.com/merchops/shipdesk/internal/shopify"
	csvsync "github.com/merchops/shipdesk/internal/sync"
)

// handleSearchOrders finds orders matching a name query.
//
// GET /api/orders?query=1001
func (s *Server) handleSearchOrders(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		respondBadRequest(w, "missing query parameter")
		return
	}
	if !strings.Contains(query, ":") {
		// Bare values search by order name.
		if !strings.HasPrefix(query, "#") {
			query = "#" + query
		}
		query = "name:" + query
	}

	orders, err := s.finder.FindOrders(r.Context(), query, s.cfg.Sync.OrderSearchLimit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		OK     bool            `json:"ok"`
		Orders []shopify.Order `json:"orders"`
	}{OK: true, Orders: orders})
}

// handleOrderDetails returns an order with its fulfillment orders and the
// merged shippable line-item view.
//
// GET /api/orders/{orderID}
func (s *Server) handleOrderDetails(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		respondBadRequest(w, "missing order id")
		return
	}

	order, fos, merged, err := s.engine.OrderDetails(r.Context(), orderID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		OK                bool                       `json:"ok"`
		Order             *shopify.Order             `json:"order"`
		FulfillmentOrders []shopify.FulfillmentOrder `json:"fulfillmentOrders"`
		LineItems         []fulfill.MergedLineItem   `json:"lineItems"`
	}{OK: true, Order: order, FulfillmentOrders: fos, LineItems: merged})
}

// createFulfillmentsRequest is the body for grouped fulfillment creation:
// an explicit list of selection records, one per picked line item.
type createFulfillmentsRequest struct {
	NotifyCustomer bool                 `json:"notifyCustomer"`
	Items          []fulfill.PickedItem `json:"items"`
}

// createFulfillmentsResponse reports a grouped creation run. On a fail-fast
// abort the envelope still carries the groups created before the failure.
type createFulfillmentsResponse struct {
	OK          bool                         `json:"ok"`
	Created     int                          `json:"created"`
	Groups      []fulfill.CreatedFulfillment `json:"groups"`
	FailedGroup *fulfill.GroupKey            `json:"failedGroup,omitempty"`
	Error       string                       `json:"error,omitempty"`
	Code        string                       `json:"code,omitempty"`
	Details     string                       `json:"details,omitempty"`
}

// handleCreateFulfillments creates fulfillments for the picked items,
// grouped by shipping identity.
//
// POST /api/orders/{orderID}/fulfillments
func (s *Server) handleCreateFulfillments(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		respondBadRequest(w, "missing order id")
		return
	}

	var req createFulfillmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	result, err := s.engine.CreateGrouped(r.Context(), orderID, req.Items, req.NotifyCustomer)
	if err != nil {
		// Groups created before the failure are part of the outcome:
		// they exist on the platform and are not rolled back.
		msg := fulfill.MapError(err)
		logging.FromContext(r.Context()).Error("grouped fulfillment failed",
			"order", orderID,
			"created_before_failure", len(result.Created),
			"code", msg.Code,
			"error", err.Error(),
		)
		respondJSON(w, statusFor(err), createFulfillmentsResponse{
			OK:          false,
			Created:     len(result.Created),
			Groups:      result.Created,
			FailedGroup: result.FailedKey,
			Error:       msg.Message,
			Code:        msg.Code,
			Details:     err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, createFulfillmentsResponse{
		OK:      true,
		Created: len(result.Created),
		Groups:  result.Created,
	})
}

// handleSync runs the CSV bulk pipeline on an uploaded file.
//
// POST /api/sync (multipart, field "file")
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Sync.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		respondBadRequest(w, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondBadRequest(w, "no file provided")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		respondBadRequest(w, "failed to read file")
		return
	}

	result, err := s.pipeline.Run(r.Context(), header.Filename, string(raw))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
		*csvsync.Result
	}{OK: true, Result: result})
}
