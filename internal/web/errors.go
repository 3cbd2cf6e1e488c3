package web

// errors.go provides unified JSON error responses.
//
// Every failure response carries:
//   - error:   a user-friendly message (via fulfill.MapError)
//   - code:    a stable support reference
//   - action:  a suggested next step, when one exists
//   - details: the raw diagnostic, verbatim, for debugging
//
// The technical error is logged server-side with the request ID so support
// staff can correlate a quoted code with the full log entry.

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/merchops/shipdesk/internal/csvx"
	"github.com/merchops/shipdesk/internal/fulfill"
	"github.com/merchops/shipdesk/internal/logging"
	"github.com/merchops/shipdesk/internal/shopify"
)

// errorEnvelope is the JSON structure for failure responses.
type errorEnvelope struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Action  string `json:"action,omitempty"`
	Details string `json:"details,omitempty"`
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError logs err and writes the mapped failure envelope.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := fulfill.MapError(err)
	status := statusFor(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	)

	respondJSON(w, status, errorEnvelope{
		OK:      false,
		Error:   msg.Message,
		Code:    msg.Code,
		Action:  msg.Action,
		Details: err.Error(),
	})
}

// respondBadRequest writes a plain validation failure for malformed requests
// that never reached the core (bad JSON, missing file).
func respondBadRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, errorEnvelope{
		OK:    false,
		Error: message,
		Code:  "REQ001",
	})
}

// statusFor maps an error class to an HTTP status.
func statusFor(err error) int {
	var validation *fulfill.ValidationError
	var notFound *fulfill.NotFoundError
	var userErrs shopify.UserErrorList

	switch {
	case errors.Is(err, fulfill.ErrNothingToFulfill),
		errors.Is(err, csvx.ErrEmptyCSV),
		errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &userErrs):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
