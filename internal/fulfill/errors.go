package fulfill

// errors.go defines the error taxonomy for fulfillment operations and maps
// errors to user-facing messages with support codes.
//
// Error classes:
//
//	ValidationError   - bad operator input; rejected before any remote call
//	NotFoundError     - order or sub-resource absent on the platform
//	UserErrorList     - platform executed the call but rejected the payload
//	                    (defined in the shopify package)
//	other errors      - transport-level failures from the platform client
//
// No error is retried anywhere; propagation policy (fail-fast vs isolated
// capture) belongs to the engine and the sync pipeline respectively.

import (
	"errors"
	"fmt"

	"github.com/merchops/shipdesk/internal/csvx"
	"github.com/merchops/shipdesk/internal/shopify"
)

// ErrNothingToFulfill is returned when a grouped creation request contains
// no pickable items after filtering.
var ErrNothingToFulfill = errors.New("nothing to fulfill")

// ValidationError reports invalid operator input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an absent order or sub-resource.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// UserMessage is a user-facing rendering of an error. The code gives support
// staff a stable reference independent of message wording.
type UserMessage struct {
	Code    string
	Message string
	Action  string
}

// MapError translates an error into a UserMessage.
func MapError(err error) UserMessage {
	var validation *ValidationError
	var notFound *NotFoundError
	var userErrs shopify.UserErrorList

	switch {
	case errors.Is(err, ErrNothingToFulfill):
		return UserMessage{
			Code:    "VAL001",
			Message: "Nothing to fulfill",
			Action:  "Select at least one item with a positive quantity",
		}
	case errors.As(err, &validation):
		return UserMessage{
			Code:    "VAL002",
			Message: validation.Msg,
			Action:  "Correct the highlighted input and try again",
		}
	case errors.As(err, &notFound):
		return UserMessage{
			Code:    "ORD001",
			Message: err.Error(),
			Action:  "Check the order identifier and try again",
		}
	case errors.As(err, &userErrs):
		return UserMessage{
			Code:    "API001",
			Message: "The platform rejected the fulfillment request",
			Action:  "Review the details; the order may have changed since it was loaded",
		}
	case errors.Is(err, csvx.ErrEmptyCSV):
		return UserMessage{
			Code:    "CSV001",
			Message: "The file is empty or has no header row",
			Action:  "Upload a CSV with a header row and at least one data row",
		}
	default:
		return UserMessage{
			Code:    "API002",
			Message: "The platform could not be reached",
			Action:  "Try again in a few moments",
		}
	}
}
