package gce

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// OperationError is returned when a GCE operation finishes with errors.
type OperationError struct {
	Operation string
	Codes     []string
	Messages  []string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %s failed: %s (%s)",
		e.Operation, strings.Join(e.Messages, "; "), strings.Join(e.Codes, ","))
}

func (e *OperationError) hasCode(codes ...string) bool {
	for _, c := range e.Codes {
		for _, want := range codes {
			if c == want {
				return true
			}
		}
	}
	return false
}

// Operation error codes worth retrying: the resource is still settling.
var retryableOperationCodes = []string{
	"RESOURCE_NOT_READY",
	"RESOURCE_IN_USE_BY_ANOTHER_RESOURCE",
	"RESOURCE_OPERATION_RATE_EXCEEDED",
	"OPERATION_CANCELED_BY_USER",
	"ZONE_RESOURCE_POOL_EXHAUSTED_WITH_DETAILS",
	"INTERNAL_ERROR",
}

// API error reasons worth retrying.
var retryableReasons = []string{
	"resourceNotReady",
	"resourceInUseByAnotherResource",
	"rateLimitExceeded",
	"userRateLimitExceeded",
	"backendError",
}

func apiError(err error) (*googleapi.Error, bool) {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr, true
	}
	return nil, false
}

func hasReason(gerr *googleapi.Error, reasons ...string) bool {
	for _, item := range gerr.Errors {
		for _, r := range reasons {
			if item.Reason == r {
				return true
			}
		}
	}
	return false
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	gerr, ok := apiError(err)
	return ok && gerr.Code == http.StatusNotFound
}

// IsAlreadyExists reports whether err means an insert found the name taken.
func IsAlreadyExists(err error) bool {
	gerr, ok := apiError(err)
	return ok && gerr.Code == http.StatusConflict && hasReason(gerr, "alreadyExists")
}

// IsRetryable classifies transient failures: rate limiting, server errors
// and resources that are not ready or still in use.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.hasCode(retryableOperationCodes...)
	}
	gerr, ok := apiError(err)
	if !ok {
		return false
	}
	switch {
	case gerr.Code == http.StatusTooManyRequests:
		return true
	case gerr.Code >= http.StatusInternalServerError:
		return true
	case gerr.Code == http.StatusConflict:
		return !hasReason(gerr, "alreadyExists")
	default:
		return hasReason(gerr, retryableReasons...)
	}
}

// ignoreNotFound maps a not-found error to nil.
func ignoreNotFound(err error) error {
	if IsNotFound(err) {
		return nil
	}
	return err
}
