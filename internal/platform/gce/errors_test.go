package gce

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func apiErr(code int, reasons ...string) error {
	e := &googleapi.Error{Code: code, Message: http.StatusText(code)}
	for _, r := range reasons {
		e.Errors = append(e.Errors, googleapi.ErrorItem{Reason: r})
	}
	return e
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"rate limited", apiErr(http.StatusTooManyRequests), true},
		{"server error", apiErr(http.StatusServiceUnavailable), true},
		{"not ready", apiErr(http.StatusBadRequest, "resourceNotReady"), true},
		{"in use conflict", apiErr(http.StatusConflict, "resourceInUseByAnotherResource"), true},
		{"already exists", apiErr(http.StatusConflict, "alreadyExists"), false},
		{"bad request", apiErr(http.StatusBadRequest, "invalid"), false},
		{"forbidden quota", apiErr(http.StatusForbidden, "rateLimitExceeded"), true},
		{"not found", apiErr(http.StatusNotFound, "notFound"), false},
		{"wrapped", fmt.Errorf("insert: %w", apiErr(http.StatusInternalServerError)), true},
		{"operation not ready", &OperationError{Codes: []string{"RESOURCE_NOT_READY"}}, true},
		{"operation quota", &OperationError{Codes: []string{"QUOTA_EXCEEDED"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNotFound(apiErr(http.StatusNotFound)))
	assert.True(t, IsNotFound(fmt.Errorf("get: %w", apiErr(http.StatusNotFound))))
	assert.False(t, IsNotFound(apiErr(http.StatusConflict)))
	assert.False(t, IsNotFound(errors.New("404")))
	assert.NoError(t, ignoreNotFound(apiErr(http.StatusNotFound)))
}

func TestIsAlreadyExists(t *testing.T) {
	t.Parallel()

	assert.True(t, IsAlreadyExists(apiErr(http.StatusConflict, "alreadyExists")))
	assert.False(t, IsAlreadyExists(apiErr(http.StatusConflict, "resourceInUseByAnotherResource")))
}

func TestOperationError(t *testing.T) {
	t.Parallel()

	err := &OperationError{Operation: "op-1", Codes: []string{"A", "B"}, Messages: []string{"first", "second"}}
	assert.Equal(t, "operation op-1 failed: first; second (A,B)", err.Error())
}

func TestLinks(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "projects/p/global/networks/alpha", NetworkURL("p", "alpha"))
	assert.Equal(t, "projects/p/regions/r/backendServices/svc", BackendServiceURL("p", "r", "svc"))
	assert.Equal(t, "https://x/svc", BackendServiceURL("p", "r", "https://x/svc"))
	assert.Equal(t, "projects/p/regions/r/addresses/a", AddressURL("p", "r", "a"))
	assert.Equal(t, "alpha-abc123@p.iam.gserviceaccount.com", ServiceAccountEmail("p", "alpha-abc123"))
	assert.Equal(t, "alpha-abc123", ServiceAccountID("alpha-abc123@p.iam.gserviceaccount.com"))
	assert.Equal(t, "e2-small", ResourceName("https://compute/zones/z/machineTypes/e2-small"))
	assert.Equal(t, "plain", ResourceName("plain"))
}
