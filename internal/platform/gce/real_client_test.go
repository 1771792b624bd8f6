package gce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/compute/v1"
	iam "google.golang.org/api/iam/v1"
	"google.golang.org/api/option"

	"github.com/imamik/k8sgce/internal/config"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
}

// newTestClient serves handler for both APIs and records every request.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*RealClient, func() []recordedRequest) {
	t.Helper()

	var mu sync.Mutex
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		reqs = append(reqs, recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query().Get("filter")})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	opts := []option.ClientOption{option.WithEndpoint(srv.URL + "/"), option.WithoutAuthentication()}
	cs, err := compute.NewService(ctx, opts...)
	require.NoError(t, err)
	is, err := iam.NewService(ctx, opts...)
	require.NoError(t, err)

	timeouts := &config.Timeouts{Operation: 5 * time.Second, OperationPoll: time.Millisecond}
	c, err := NewRealClient(ctx, Location{Project: "p", Region: "r", Zone: "r-a"}, "",
		WithComputeService(cs), WithIAMService(is), WithTimeouts(timeouts))
	require.NoError(t, err)

	return c, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error": map[string]any{"code": 404, "message": "not found", "errors": []map[string]string{{"reason": "notFound"}}},
	})
}

func TestRealClient_GetAddress_NotFound(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) { notFound(w) })

	addr, err := c.GetAddress(context.Background(), "alpha-ingress-0")
	require.NoError(t, err)
	assert.Nil(t, addr)
}

func TestRealClient_ListAddresses_Filter(t *testing.T) {
	t.Parallel()

	c, requests := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, compute.AddressList{Items: []*compute.Address{{Name: "alpha-ingress-0"}}})
	})

	addrs, err := c.ListAddresses(context.Background(), `alpha-ingress-\d+`)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, "alpha-ingress-0", addrs[0].Name)

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/projects/p/regions/r/addresses", reqs[0].Path)
	assert.Equal(t, `name eq 'alpha-ingress-\d+'`, reqs[0].Query)
}

func TestRealClient_InsertFirewall_WaitsForOperation(t *testing.T) {
	t.Parallel()

	c, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/projects/p/global/firewalls":
			writeJSON(w, http.StatusOK, compute.Operation{Name: "op-1", Status: "RUNNING"})
		case "/projects/p/global/operations/op-1/wait":
			writeJSON(w, http.StatusOK, compute.Operation{Name: "op-1", Status: "DONE"})
		default:
			notFound(w)
		}
	})

	err := c.InsertFirewall(context.Background(), &compute.Firewall{Name: "alpha-ingress-0"})
	require.NoError(t, err)

	reqs := requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/projects/p/global/operations/op-1/wait", reqs[1].Path)
}

func TestRealClient_InsertInstance_OperationError(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, compute.Operation{
			Name:   "op-2",
			Status: "DONE",
			Zone:   "https://compute/projects/p/zones/r-a",
			Error: &compute.OperationError{Errors: []*compute.OperationErrorErrors{
				{Code: "RESOURCE_NOT_READY", Message: "disk not ready"},
			}},
		})
	})

	err := c.InsertInstance(context.Background(), &compute.Instance{Name: "alpha-cp-0"})
	require.Error(t, err)

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, []string{"RESOURCE_NOT_READY"}, opErr.Codes)
	assert.True(t, IsRetryable(err))
}

func TestRealClient_DeleteInstance_MissingSucceeds(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) { notFound(w) })
	assert.NoError(t, c.DeleteInstance(context.Background(), "alpha-cp-3"))
}

func TestRealClient_ListInstanceGroupMembers(t *testing.T) {
	t.Parallel()

	c, requests := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, compute.InstanceGroupsListInstances{Items: []*compute.InstanceWithNamedPorts{
			{Instance: "https://compute/projects/p/zones/r-a/instances/alpha-workers-0"},
			{Instance: "https://compute/projects/p/zones/r-a/instances/alpha-workers-1"},
		}})
	})

	names, err := c.ListInstanceGroupMembers(context.Background(), "alpha-workers")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha-workers-0", "alpha-workers-1"}, names)
	assert.Equal(t, "/projects/p/zones/r-a/instanceGroups/alpha-workers/listInstances", requests()[0].Path)
}

func TestRealClient_ServiceAccounts(t *testing.T) {
	t.Parallel()

	c, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, iam.ListServiceAccountsResponse{Accounts: []*iam.ServiceAccount{
				{Email: "alpha-0a1b2c@p.iam.gserviceaccount.com"},
			}})
		case http.MethodDelete:
			writeJSON(w, http.StatusOK, map[string]any{})
		}
	})

	accounts, err := c.ListServiceAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	require.NoError(t, c.DeleteServiceAccount(context.Background(), "alpha-0a1b2c"))
	reqs := requests()
	assert.Equal(t, "/v1/projects/p/serviceAccounts/alpha-0a1b2c@p.iam.gserviceaccount.com", reqs[1].Path)
}
