package reconcile

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/imamik/k8sgce/internal/metrics"
	"github.com/imamik/k8sgce/internal/platform/gce/fakes"
)

type recorder struct {
	calls []string
}

func (r *recorder) action(op Op, name string, errs ...error) Action {
	n := 0
	return Action{
		Op:   op,
		Kind: "address",
		Name: name,
		Apply: func(context.Context) error {
			r.calls = append(r.calls, name)
			if n < len(errs) {
				err := errs[n]
				n++
				return err
			}
			return nil
		},
	}
}

func TestExecute_AppliesInOrder(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	p := NewPlan(DomainIngress)
	p.Add(r.action(OpCreate, "a"), r.action(OpCreate, "b"), r.action(OpDelete, "c"))

	res, err := Execute(context.Background(), testScope(), p)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, r.calls)
	assert.Len(t, res.Applied, 3)
}

func TestExecute_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	p := NewPlan(DomainIngress)
	p.Add(r.action(OpCreate, "a", fakes.Unavailable(), fakes.Unavailable()))

	reg := prometheus.NewRegistry()
	s := testScope().WithMetrics(metrics.NewCollector(reg))

	res, err := Execute(context.Background(), s, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a", "a"}, r.calls)
	assert.Len(t, res.Applied, 1)
}

func TestExecute_ExhaustionStopsDependentSteps(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	unavailable := fakes.Unavailable()
	p := NewPlan(DomainIngress)
	p.Add(
		r.action(OpCreate, "a"),
		r.action(OpCreate, "b", unavailable, unavailable, unavailable, unavailable, unavailable),
		r.action(OpCreate, "c"),
	)

	res, err := Execute(context.Background(), testScope(), p)
	require.Error(t, err)

	f, ok := IsFailure(err)
	require.True(t, ok)
	assert.Equal(t, DomainIngress, f.Domain)
	assert.Equal(t, "b", f.Name)
	assert.Equal(t, "create", f.Op)

	assert.Equal(t, []string{"a", "b", "b", "b", "b", "b"}, r.calls)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, "a", res.Applied[0].Name)
}

func TestExecute_FatalErrorNotRetried(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	p := NewPlan(DomainPeering)
	p.Add(r.action(OpDelete, "a", errors.New("permission denied")))

	_, err := Execute(context.Background(), testScope(), p)
	require.Error(t, err)
	assert.Equal(t, []string{"a"}, r.calls)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestExecute_AlreadyExistsCountsAsApplied(t *testing.T) {
	t.Parallel()

	conflict := &googleapi.Error{
		Code:   http.StatusConflict,
		Errors: []googleapi.ErrorItem{{Reason: "alreadyExists"}},
	}
	r := &recorder{}
	p := NewPlan(DomainIngress)
	p.Add(r.action(OpCreate, "a", conflict))

	res, err := Execute(context.Background(), testScope(), p)
	require.NoError(t, err)
	assert.Len(t, res.Applied, 1)
	assert.Equal(t, []string{"a"}, r.calls)
}

func TestExecute_WaitFailureReportsLastState(t *testing.T) {
	t.Parallel()

	waits := 0
	p := NewPlan(DomainNodePools)
	p.Add(Action{
		Op:    OpCreate,
		Kind:  "instance",
		Name:  "alpha-cp-0",
		State: "CREATING",
		Apply: func(context.Context) error { return nil },
		Wait: func(context.Context) error {
			waits++
			return errors.New("not running")
		},
	})

	_, err := Execute(context.Background(), testScope(), p)
	require.Error(t, err)
	f, ok := IsFailure(err)
	require.True(t, ok)
	assert.Equal(t, "CREATING", f.LastState)
	assert.Equal(t, 1, waits)
	assert.Contains(t, f.Error(), "last state CREATING")
}

func TestExecute_CarriesPlanFindings(t *testing.T) {
	t.Parallel()

	p := NewPlan(DomainNodePools)
	p.Drift = []Drift{{Kind: "instance", Name: "alpha-w-0", Field: "machine_type", Desired: "e2-small", Observed: "e2-medium"}}
	p.Defer("peering", "alpha-to-beta", "remote network absent")
	p.Deny("service-account", "custom", "not generated")
	p.Warn("gap in indices: %v", []int{1})

	res, err := Execute(context.Background(), testScope(), p)
	require.NoError(t, err)
	assert.Len(t, res.Drift, 1)
	assert.Len(t, res.Deferred, 1)
	assert.Len(t, res.Denied, 1)
	assert.Equal(t, []string{"gap in indices: [1]"}, res.Warnings)
	assert.Empty(t, res.Applied)
}
