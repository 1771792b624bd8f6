package testing

import (
	"testing"

	"github.com/imamik/k8sgce/internal/config"
	"github.com/imamik/k8sgce/internal/desired"
	"github.com/imamik/k8sgce/internal/platform/gce"
	"github.com/imamik/k8sgce/internal/platform/gce/fakes"
	"github.com/imamik/k8sgce/internal/reconcile"
	"github.com/imamik/k8sgce/internal/util/naming"
)

// TestLocation is the location every fixture is bound to.
var TestLocation = gce.Location{Project: "proj", Region: "europe-west1", Zone: "europe-west1-b"}

// Fixture is an in-memory cloud plus a scope bound to it.
type Fixture struct {
	Cloud *fakes.FakeClient
	Scope reconcile.Scope
}

// NewFixture creates a fixture for cluster with fast timeouts. The cluster's
// default ingress backend service exists.
func NewFixture(t *testing.T, cluster string) *Fixture {
	t.Helper()
	cloud := fakes.NewFakeClient(TestLocation)
	cloud.AddBackendService(naming.IngressBackend(cluster))
	return &Fixture{
		Cloud: cloud,
		Scope: reconcile.NewScope(cluster, cloud).WithTimeouts(FastTimeouts()),
	}
}

// MutatingCalls returns the recorded mutating calls as strings.
func (f *Fixture) MutatingCalls() []string {
	calls := f.Cloud.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

// MustState parses cfg into the desired state, failing the test on error.
func MustState(t *testing.T, cfg *config.Config) *desired.State {
	t.Helper()
	st, err := desired.Parse(cfg)
	if err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	return st
}
