package reconcile

import (
	"github.com/go-logr/logr"

	"github.com/imamik/k8sgce/internal/config"
	"github.com/imamik/k8sgce/internal/metrics"
	"github.com/imamik/k8sgce/internal/platform/gce"
	"github.com/imamik/k8sgce/internal/platform/k8s"
)

// Scope is the immutable context of one reconciliation run. It is passed by
// value into every probe, plan and execute call.
type Scope struct {
	Cluster  string
	Cloud    gce.ResourceAPI
	Members  k8s.Membership // nil when the cluster API is not reachable
	Timeouts config.Timeouts
	Observer Observer
	Metrics  metrics.Collector

	// ForceIdentity allows deleting a custom service account.
	ForceIdentity bool
}

// NewScope returns a scope with a discarding observer, no-op metrics and
// default timeouts. Use the With methods to set the rest.
func NewScope(cluster string, cloud gce.ResourceAPI) Scope {
	return Scope{
		Cluster:  cluster,
		Cloud:    cloud,
		Timeouts: *config.LoadTimeouts(),
		Observer: NewLogObserver(logr.Discard()),
		Metrics:  metrics.NewNoopCollector(),
	}
}

// Location returns the project, region and zone of the cloud client.
func (s Scope) Location() gce.Location {
	return s.Cloud.Location()
}

// WithMembers returns a copy of s using m as membership API.
func (s Scope) WithMembers(m k8s.Membership) Scope {
	s.Members = m
	return s
}

// WithTimeouts returns a copy of s using t.
func (s Scope) WithTimeouts(t config.Timeouts) Scope {
	s.Timeouts = t
	return s
}

// WithObserver returns a copy of s emitting events to o.
func (s Scope) WithObserver(o Observer) Scope {
	s.Observer = o
	return s
}

// WithMetrics returns a copy of s recording to c.
func (s Scope) WithMetrics(c metrics.Collector) Scope {
	s.Metrics = c
	return s
}

// WithForceIdentity returns a copy of s with the identity override set.
func (s Scope) WithForceIdentity(force bool) Scope {
	s.ForceIdentity = force
	return s
}
