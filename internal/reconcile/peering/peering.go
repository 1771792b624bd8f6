package peering

import (
	"context"
	"time"

	"github.com/imamik/k8sgce/internal/reconcile"
)

// Plan probes remote state and computes the peering plan without mutating.
func Plan(ctx context.Context, s reconcile.Scope, spec Spec) *reconcile.Plan {
	return Diff(s, spec, Probe(ctx, s, spec.Remotes()))
}

// Reconcile converges the declared peer links.
func Reconcile(ctx context.Context, s reconcile.Scope, spec Spec) (*reconcile.Result, error) {
	start := time.Now()
	reconcile.LogDomainStart(s.Observer, reconcile.DomainPeering)

	res, err := reconcile.Execute(ctx, s, Plan(ctx, s, spec))
	if err != nil {
		reconcile.LogDomainFailed(s.Observer, reconcile.DomainPeering, err)
		return res, err
	}
	reconcile.LogDomainComplete(s.Observer, reconcile.DomainPeering, len(res.Applied), time.Since(start))
	return res, nil
}

// DestroyPlan computes the removal of every peering of the local cluster,
// including the reverse peerings and firewalls on the remote networks.
func DestroyPlan(ctx context.Context, s reconcile.Scope, spec Spec) *reconcile.Plan {
	p := reconcile.NewPlan(reconcile.DomainPeering)
	obs := Probe(ctx, s, spec.Remotes())
	newBuilder(s, spec).destroy(p, obs)
	return p
}

// Destroy removes every peering of the local cluster.
func Destroy(ctx context.Context, s reconcile.Scope, spec Spec) (*reconcile.Result, error) {
	return reconcile.Execute(ctx, s, DestroyPlan(ctx, s, spec))
}
