package ingress

import (
	"context"
	"time"

	"github.com/imamik/k8sgce/internal/reconcile"
)

// Plan probes remote state and computes the ingress plan without mutating.
func Plan(ctx context.Context, s reconcile.Scope, spec Spec) *reconcile.Plan {
	return Diff(s, spec, Probe(ctx, s, spec.Backend))
}

// Reconcile converges ingress to spec.
func Reconcile(ctx context.Context, s reconcile.Scope, spec Spec) (*reconcile.Result, error) {
	start := time.Now()
	reconcile.LogDomainStart(s.Observer, reconcile.DomainIngress)

	res, err := reconcile.Execute(ctx, s, Plan(ctx, s, spec))
	if err != nil {
		reconcile.LogDomainFailed(s.Observer, reconcile.DomainIngress, err)
		return res, err
	}
	reconcile.LogDomainComplete(s.Observer, reconcile.DomainIngress, len(res.Applied), time.Since(start))
	return res, nil
}

// DestroyPlan computes the removal of every ingress resource of the cluster.
func DestroyPlan(ctx context.Context, s reconcile.Scope) *reconcile.Plan {
	return Diff(s, Spec{}, Probe(ctx, s, ""))
}

// Destroy removes every ingress resource of the cluster.
func Destroy(ctx context.Context, s reconcile.Scope) (*reconcile.Result, error) {
	return reconcile.Execute(ctx, s, DestroyPlan(ctx, s))
}
