package nodepool

import (
	"context"
	"slices"
	"time"

	"github.com/imamik/k8sgce/internal/desired"
	"github.com/imamik/k8sgce/internal/platform/gce"
	"github.com/imamik/k8sgce/internal/reconcile"
)

// Plan probes remote state and computes the node pool plan without mutating.
func Plan(ctx context.Context, s reconcile.Scope, pools desired.NodePools, opts Options) *reconcile.Plan {
	return Diff(s, pools, opts, Probe(ctx, s, pools.Order))
}

// Reconcile converges the selected node pools.
func Reconcile(ctx context.Context, s reconcile.Scope, pools desired.NodePools, opts Options) (*reconcile.Result, error) {
	start := time.Now()
	obs := s.Observer.WithValues("pools", opts.Pools)
	reconcile.LogDomainStart(obs, reconcile.DomainNodePools)

	res, err := reconcile.Execute(ctx, s, Plan(ctx, s, pools, opts))
	if err != nil {
		reconcile.LogDomainFailed(obs, reconcile.DomainNodePools, err)
		return res, err
	}
	reconcile.LogDomainComplete(obs, reconcile.DomainNodePools, len(res.Applied), time.Since(start))
	return res, nil
}

// DestroyPlan computes the removal of every pool of the cluster, workers
// first and the control-plane pool last.
func DestroyPlan(ctx context.Context, s reconcile.Scope, pools desired.NodePools) *reconcile.Plan {
	obs := Probe(ctx, s, pools.Order)
	b := &builder{s: s, loc: s.Location(), plan: reconcile.NewPlan(reconcile.DomainNodePools), cloud: s.Cloud}

	names := make([]string, 0, len(obs.Pools))
	for name := range obs.Pools {
		if name != pools.ControlPlane {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	if _, ok := obs.Pools[pools.ControlPlane]; ok {
		names = append(names, pools.ControlPlane)
	}

	for _, name := range names {
		b.removePool(obs.Pools[name], "cluster teardown")
	}
	return b.plan
}

// Destroy removes every pool of the cluster.
func Destroy(ctx context.Context, s reconcile.Scope, pools desired.NodePools) (*reconcile.Result, error) {
	return reconcile.Execute(ctx, s, DestroyPlan(ctx, s, pools))
}

// ServiceAccountEmail returns the email of the cluster identity for use in
// Options.
func ServiceAccountEmail(s reconcile.Scope, accountID string) string {
	if accountID == "" {
		return ""
	}
	return gce.ServiceAccountEmail(s.Location().Project, accountID)
}
