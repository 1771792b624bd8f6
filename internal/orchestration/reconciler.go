package orchestration

import (
	"context"
	"fmt"
	"slices"

	"github.com/imamik/k8sgce/internal/config"
	"github.com/imamik/k8sgce/internal/desired"
	"github.com/imamik/k8sgce/internal/reconcile"
	"github.com/imamik/k8sgce/internal/reconcile/identity"
	"github.com/imamik/k8sgce/internal/reconcile/ingress"
	"github.com/imamik/k8sgce/internal/reconcile/nodepool"
	"github.com/imamik/k8sgce/internal/reconcile/peering"
)

// Reconciler runs the reconciliation domains of one cluster.
type Reconciler struct {
	scope   reconcile.Scope
	state   *desired.State
	domains []reconcile.Domain
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithDomains restricts the run to the given domains. Order is always the
// dependency order.
func WithDomains(domains ...reconcile.Domain) Option {
	return func(r *Reconciler) {
		if len(domains) > 0 {
			r.domains = slices.Clone(domains)
		}
	}
}

// NewReconciler creates a reconciler for st.
func NewReconciler(s reconcile.Scope, st *desired.State, opts ...Option) *Reconciler {
	r := &Reconciler{scope: s, state: st, domains: slices.Clone(reconcile.Domains)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FromConfig parses cfg and creates a reconciler. An invalid configuration is
// returned as an error before any remote call is made.
func FromConfig(s reconcile.Scope, cfg *config.Config, opts ...Option) (*Reconciler, error) {
	st, err := desired.Parse(cfg)
	if err != nil {
		return nil, err
	}
	return NewReconciler(s, st, opts...), nil
}

func (r *Reconciler) selected(d reconcile.Domain) bool {
	return slices.Contains(r.domains, d)
}

// phase is one step of a run.
type phase struct {
	domain reconcile.Domain
	name   string
	run    func(ctx context.Context) error
}

// runPhases runs phases in order, skipping unselected domains and halting
// after the first failure.
func (r *Reconciler) runPhases(ctx context.Context, report *Report, phases []phase) error {
	for i, p := range phases {
		if !r.selected(p.domain) {
			continue
		}
		if err := p.run(ctx); err != nil {
			for _, rest := range phases[i+1:] {
				if r.selected(rest.domain) {
					report.Skipped = append(report.Skipped, Skipped{Phase: rest.name, Reason: "halted after " + p.name + " failed"})
				}
			}
			return fmt.Errorf("phase %s failed: %w", p.name, err)
		}
	}
	return nil
}

// Apply converges every selected domain.
func (r *Reconciler) Apply(ctx context.Context) (*Report, error) {
	report := &Report{Mode: ModeApply}
	s := r.scope
	pools := r.state.Pools

	phases := []phase{
		{reconcile.DomainIdentity, "identity", func(ctx context.Context) error {
			res, id, err := identity.Reconcile(ctx, s, identity.SpecFromState(r.state))
			report.addResult(res)
			report.Identity = id
			return err
		}},
		{reconcile.DomainNodePools, "control-plane", func(ctx context.Context) error {
			if err := r.resolveIdentity(ctx, report); err != nil {
				return err
			}
			res, err := nodepool.Reconcile(ctx, s, pools, r.poolOptions(report, []string{pools.ControlPlane}, false))
			report.addResult(res)
			return err
		}},
		{reconcile.DomainNodePools, "workers", func(ctx context.Context) error {
			res, err := nodepool.Reconcile(ctx, s, pools, r.poolOptions(report, workerNames(pools), true))
			report.addResult(res)
			return err
		}},
		{reconcile.DomainIngress, "ingress", func(ctx context.Context) error {
			res, err := ingress.Reconcile(ctx, s, ingress.SpecFromState(r.state))
			report.addResult(res)
			return err
		}},
		{reconcile.DomainPeering, "peering", func(ctx context.Context) error {
			res, err := peering.Reconcile(ctx, s, peering.SpecFromState(r.state))
			report.addResult(res)
			return err
		}},
	}

	return report, r.runPhases(ctx, report, phases)
}

// Plan computes the plans of every selected domain without mutating.
func (r *Reconciler) Plan(ctx context.Context) (*Report, error) {
	report := &Report{Mode: ModePlan}
	s := r.scope
	pools := r.state.Pools

	phases := []phase{
		{reconcile.DomainIdentity, "identity", func(ctx context.Context) error {
			p, id, err := identity.Plan(ctx, s, identity.SpecFromState(r.state))
			report.addPlan(p)
			report.Identity = id
			return err
		}},
		{reconcile.DomainNodePools, "node pools", func(ctx context.Context) error {
			if err := r.resolveIdentity(ctx, report); err != nil {
				return err
			}
			p := nodepool.Plan(ctx, s, pools, r.poolOptions(report, []string{pools.ControlPlane}, false))
			p.Merge(nodepool.Plan(ctx, s, pools, r.poolOptions(report, workerNames(pools), true)))
			report.addPlan(p)
			return nil
		}},
		{reconcile.DomainIngress, "ingress", func(ctx context.Context) error {
			report.addPlan(ingress.Plan(ctx, s, ingress.SpecFromState(r.state)))
			return nil
		}},
		{reconcile.DomainPeering, "peering", func(ctx context.Context) error {
			report.addPlan(peering.Plan(ctx, s, peering.SpecFromState(r.state)))
			return nil
		}},
	}

	return report, r.runPhases(ctx, report, phases)
}

// Destroy removes every selected domain's resources in reverse dependency
// order.
func (r *Reconciler) Destroy(ctx context.Context) (*Report, error) {
	report := &Report{Mode: ModeDestroy}
	s := r.scope

	phases := []phase{
		{reconcile.DomainPeering, "peering", func(ctx context.Context) error {
			res, err := peering.Destroy(ctx, s, peering.SpecFromState(r.state))
			report.addResult(res)
			return err
		}},
		{reconcile.DomainIngress, "ingress", func(ctx context.Context) error {
			res, err := ingress.Destroy(ctx, s)
			report.addResult(res)
			return err
		}},
		{reconcile.DomainNodePools, "node pools", func(ctx context.Context) error {
			res, err := nodepool.Destroy(ctx, s, r.state.Pools)
			report.addResult(res)
			return err
		}},
		{reconcile.DomainIdentity, "identity", func(ctx context.Context) error {
			res, err := identity.Destroy(ctx, s, identity.SpecFromState(r.state))
			report.addResult(res)
			return err
		}},
	}

	return report, r.runPhases(ctx, report, phases)
}

// resolveIdentity looks up the cluster identity when the identity domain
// is not part of the run. It must already exist.
func (r *Reconciler) resolveIdentity(ctx context.Context, report *Report) error {
	if r.selected(reconcile.DomainIdentity) {
		return nil
	}
	p, id, err := identity.Plan(ctx, r.scope, identity.SpecFromState(r.state))
	if err != nil {
		return err
	}
	for _, a := range p.Actions {
		if a.Op == reconcile.OpCreate {
			return fmt.Errorf("cluster service account does not exist yet; run the %s domain first", reconcile.DomainIdentity)
		}
	}
	report.Identity = id
	return nil
}

func (r *Reconciler) poolOptions(report *Report, names []string, pruneOrphans bool) nodepool.Options {
	return nodepool.Options{
		ServiceAccountEmail: report.Identity.Email,
		Pools:               names,
		PruneOrphans:        pruneOrphans,
	}
}

// workerNames returns the non control-plane pools; never nil.
func workerNames(pools desired.NodePools) []string {
	names := []string{}
	for _, w := range pools.Workers() {
		names = append(names, w.Name)
	}
	return names
}
