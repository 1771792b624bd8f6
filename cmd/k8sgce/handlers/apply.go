package handlers

import (
	"context"

	"github.com/imamik/k8sgce/internal/orchestration"
)

// Apply converges the cluster's cloud resources to the configuration.
//
// The run walks the domains in dependency order: identity, control-plane
// pool, worker pools, ingress, then peering. Each domain is probed, diffed
// against the configuration and its plan executed. The first failing domain
// halts the run; later domains are reported as skipped.
//
// Credentials come from the configured credentials file or, when unset,
// application default credentials.
func Apply(ctx context.Context, opts Options) error {
	return run(ctx, opts, func(ctx context.Context, r *orchestration.Reconciler) (*orchestration.Report, error) {
		return r.Apply(ctx)
	})
}
