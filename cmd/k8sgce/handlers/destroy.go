package handlers

import (
	"context"

	"github.com/imamik/k8sgce/internal/orchestration"
)

// Destroy removes every resource named for the cluster in reverse
// dependency order: peering, ingress, node pools, then identity.
//
// A custom service account is kept unless opts.ForceIdentity is set.
func Destroy(ctx context.Context, opts Options) error {
	return run(ctx, opts, func(ctx context.Context, r *orchestration.Reconciler) (*orchestration.Report, error) {
		return r.Destroy(ctx)
	})
}
