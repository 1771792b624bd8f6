package handlers

import (
	"context"

	"github.com/imamik/k8sgce/internal/orchestration"
)

// Plan shows what Apply would change without mutating anything.
func Plan(ctx context.Context, opts Options) error {
	return run(ctx, opts, func(ctx context.Context, r *orchestration.Reconciler) (*orchestration.Report, error) {
		return r.Plan(ctx)
	})
}
