package reconcile

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/util/wait"
)

// Poll checks cond every s.Timeouts.PollInterval, at most
// s.Timeouts.PollAttempts times. A poll that runs out of attempts fails hard.
// Errors from cond end the poll immediately.
func Poll(ctx context.Context, s Scope, what string, cond func(ctx context.Context) (bool, error)) error {
	attempts := max(s.Timeouts.PollAttempts, 1)
	backoff := wait.Backoff{
		Duration: s.Timeouts.PollInterval,
		Factor:   1.0,
		Steps:    attempts,
	}
	err := wait.ExponentialBackoffWithContext(ctx, backoff, cond)
	if wait.Interrupted(err) {
		return fmt.Errorf("timed out after %d attempts waiting for %s", attempts, what)
	}
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", what, err)
	}
	return nil
}
