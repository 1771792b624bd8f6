package async

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of in-flight tasks.
const DefaultConcurrency = 8

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes tasks concurrently, at most DefaultConcurrency at a
// time, and returns the first error encountered after all tasks finish.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "addresses", Func: p.probeAddresses},
//	    {Name: "firewalls", Func: p.probeFirewalls},
//	}
//	if err := RunParallel(ctx, tasks); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task) error {
	return RunParallelN(ctx, DefaultConcurrency, tasks)
}

// RunParallelN is RunParallel with an explicit concurrency limit.
// A limit <= 0 means unbounded.
func RunParallelN(ctx context.Context, limit int, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	// A plain errgroup.Group keeps siblings running when one fails: every
	// probe result is wanted even if another probe broke.
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, task := range tasks {
		g.Go(func() error {
			if err := task.Func(ctx); err != nil {
				return fmt.Errorf("failed to run %s: %w", task.Name, err)
			}
			return nil
		})
	}

	return g.Wait()
}
