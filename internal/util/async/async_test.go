package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunParallel_Success(t *testing.T) {
	t.Parallel()
	var count atomic.Int32

	tasks := make([]Task, 3)
	for i := range tasks {
		tasks[i] = Task{Name: "task", Func: func(_ context.Context) error {
			count.Add(1)
			return nil
		}}
	}

	require.NoError(t, RunParallel(context.Background(), tasks))
	assert.Equal(t, int32(3), count.Load())
}

func TestRunParallel_EmptyTasks(t *testing.T) {
	t.Parallel()
	assert.NoError(t, RunParallel(context.Background(), nil))
	assert.NoError(t, RunParallel(context.Background(), []Task{}))
}

func TestRunParallel_ErrorDoesNotCancelSiblings(t *testing.T) {
	t.Parallel()
	expected := errors.New("task failed")
	var finished atomic.Bool

	tasks := []Task{
		{Name: "failing", Func: func(_ context.Context) error {
			return expected
		}},
		{Name: "slow", Func: func(ctx context.Context) error {
			select {
			case <-time.After(20 * time.Millisecond):
				finished.Store(true)
			case <-ctx.Done():
			}
			return nil
		}},
	}

	err := RunParallel(context.Background(), tasks)
	require.Error(t, err)
	assert.ErrorIs(t, err, expected)
	assert.Contains(t, err.Error(), "failing")
	assert.True(t, finished.Load(), "sibling task should run to completion")
}

func TestRunParallelN_RespectsLimit(t *testing.T) {
	t.Parallel()
	var inFlight, peak atomic.Int32

	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = Task{Name: "task", Func: func(_ context.Context) error {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return nil
		}}
	}

	require.NoError(t, RunParallelN(context.Background(), 2, tasks))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}
