package testing

import (
	"context"
	"testing"
	"time"

	"github.com/imamik/k8sgce/internal/config"
)

// TestContext returns a context with a reasonable timeout for tests.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// FastTimeouts returns timeouts with millisecond delays and few poll attempts.
func FastTimeouts() config.Timeouts {
	return config.Timeouts{
		Operation:         time.Second,
		OperationPoll:     time.Millisecond,
		PollInterval:      time.Millisecond,
		PollAttempts:      3,
		RetryMaxAttempts:  5,
		RetryInitialDelay: time.Millisecond,
	}
}
