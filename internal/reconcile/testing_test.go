package reconcile

import (
	"time"

	"github.com/imamik/k8sgce/internal/config"
	"github.com/imamik/k8sgce/internal/platform/gce"
	"github.com/imamik/k8sgce/internal/platform/gce/fakes"
)

func fastTimeouts() config.Timeouts {
	return config.Timeouts{
		Operation:         time.Second,
		OperationPoll:     time.Millisecond,
		PollInterval:      time.Millisecond,
		PollAttempts:      3,
		RetryMaxAttempts:  5,
		RetryInitialDelay: time.Millisecond,
	}
}

func testScope() Scope {
	cloud := fakes.NewFakeClient(gce.Location{Project: "p", Region: "r", Zone: "r-a"})
	return NewScope("alpha", cloud).WithTimeouts(fastTimeouts())
}
