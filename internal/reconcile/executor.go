package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/imamik/k8sgce/internal/platform/gce"
	"github.com/imamik/k8sgce/internal/util/retry"
)

// Execute applies the actions of p in order. Every Apply is retried with
// exponential backoff while the error is transient. The first action that
// fails stops the plan and is returned as a *Failure together with the
// partial result; an insert that finds its resource already present counts
// as applied.
func Execute(ctx context.Context, s Scope, p *Plan) (*Result, error) {
	start := time.Now()
	res := newResult(p)
	LogPlanFindings(s.Observer, p)
	s.Metrics.RecordDrift(string(p.Domain), len(p.Drift))

	for _, a := range p.Actions {
		if err := executeAction(ctx, s, p.Domain, a); err != nil {
			s.Metrics.RecordDomain(string(p.Domain), "failure", time.Since(start))
			return res, err
		}
		res.Applied = append(res.Applied, a)
	}

	s.Metrics.RecordDomain(string(p.Domain), "success", time.Since(start))
	return res, nil
}

func executeAction(ctx context.Context, s Scope, d Domain, a Action) error {
	LogAction(s.Observer, d, a, false)

	err := retry.WithExponentialBackoff(ctx, func() error {
		err := a.Apply(ctx)
		if a.Op == OpCreate && gce.IsAlreadyExists(err) {
			s.Observer.Event(Event{Type: EventResourceExists, Domain: d, Kind: a.Kind, Resource: a.Name, Message: "already exists"})
			return nil
		}
		return err
	},
		retry.WithMaxAttempts(s.Timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(s.Timeouts.RetryInitialDelay),
		retry.WithRetryable(gce.IsRetryable),
		retry.WithOnRetry(func(attempt int, delay time.Duration, err error) {
			s.Metrics.RecordRetry(string(d), a.Kind)
			s.Observer.Event(Event{
				Type: EventResourceRetrying, Domain: d, Kind: a.Kind, Resource: a.Name,
				Message: "transient error, retrying", Err: err,
				Fields: []any{"attempt", attempt, "delay", delay.String()},
			})
		}),
	)
	if err == nil && a.Wait != nil {
		err = a.Wait(ctx)
	}

	if err != nil {
		s.Metrics.RecordAction(string(d), a.Kind, string(a.Op), "failure")
		f := &Failure{Domain: d, Kind: a.Kind, Name: a.Name, Op: string(a.Op), LastState: a.State, Err: err}
		s.Observer.Event(Event{Type: EventResourceFailed, Domain: d, Kind: a.Kind, Resource: a.Name, Message: "action failed", Err: err})
		return f
	}

	s.Metrics.RecordAction(string(d), a.Kind, string(a.Op), "success")
	LogAction(s.Observer, d, a, true)
	return nil
}

// IsFailure reports whether err carries a *Failure and returns it.
func IsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
