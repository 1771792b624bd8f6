package reconcile

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"
)

// Observer receives structured reconciliation events.
type Observer interface {
	Event(event Event)
	// WithValues returns an Observer adding key/value pairs to every event.
	WithValues(keysAndValues ...any) Observer
}

// Event is a structured reconciliation event.
type Event struct {
	Type     EventType
	Domain   Domain
	Kind     string
	Resource string
	Message  string
	Err      error
	Fields   []any
}

// EventType represents the type of reconciliation event.
type EventType string

const (
	EventDomainStarted   EventType = "domain.started"
	EventDomainCompleted EventType = "domain.completed"
	EventDomainFailed    EventType = "domain.failed"

	EventResourceCreating EventType = "resource.creating"
	EventResourceCreated  EventType = "resource.created"
	EventResourceUpdating EventType = "resource.updating"
	EventResourceUpdated  EventType = "resource.updated"
	EventResourceDeleting EventType = "resource.deleting"
	EventResourceDeleted  EventType = "resource.deleted"
	EventResourceExists   EventType = "resource.exists"
	EventResourceFailed   EventType = "resource.failed"
	EventResourceRetrying EventType = "resource.retrying"

	EventDrift    EventType = "drift"
	EventDeferred EventType = "deferred"
	EventDenied   EventType = "denied"
	EventWarning  EventType = "warning"
)

// LogObserver implements Observer on a logr.Logger. Failures are logged as
// errors and resource.exists at V(1); everything else at info.
type LogObserver struct {
	log logr.Logger
}

// NewLogObserver creates an observer writing to log.
func NewLogObserver(log logr.Logger) *LogObserver {
	return &LogObserver{log: log}
}

// Event implements Observer.
func (o *LogObserver) Event(event Event) {
	kv := []any{"event", string(event.Type)}
	if event.Domain != "" {
		kv = append(kv, "domain", string(event.Domain))
	}
	if event.Kind != "" {
		kv = append(kv, "kind", event.Kind)
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}
	kv = append(kv, event.Fields...)

	switch event.Type {
	case EventDomainFailed, EventResourceFailed:
		o.log.Error(event.Err, event.Message, kv...)
	case EventWarning, EventDenied, EventDrift, EventResourceRetrying:
		if event.Err != nil {
			kv = append(kv, "error", event.Err.Error())
		}
		o.log.Info(event.Message, kv...)
	case EventResourceExists:
		o.log.V(1).Info(event.Message, kv...)
	default:
		o.log.Info(event.Message, kv...)
	}
}

// WithValues implements Observer.
func (o *LogObserver) WithValues(keysAndValues ...any) Observer {
	return &LogObserver{log: o.log.WithValues(keysAndValues...)}
}

// Helper functions for common events

// LogDomainStart logs a domain start event.
func LogDomainStart(o Observer, d Domain) {
	o.Event(Event{Type: EventDomainStarted, Domain: d, Message: "reconciling"})
}

// LogDomainComplete logs a domain completion event.
func LogDomainComplete(o Observer, d Domain, applied int, duration time.Duration) {
	o.Event(Event{
		Type:    EventDomainCompleted,
		Domain:  d,
		Message: fmt.Sprintf("reconciled in %v", duration.Round(time.Millisecond)),
		Fields:  []any{"applied", applied},
	})
}

// LogDomainFailed logs a domain failure event.
func LogDomainFailed(o Observer, d Domain, err error) {
	o.Event(Event{Type: EventDomainFailed, Domain: d, Message: "reconciliation failed", Err: err})
}

// LogAction logs the begin or end of an action.
func LogAction(o Observer, d Domain, a Action, done bool) {
	var t EventType
	switch {
	case a.Op == OpCreate && !done:
		t = EventResourceCreating
	case a.Op == OpCreate:
		t = EventResourceCreated
	case a.Op == OpUpdate && !done:
		t = EventResourceUpdating
	case a.Op == OpUpdate:
		t = EventResourceUpdated
	case !done:
		t = EventResourceDeleting
	default:
		t = EventResourceDeleted
	}
	msg := fmt.Sprintf("%s %s", t, a.Kind)
	var fields []any
	if a.Detail != "" {
		fields = append(fields, "detail", a.Detail)
	}
	o.Event(Event{Type: t, Domain: d, Kind: a.Kind, Resource: a.Name, Message: msg, Fields: fields})
}

// LogProbeWarning logs a probe that observed nothing because of an error.
func LogProbeWarning(o Observer, d Domain, kind string, err error) {
	o.Event(Event{
		Type:    EventWarning,
		Domain:  d,
		Kind:    kind,
		Message: "probe failed, treating as nothing observed",
		Err:     err,
	})
}

// LogPlanFindings logs the deferred, drifted and denied entries of a plan.
func LogPlanFindings(o Observer, p *Plan) {
	for _, d := range p.Deferred {
		o.Event(Event{Type: EventDeferred, Domain: p.Domain, Kind: d.Kind, Resource: d.Name, Message: d.Reason})
	}
	for _, d := range p.Drift {
		o.Event(Event{
			Type: EventDrift, Domain: p.Domain, Kind: d.Kind, Resource: d.Name,
			Message: "drift detected, not corrected",
			Fields:  []any{"field", d.Field, "desired", d.Desired, "observed", d.Observed},
		})
	}
	for _, d := range p.Denied {
		o.Event(Event{Type: EventDenied, Domain: p.Domain, Kind: d.Kind, Resource: d.Name, Message: d.Reason})
	}
	for _, w := range p.Warnings {
		o.Event(Event{Type: EventWarning, Domain: p.Domain, Message: w})
	}
}
