package reconcile

import (
	"context"
	"fmt"
)

// Domain names a reconciliation domain.
type Domain string

const (
	DomainIdentity  Domain = "identity"
	DomainIngress   Domain = "ingress"
	DomainPeering   Domain = "peering"
	DomainNodePools Domain = "nodepools"
)

// Domains lists every domain in reconciliation order.
var Domains = []Domain{DomainIdentity, DomainNodePools, DomainIngress, DomainPeering}

// ParseDomain resolves a domain name.
func ParseDomain(s string) (Domain, error) {
	for _, d := range Domains {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown domain %q (want identity, nodepools, ingress or peering)", s)
}

// Op is the kind of change an action makes.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Action is one mutating step. Actions of a plan run in order; a failed
// action stops the plan so no dependent step runs.
type Action struct {
	Op     Op     `json:"op"`
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"`

	// State is the lifecycle state the resource is in while the action
	// runs; it is reported as the last state of a failure.
	State string `json:"state,omitempty"`

	// Apply performs the mutation. It is retried on transient errors.
	Apply func(ctx context.Context) error `json:"-"`

	// Wait, if set, runs once after Apply succeeds and is not retried.
	Wait func(ctx context.Context) error `json:"-"`
}

func (a Action) String() string {
	s := fmt.Sprintf("%s %s %s", a.Op, a.Kind, a.Name)
	if a.Detail != "" {
		s += " (" + a.Detail + ")"
	}
	return s
}

// Deferred is a desired resource whose preconditions are not met yet.
type Deferred struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Drift is an observed attribute that differs from the desired one. Drift
// is reported, never corrected.
type Drift struct {
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Field    string `json:"field"`
	Desired  string `json:"desired"`
	Observed string `json:"observed"`
}

// Denied is a deletion the safety guard refused.
type Denied struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Plan is the computed set of changes of one domain.
type Plan struct {
	Domain   Domain     `json:"domain"`
	Actions  []Action   `json:"actions,omitempty"`
	Deferred []Deferred `json:"deferred,omitempty"`
	Drift    []Drift    `json:"drift,omitempty"`
	Denied   []Denied   `json:"denied,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
}

// NewPlan returns an empty plan for d.
func NewPlan(d Domain) *Plan {
	return &Plan{Domain: d}
}

// Add appends actions.
func (p *Plan) Add(actions ...Action) {
	p.Actions = append(p.Actions, actions...)
}

// Defer records a deferred resource.
func (p *Plan) Defer(kind, name, reason string) {
	p.Deferred = append(p.Deferred, Deferred{Kind: kind, Name: name, Reason: reason})
}

// Deny records a refused deletion.
func (p *Plan) Deny(kind, name, reason string) {
	p.Denied = append(p.Denied, Denied{Kind: kind, Name: name, Reason: reason})
}

// Warn records a warning.
func (p *Plan) Warn(format string, args ...any) {
	p.Warnings = append(p.Warnings, fmt.Sprintf(format, args...))
}

// Merge appends everything of other to p.
func (p *Plan) Merge(other *Plan) {
	if other == nil {
		return
	}
	p.Actions = append(p.Actions, other.Actions...)
	p.Deferred = append(p.Deferred, other.Deferred...)
	p.Drift = append(p.Drift, other.Drift...)
	p.Denied = append(p.Denied, other.Denied...)
	p.Warnings = append(p.Warnings, other.Warnings...)
}

// Converged reports whether the plan makes no change.
func (p *Plan) Converged() bool {
	return len(p.Actions) == 0
}
