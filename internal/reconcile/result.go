package reconcile

import "fmt"

// Result is the outcome of executing a plan.
type Result struct {
	Domain   Domain     `json:"domain"`
	Applied  []Action   `json:"applied,omitempty"`
	Deferred []Deferred `json:"deferred,omitempty"`
	Drift    []Drift    `json:"drift,omitempty"`
	Denied   []Denied   `json:"denied,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
}

func newResult(p *Plan) *Result {
	return &Result{
		Domain:   p.Domain,
		Deferred: p.Deferred,
		Drift:    p.Drift,
		Denied:   p.Denied,
		Warnings: p.Warnings,
	}
}

// Merge appends everything of other to r.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Applied = append(r.Applied, other.Applied...)
	r.Deferred = append(r.Deferred, other.Deferred...)
	r.Drift = append(r.Drift, other.Drift...)
	r.Denied = append(r.Denied, other.Denied...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Failure is a step that could not be completed. Steps after it in the same
// domain were not attempted.
type Failure struct {
	Domain    Domain
	Kind      string
	Name      string
	Op        string
	LastState string
	Err       error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s: failed to %s %s %s", f.Domain, f.Op, f.Kind, f.Name)
	if f.LastState != "" {
		msg += " (last state " + f.LastState + ")"
	}
	return msg + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}
