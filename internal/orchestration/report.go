package orchestration

import (
	"github.com/imamik/k8sgce/internal/reconcile"
	"github.com/imamik/k8sgce/internal/reconcile/identity"
)

// Mode is the kind of run a report describes.
type Mode string

const (
	ModeApply   Mode = "apply"
	ModePlan    Mode = "plan"
	ModeDestroy Mode = "destroy"
)

// Skipped is a phase that did not run.
type Skipped struct {
	Phase  string `json:"phase"`
	Reason string `json:"reason"`
}

// Report collects the plans or results of one run.
type Report struct {
	Mode     Mode                `json:"mode"`
	Identity identity.Identity   `json:"identity"`
	Plans    []*reconcile.Plan   `json:"plans,omitempty"`
	Results  []*reconcile.Result `json:"results,omitempty"`
	Skipped  []Skipped           `json:"skipped,omitempty"`
}

func (r *Report) addPlan(p *reconcile.Plan) {
	if p != nil {
		r.Plans = append(r.Plans, p)
	}
}

func (r *Report) addResult(res *reconcile.Result) {
	if res != nil {
		r.Results = append(r.Results, res)
	}
}

// Applied returns the number of actions applied across all results.
func (r *Report) Applied() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Applied)
	}
	return n
}

// Pending returns the number of actions planned across all plans.
func (r *Report) Pending() int {
	n := 0
	for _, p := range r.Plans {
		n += len(p.Actions)
	}
	return n
}
