package nodepool

import "fmt"

// InstanceState is the lifecycle state of a pool instance.
type InstanceState string

const (
	StateAbsent        InstanceState = "ABSENT"
	StateCreating      InstanceState = "CREATING"
	StatePresent       InstanceState = "PRESENT"
	StateDrifted       InstanceState = "DRIFTED"
	StatePendingDelete InstanceState = "PENDING_DELETE"
)

var transitions = map[InstanceState][]InstanceState{
	StateAbsent:        {StateCreating},
	StateCreating:      {StatePresent},
	StatePresent:       {StateDrifted, StatePendingDelete},
	StatePendingDelete: {StateAbsent},
}

// CanTransition reports whether the reconciler may move an instance from s to next.
func (s InstanceState) CanTransition(next InstanceState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the reconciler never moves an instance out of s.
func (s InstanceState) Terminal() bool {
	return len(transitions[s]) == 0
}

// transition returns next, or an error if the move is not allowed.
func transition(from, next InstanceState) (InstanceState, error) {
	if !from.CanTransition(next) {
		return from, fmt.Errorf("invalid instance transition %s -> %s", from, next)
	}
	return next, nil
}
