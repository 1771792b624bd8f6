package reconcile

import "slices"

// Surplus returns the observed indices outside 0..desired-1, highest first.
// It is the exact set difference observed - desired and does not assume
// observed indices are contiguous.
func Surplus(observed []int, desired int) []int {
	var out []int
	for _, i := range observed {
		if i >= desired {
			out = append(out, i)
		}
	}
	slices.Sort(out)
	slices.Reverse(out)
	return slices.Compact(out)
}

// Gaps returns the indices missing from observed below its maximum.
// Observed indices are expected to be contiguous from 0.
func Gaps(observed []int) []int {
	if len(observed) == 0 {
		return nil
	}
	present := make(map[int]bool, len(observed))
	highest := 0
	for _, i := range observed {
		present[i] = true
		highest = max(highest, i)
	}
	var gaps []int
	for i := 0; i < highest; i++ {
		if !present[i] {
			gaps = append(gaps, i)
		}
	}
	return gaps
}
