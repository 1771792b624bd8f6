// Package nodepool reconciles node pool instance sets.
//
// Pool p of cluster c owns the instance group {c}-{p} and the instances
// {c}-{p}-{i} for i in 0..count-1. Missing instances are created, attached to
// the group and, once registered as nodes, given the pool's labels and
// taints. Instances whose shape differs from the spec are reported as
// drifted and left alone. Scale-down removes the highest index first,
// detaching it from the group before deleting it.
package nodepool
