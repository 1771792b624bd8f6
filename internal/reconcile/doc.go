// Package reconcile holds the domain-independent half of the reconciler:
// the run scope, plans of actions, the executor that applies them with
// bounded retry, and the typed results and failures every domain returns.
//
// Each domain package (ingress, peering, nodepool, identity) probes remote
// state, diffs it against the desired state into a Plan, and hands the Plan
// to Execute. Nothing is persisted between runs; re-running after a failure
// resumes from whatever remote state the previous run left behind.
//
// The reconciler assumes a single writer per cluster. Two concurrent runs
// against the same cluster may race on create and delete; no lock is taken.
package reconcile
