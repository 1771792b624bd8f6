// Package orchestration drives the reconciliation domains of one cluster.
//
// The Reconciler runs the domains in dependency order and halts after the
// first fatal failure, so later domains never act on a half-converged
// cluster:
//  1. Identity - the cluster service account
//  2. Control plane - the control-plane node pool
//  3. Workers - the remaining node pools, then orphaned pools
//  4. Ingress - addresses, forwarding rules, firewalls
//  5. Peering - network peerings and peer firewalls
//
// Destroy runs the same domains in reverse order.
//
// # Usage
//
//	r, err := orchestration.FromConfig(scope, cfg)
//	if err != nil {
//	    return err // invalid configuration, nothing was touched
//	}
//	report, err := r.Apply(ctx)
//
// Every run probes remote state afresh, so a failed run is resumed by
// running it again.
package orchestration
