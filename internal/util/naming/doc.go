// Package naming provides the deterministic naming functions for cluster resources.
//
// Every remote resource the reconcilers manage is identified by a name derived
// from the owning cluster: {cluster}-ingress-{index} for ingress addresses and
// firewalls, {cluster}-{pool}-{index} for node instances, {from}-to-{to} for
// network peerings. Because names are deterministic, existence and ownership
// can be decided from the name alone, without a separate identity store.
//
// Each name function has a matching Parse function used by the pruners: a
// resource is only considered owned when its name parses back under the
// owning cluster.
package naming
