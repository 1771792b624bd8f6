// Package peering reconciles network peerings between the local cluster and
// declared remote clusters.
//
// A link local<->remote converges when the remote network exists, both
// {local}-to-{remote} and {remote}-to-{local} peerings are ACTIVE, and the
// firewall {remote}-allow-{local} on the remote network admits the local node
// and pod ranges on the peer port set. A link whose remote network is absent
// or whose ranges overlap is deferred. Peerings to clusters no longer
// declared are kept while the remote network exists.
package peering
