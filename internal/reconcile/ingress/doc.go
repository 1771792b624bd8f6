// Package ingress reconciles public ingress paths: per group one regional
// address, up to one forwarding rule per protocol, and one firewall rule.
//
// Groups are identified by their position in the ingress spec. Group i owns
// {cluster}-ingress-i (address and firewall) and {cluster}-ingress-i-{tcp,udp}
// (forwarding rules). Resources of indices no longer desired are pruned.
package ingress
