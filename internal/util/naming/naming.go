package naming

import (
	"fmt"
	"regexp"
	"strconv"
)

// PodRangeName is the name of the secondary subnetwork range holding pod IPs.
const PodRangeName = "pods"

// ServiceAccountSuffixLength is the hex suffix length of generated service account ids.
const ServiceAccountSuffixLength = 6

// Protocol names used in forwarding rule names.
const (
	ProtocolTCP = "tcp"
	ProtocolUDP = "udp"
)

var resourceName = regexp.MustCompile(`^[a-z]([-a-z0-9]*[a-z0-9])?$`)

// Valid reports whether name is a valid GCE resource name.
func Valid(name string) bool {
	return len(name) <= 63 && resourceName.MatchString(name)
}

func Network(cluster string) string {
	return cluster
}

func Subnetwork(cluster string) string {
	return cluster
}

// NodeTag is the network tag carried by every node of the cluster.
func NodeTag(cluster string) string {
	return fmt.Sprintf("%s-node", cluster)
}

// IngressBackend is the default backend service that ingress forwarding rules point at.
func IngressBackend(cluster string) string {
	return fmt.Sprintf("%s-ingress", cluster)
}

func IngressAddress(cluster string, index int) string {
	return fmt.Sprintf("%s-ingress-%d", cluster, index)
}

func IngressForwardingRule(cluster string, index int, protocol string) string {
	return fmt.Sprintf("%s-ingress-%d-%s", cluster, index, protocol)
}

func IngressFirewall(cluster string, index int) string {
	return fmt.Sprintf("%s-ingress-%d", cluster, index)
}

// Peering names the peering on the network of cluster from pointing at the network of cluster to.
func Peering(from, to string) string {
	return fmt.Sprintf("%s-to-%s", from, to)
}

// PeerFirewall names the firewall on the network of owner that admits traffic from peer.
func PeerFirewall(owner, peer string) string {
	return fmt.Sprintf("%s-allow-%s", owner, peer)
}

func InstanceGroup(cluster, pool string) string {
	return fmt.Sprintf("%s-%s", cluster, pool)
}

func Instance(cluster, pool string, index int) string {
	return fmt.Sprintf("%s-%s-%d", cluster, pool, index)
}

func ServiceAccount(cluster, hexSuffix string) string {
	return fmt.Sprintf("%s-%s", cluster, hexSuffix)
}

// Patterns are RE2 expressions accepted by list filters (name eq "...").

func IngressAddressPattern(cluster string) string {
	return fmt.Sprintf(`%s-ingress-\d+`, regexp.QuoteMeta(cluster))
}

func IngressForwardingRulePattern(cluster string) string {
	return fmt.Sprintf(`%s-ingress-\d+-(tcp|udp)`, regexp.QuoteMeta(cluster))
}

func IngressFirewallPattern(cluster string) string {
	return IngressAddressPattern(cluster)
}

func PeerFirewallPattern(owner string) string {
	return fmt.Sprintf(`%s-allow-[a-z][-a-z0-9]*`, regexp.QuoteMeta(owner))
}

func InstancePattern(cluster, pool string) string {
	return fmt.Sprintf(`%s-%s-\d+`, regexp.QuoteMeta(cluster), regexp.QuoteMeta(pool))
}

// ClusterInstancePattern matches the instances of every pool of cluster.
func ClusterInstancePattern(cluster string) string {
	return fmt.Sprintf(`%s-[a-z][-a-z0-9]*-\d+`, regexp.QuoteMeta(cluster))
}

func ServiceAccountPattern(cluster string) string {
	return fmt.Sprintf(`%s-[0-9a-f]{%d}`, regexp.QuoteMeta(cluster), ServiceAccountSuffixLength)
}

func anchored(pattern string) *regexp.Regexp {
	return regexp.MustCompile("^" + pattern + "$")
}

func parseIndex(s string) (int, bool) {
	// Leading zeros would map two names onto one index.
	if len(s) > 1 && s[0] == '0' {
		return 0, false
	}
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// ParseIngressAddress returns the group index of an address owned by cluster.
func ParseIngressAddress(cluster, name string) (int, bool) {
	m := anchored(fmt.Sprintf(`%s-ingress-(\d+)`, regexp.QuoteMeta(cluster))).FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	return parseIndex(m[1])
}

// ParseIngressFirewall returns the group index of an ingress firewall owned by cluster.
func ParseIngressFirewall(cluster, name string) (int, bool) {
	return ParseIngressAddress(cluster, name)
}

// ParseIngressForwardingRule returns the group index and protocol of a forwarding rule owned by cluster.
func ParseIngressForwardingRule(cluster, name string) (int, string, bool) {
	m := anchored(fmt.Sprintf(`%s-ingress-(\d+)-(tcp|udp)`, regexp.QuoteMeta(cluster))).FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}
	idx, ok := parseIndex(m[1])
	return idx, m[2], ok
}

// ParseInstance returns the index of an instance owned by cluster and pool.
func ParseInstance(cluster, pool, name string) (int, bool) {
	m := anchored(fmt.Sprintf(`%s-%s-(\d+)`, regexp.QuoteMeta(cluster), regexp.QuoteMeta(pool))).FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	return parseIndex(m[1])
}

// ParsePeering returns the remote cluster of a peering created by local.
func ParsePeering(local, name string) (string, bool) {
	m := anchored(fmt.Sprintf(`%s-to-([a-z][-a-z0-9]*)`, regexp.QuoteMeta(local))).FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsGeneratedServiceAccount reports whether id matches the auto-generated
// {cluster}-{6 hex} pattern.
func IsGeneratedServiceAccount(cluster, id string) bool {
	return anchored(ServiceAccountPattern(cluster)).MatchString(id)
}
