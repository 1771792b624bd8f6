package reconcile

import (
	"slices"
	"strconv"
	"strings"

	"google.golang.org/api/compute/v1"

	"github.com/imamik/k8sgce/internal/desired"
)

// allProtocols is the firewall protocol admitting all traffic.
const allProtocols = "all"

// FirewallAllowed converts a port set into allow entries, TCP first. An
// empty set yields nil, or a single allow-all entry when emptyAllowsAll.
func FirewallAllowed(ps desired.PortSet, emptyAllowsAll bool) []*compute.FirewallAllowed {
	if ps.Empty() {
		if emptyAllowsAll {
			return []*compute.FirewallAllowed{{IPProtocol: allProtocols}}
		}
		return nil
	}
	var out []*compute.FirewallAllowed
	for _, p := range desired.Protocols {
		ports := ps.Ports(p)
		if len(ports) == 0 {
			continue
		}
		strs := make([]string, len(ports))
		for i, port := range ports {
			strs[i] = strconv.Itoa(port)
		}
		out = append(out, &compute.FirewallAllowed{IPProtocol: string(p), Ports: strs})
	}
	return out
}

// AllowedCanonical renders allow entries in canonical port set form, or
// "all" when any entry admits all traffic. Entries that cannot be parsed
// render verbatim so they never compare equal to a desired set.
func AllowedCanonical(allowed []*compute.FirewallAllowed) string {
	var rules []desired.PortRule
	var odd []string
	for _, a := range allowed {
		proto := strings.ToLower(a.IPProtocol)
		if proto == allProtocols {
			return allProtocols
		}
		if proto != string(desired.TCP) && proto != string(desired.UDP) {
			odd = append(odd, proto)
			continue
		}
		for _, p := range a.Ports {
			port, err := strconv.Atoi(p)
			if err != nil {
				odd = append(odd, proto+"/"+p)
				continue
			}
			rules = append(rules, desired.PortRule{Port: port, Protocol: desired.Protocol(proto)})
		}
	}
	s := desired.NewPortSet(rules).Canonical()
	if len(odd) > 0 {
		slices.Sort(odd)
		s += ";other:" + strings.Join(odd, ",")
	}
	return s
}

// FirewallSignature summarises the fields the reconciler manages: allowed
// ports, source ranges and target tags.
func FirewallSignature(fw *compute.Firewall) string {
	sources := slices.Clone(fw.SourceRanges)
	slices.Sort(sources)
	tags := slices.Clone(fw.TargetTags)
	slices.Sort(tags)
	return AllowedCanonical(fw.Allowed) + " from " + strings.Join(sources, ",") + " to " + strings.Join(tags, ",")
}
