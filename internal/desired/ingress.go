package desired

import (
	"errors"
	"fmt"
	"strings"
)

// IngressGroup is one public ingress path: an address plus up to one
// forwarding rule per protocol and one firewall allowance.
type IngressGroup struct {
	Index int
	PortSet
}

// FirewallAllowance is the firewall derived from an ingress group.
type FirewallAllowance struct {
	Index int
	PortSet
}

// Firewall derives the group's firewall allowance.
func (g IngressGroup) Firewall() FirewallAllowance {
	return FirewallAllowance{Index: g.Index, PortSet: g.PortSet}
}

// ParseIngress parses the ingress spec. Groups are separated by ';' and
// indexed by position; an empty segment is an empty group. An empty spec
// yields no groups.
func ParseIngress(spec string) ([]IngressGroup, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}

	segments := strings.Split(spec, ";")
	groups := make([]IngressGroup, 0, len(segments))
	var errs []error

	for i, segment := range segments {
		set, err := ParsePortList(fmt.Sprintf("ingress group %d", i), segment)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		groups = append(groups, IngressGroup{Index: i, PortSet: set})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return groups, nil
}
