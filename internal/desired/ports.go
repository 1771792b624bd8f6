package desired

import (
	"errors"
	"slices"
	"strconv"
	"strings"
)

// Protocol is a transport protocol of a port rule.
type Protocol string

const (
	TCP Protocol = "tcp"
	UDP Protocol = "udp"
)

// Protocols lists the supported protocols in canonical order.
var Protocols = []Protocol{TCP, UDP}

// PortRule is a single port/protocol pair.
type PortRule struct {
	Port     int
	Protocol Protocol
}

// PortSet holds deduplicated, ascending port lists per protocol.
type PortSet struct {
	TCP []int
	UDP []int
}

// Ports returns the ports of one protocol.
func (s PortSet) Ports(p Protocol) []int {
	if p == UDP {
		return s.UDP
	}
	return s.TCP
}

// Empty reports whether the set holds no port at all.
func (s PortSet) Empty() bool {
	return len(s.TCP) == 0 && len(s.UDP) == 0
}

// Rules returns the set as port rules, TCP first.
func (s PortSet) Rules() []PortRule {
	rules := make([]PortRule, 0, len(s.TCP)+len(s.UDP))
	for _, p := range Protocols {
		for _, port := range s.Ports(p) {
			rules = append(rules, PortRule{Port: port, Protocol: p})
		}
	}
	return rules
}

// Canonical renders the set as "tcp:80,443;udp:53". Two sets are equal
// exactly when their canonical strings are equal.
func (s PortSet) Canonical() string {
	return "tcp:" + JoinPorts(s.TCP) + ";udp:" + JoinPorts(s.UDP)
}

// JoinPorts renders ports as a comma-separated list.
func JoinPorts(ports []int) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

// NewPortSet canonicalises rules: ports are deduplicated and sorted per protocol.
func NewPortSet(rules []PortRule) PortSet {
	var s PortSet
	for _, r := range rules {
		if r.Protocol == UDP {
			s.UDP = append(s.UDP, r.Port)
		} else {
			s.TCP = append(s.TCP, r.Port)
		}
	}
	s.TCP = sortUnique(s.TCP)
	s.UDP = sortUnique(s.UDP)
	return s
}

func sortUnique(ports []int) []int {
	if len(ports) == 0 {
		return nil
	}
	out := slices.Clone(ports)
	slices.Sort(out)
	return slices.Compact(out)
}

// ParsePortList parses a comma-separated list of N, N/tcp or N/udp tokens.
// A token without protocol expands to both protocols. Empty tokens are
// ignored, so "" is the empty set.
func ParsePortList(field, list string) (PortSet, error) {
	var rules []PortRule
	var errs []error

	for _, raw := range strings.Split(list, ",") {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		parsed, err := parsePortToken(field, token)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rules = append(rules, parsed...)
	}

	if len(errs) > 0 {
		return PortSet{}, errors.Join(errs...)
	}
	return NewPortSet(rules), nil
}

func parsePortToken(field, token string) ([]PortRule, error) {
	portPart, protoPart, hasProto := strings.Cut(token, "/")

	port, err := strconv.Atoi(strings.TrimSpace(portPart))
	if err != nil {
		return nil, parseErr(field, token, "port is not numeric")
	}
	if port < 1 || port > 65535 {
		return nil, parseErr(field, token, "port must be between 1 and 65535")
	}

	if !hasProto {
		return []PortRule{{Port: port, Protocol: TCP}, {Port: port, Protocol: UDP}}, nil
	}

	switch Protocol(strings.ToLower(strings.TrimSpace(protoPart))) {
	case TCP:
		return []PortRule{{Port: port, Protocol: TCP}}, nil
	case UDP:
		return []PortRule{{Port: port, Protocol: UDP}}, nil
	default:
		return nil, parseErr(field, token, "protocol must be tcp or udp")
	}
}
