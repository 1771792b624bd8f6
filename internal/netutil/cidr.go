// Package netutil provides IPv4 range helpers used when peering cluster networks.
package netutil

import (
	"fmt"
	"net/netip"
)

// ParsePrefixes parses CIDR strings, masking host bits.
func ParsePrefixes(cidrs []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		p, err := netip.ParsePrefix(c)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", c, err)
		}
		out = append(out, p.Masked())
	}
	return out, nil
}

// FirstOverlap returns the first pair of ranges from a and b that overlap.
func FirstOverlap(a, b []string) (string, string, bool, error) {
	pa, err := ParsePrefixes(a)
	if err != nil {
		return "", "", false, err
	}
	pb, err := ParsePrefixes(b)
	if err != nil {
		return "", "", false, err
	}
	for i, x := range pa {
		for j, y := range pb {
			if x.Overlaps(y) {
				return a[i], b[j], true, nil
			}
		}
	}
	return "", "", false, nil
}
