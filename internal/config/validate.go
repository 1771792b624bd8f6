package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/imamik/k8sgce/internal/util/naming"
)

// maxClusterNameLength leaves room for the longest derived name,
// {cluster}-ingress-{index}-{proto}, within GCE's 63 character limit.
const maxClusterNameLength = 40

// Validate checks the structural configuration. Token-level checks of the
// ingress spec and the pool table happen in package desired.
func (c *Config) Validate() error {
	if c.ClusterName == "" {
		return fmt.Errorf("cluster_name is required")
	}
	if !naming.Valid(c.ClusterName) || len(c.ClusterName) > maxClusterNameLength {
		return fmt.Errorf("cluster_name %q must be a lowercase RFC 1035 label of at most %d characters", c.ClusterName, maxClusterNameLength)
	}
	if c.Project == "" {
		return fmt.Errorf("project is required")
	}
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if c.Zone == "" {
		return fmt.Errorf("zone is required")
	}
	if !strings.HasPrefix(c.Zone, c.Region+"-") {
		return fmt.Errorf("zone %q is not in region %q", c.Zone, c.Region)
	}

	if err := c.validateIngress(); err != nil {
		return fmt.Errorf("ingress validation failed: %w", err)
	}
	if err := c.validatePeering(); err != nil {
		return fmt.Errorf("peering validation failed: %w", err)
	}
	if err := c.validateNodePools(); err != nil {
		return fmt.Errorf("node pool validation failed: %w", err)
	}
	return nil
}

func (c *Config) validateIngress() error {
	if c.Ingress.Backend != "" && !naming.Valid(c.Ingress.Backend) && !strings.HasPrefix(c.Ingress.Backend, "https://") {
		return fmt.Errorf("backend %q is neither a resource name nor a URL", c.Ingress.Backend)
	}
	for _, cidr := range c.Ingress.SourceRanges {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("invalid source range %q: %w", cidr, err)
		}
	}
	return nil
}

func (c *Config) validatePeering() error {
	seen := make(map[string]bool, len(c.Peering.Peers))
	for _, peer := range c.Peering.Peers {
		if !naming.Valid(peer) {
			return fmt.Errorf("peer %q is not a valid cluster name", peer)
		}
		if peer == c.ClusterName {
			return fmt.Errorf("cluster cannot peer with itself")
		}
		if seen[peer] {
			return fmt.Errorf("peer %q listed twice", peer)
		}
		seen[peer] = true
	}
	return nil
}

func (c *Config) validateNodePools() error {
	seen := make(map[string]bool, len(c.NodePools.Names))
	for _, pool := range c.NodePools.Names {
		if !naming.Valid(pool) {
			return fmt.Errorf("pool name %q is not a valid resource name", pool)
		}
		if seen[pool] {
			return fmt.Errorf("pool %q listed twice", pool)
		}
		seen[pool] = true
	}
	if c.NodePools.ControlPlane != "" && !seen[c.NodePools.ControlPlane] {
		return fmt.Errorf("control_plane pool %q is not listed in names", c.NodePools.ControlPlane)
	}
	if len(c.NodePools.Names) > 0 && c.NodePools.Image == "" {
		return fmt.Errorf("image is required when node pools are configured")
	}
	return nil
}
