package gce

import (
	"context"

	"google.golang.org/api/compute/v1"
)

// GetNetwork implements NetworkManager.
func (c *RealClient) GetNetwork(ctx context.Context, name string) (*compute.Network, error) {
	return getOrNil(c.compute.Networks.Get(c.loc.Project, name).Context(ctx).Do())
}

// GetSubnetwork implements NetworkManager.
func (c *RealClient) GetSubnetwork(ctx context.Context, name string) (*compute.Subnetwork, error) {
	return getOrNil(c.compute.Subnetworks.Get(c.loc.Project, c.loc.Region, name).Context(ctx).Do())
}

// AddPeering implements NetworkManager.
func (c *RealClient) AddPeering(ctx context.Context, network string, peering *compute.NetworkPeering) error {
	req := &compute.NetworksAddPeeringRequest{NetworkPeering: peering}
	op, err := c.compute.Networks.AddPeering(c.loc.Project, network, req).Context(ctx).Do()
	return c.mutate(ctx, op, err)
}

// RemovePeering implements NetworkManager.
func (c *RealClient) RemovePeering(ctx context.Context, network, peering string) error {
	req := &compute.NetworksRemovePeeringRequest{Name: peering}
	op, err := c.compute.Networks.RemovePeering(c.loc.Project, network, req).Context(ctx).Do()
	return ignoreNotFound(c.mutate(ctx, op, err))
}
