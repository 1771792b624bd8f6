package gce

import (
	"context"

	"google.golang.org/api/compute/v1"
)

// ListAddresses implements AddressManager.
func (c *RealClient) ListAddresses(ctx context.Context, pattern string) ([]*compute.Address, error) {
	var out []*compute.Address
	err := c.compute.Addresses.List(c.loc.Project, c.loc.Region).Filter(nameFilter(pattern)).
		Pages(ctx, func(page *compute.AddressList) error {
			out = append(out, page.Items...)
			return nil
		})
	return out, err
}

// GetAddress implements AddressManager.
func (c *RealClient) GetAddress(ctx context.Context, name string) (*compute.Address, error) {
	return getOrNil(c.compute.Addresses.Get(c.loc.Project, c.loc.Region, name).Context(ctx).Do())
}

// InsertAddress implements AddressManager.
func (c *RealClient) InsertAddress(ctx context.Context, addr *compute.Address) error {
	op, err := c.compute.Addresses.Insert(c.loc.Project, c.loc.Region, addr).Context(ctx).Do()
	return c.mutate(ctx, op, err)
}

// DeleteAddress implements AddressManager. Deleting a missing address succeeds.
func (c *RealClient) DeleteAddress(ctx context.Context, name string) error {
	op, err := c.compute.Addresses.Delete(c.loc.Project, c.loc.Region, name).Context(ctx).Do()
	return ignoreNotFound(c.mutate(ctx, op, err))
}

// ListForwardingRules implements ForwardingRuleManager.
func (c *RealClient) ListForwardingRules(ctx context.Context, pattern string) ([]*compute.ForwardingRule, error) {
	var out []*compute.ForwardingRule
	err := c.compute.ForwardingRules.List(c.loc.Project, c.loc.Region).Filter(nameFilter(pattern)).
		Pages(ctx, func(page *compute.ForwardingRuleList) error {
			out = append(out, page.Items...)
			return nil
		})
	return out, err
}

// GetBackendService implements ForwardingRuleManager. A missing service
// yields nil, nil.
func (c *RealClient) GetBackendService(ctx context.Context, name string) (*compute.BackendService, error) {
	return getOrNil(c.compute.RegionBackendServices.Get(c.loc.Project, c.loc.Region, name).Context(ctx).Do())
}

// InsertForwardingRule implements ForwardingRuleManager.
func (c *RealClient) InsertForwardingRule(ctx context.Context, rule *compute.ForwardingRule) error {
	op, err := c.compute.ForwardingRules.Insert(c.loc.Project, c.loc.Region, rule).Context(ctx).Do()
	return c.mutate(ctx, op, err)
}

// DeleteForwardingRule implements ForwardingRuleManager.
func (c *RealClient) DeleteForwardingRule(ctx context.Context, name string) error {
	op, err := c.compute.ForwardingRules.Delete(c.loc.Project, c.loc.Region, name).Context(ctx).Do()
	return ignoreNotFound(c.mutate(ctx, op, err))
}
