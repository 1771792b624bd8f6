package gce

import (
	"context"

	"google.golang.org/api/compute/v1"
)

// ListFirewalls implements FirewallManager.
func (c *RealClient) ListFirewalls(ctx context.Context, pattern string) ([]*compute.Firewall, error) {
	var out []*compute.Firewall
	err := c.compute.Firewalls.List(c.loc.Project).Filter(nameFilter(pattern)).
		Pages(ctx, func(page *compute.FirewallList) error {
			out = append(out, page.Items...)
			return nil
		})
	return out, err
}

// GetFirewall implements FirewallManager.
func (c *RealClient) GetFirewall(ctx context.Context, name string) (*compute.Firewall, error) {
	return getOrNil(c.compute.Firewalls.Get(c.loc.Project, name).Context(ctx).Do())
}

// InsertFirewall implements FirewallManager.
func (c *RealClient) InsertFirewall(ctx context.Context, fw *compute.Firewall) error {
	op, err := c.compute.Firewalls.Insert(c.loc.Project, fw).Context(ctx).Do()
	return c.mutate(ctx, op, err)
}

// PatchFirewall implements FirewallManager.
func (c *RealClient) PatchFirewall(ctx context.Context, name string, fw *compute.Firewall) error {
	op, err := c.compute.Firewalls.Patch(c.loc.Project, name, fw).Context(ctx).Do()
	return c.mutate(ctx, op, err)
}

// DeleteFirewall implements FirewallManager.
func (c *RealClient) DeleteFirewall(ctx context.Context, name string) error {
	op, err := c.compute.Firewalls.Delete(c.loc.Project, name).Context(ctx).Do()
	return ignoreNotFound(c.mutate(ctx, op, err))
}
