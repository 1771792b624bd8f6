package gce

import (
	"context"

	"google.golang.org/api/compute/v1"
)

// ListInstances implements InstanceManager.
func (c *RealClient) ListInstances(ctx context.Context, pattern string) ([]*compute.Instance, error) {
	var out []*compute.Instance
	err := c.compute.Instances.List(c.loc.Project, c.loc.Zone).Filter(nameFilter(pattern)).
		Pages(ctx, func(page *compute.InstanceList) error {
			out = append(out, page.Items...)
			return nil
		})
	return out, err
}

// GetInstance implements InstanceManager.
func (c *RealClient) GetInstance(ctx context.Context, name string) (*compute.Instance, error) {
	return getOrNil(c.compute.Instances.Get(c.loc.Project, c.loc.Zone, name).Context(ctx).Do())
}

// InsertInstance implements InstanceManager.
func (c *RealClient) InsertInstance(ctx context.Context, inst *compute.Instance) error {
	op, err := c.compute.Instances.Insert(c.loc.Project, c.loc.Zone, inst).Context(ctx).Do()
	return c.mutate(ctx, op, err)
}

// DeleteInstance implements InstanceManager.
func (c *RealClient) DeleteInstance(ctx context.Context, name string) error {
	op, err := c.compute.Instances.Delete(c.loc.Project, c.loc.Zone, name).Context(ctx).Do()
	return ignoreNotFound(c.mutate(ctx, op, err))
}

// GetDisk implements InstanceManager.
func (c *RealClient) GetDisk(ctx context.Context, name string) (*compute.Disk, error) {
	return getOrNil(c.compute.Disks.Get(c.loc.Project, c.loc.Zone, name).Context(ctx).Do())
}

// GetInstanceGroup implements InstanceGroupManager.
func (c *RealClient) GetInstanceGroup(ctx context.Context, name string) (*compute.InstanceGroup, error) {
	return getOrNil(c.compute.InstanceGroups.Get(c.loc.Project, c.loc.Zone, name).Context(ctx).Do())
}

// InsertInstanceGroup implements InstanceGroupManager.
func (c *RealClient) InsertInstanceGroup(ctx context.Context, group *compute.InstanceGroup) error {
	op, err := c.compute.InstanceGroups.Insert(c.loc.Project, c.loc.Zone, group).Context(ctx).Do()
	return c.mutate(ctx, op, err)
}

// DeleteInstanceGroup implements InstanceGroupManager.
func (c *RealClient) DeleteInstanceGroup(ctx context.Context, name string) error {
	op, err := c.compute.InstanceGroups.Delete(c.loc.Project, c.loc.Zone, name).Context(ctx).Do()
	return ignoreNotFound(c.mutate(ctx, op, err))
}

// ListInstanceGroupMembers implements InstanceGroupManager.
func (c *RealClient) ListInstanceGroupMembers(ctx context.Context, group string) ([]string, error) {
	var names []string
	req := &compute.InstanceGroupsListInstancesRequest{InstanceState: "ALL"}
	err := c.compute.InstanceGroups.ListInstances(c.loc.Project, c.loc.Zone, group, req).
		Pages(ctx, func(page *compute.InstanceGroupsListInstances) error {
			for _, item := range page.Items {
				names = append(names, ResourceName(item.Instance))
			}
			return nil
		})
	if IsNotFound(err) {
		return nil, nil
	}
	return names, err
}

// AddInstanceGroupMembers implements InstanceGroupManager.
func (c *RealClient) AddInstanceGroupMembers(ctx context.Context, group string, instances []string) error {
	req := &compute.InstanceGroupsAddInstancesRequest{Instances: c.instanceRefs(instances)}
	op, err := c.compute.InstanceGroups.AddInstances(c.loc.Project, c.loc.Zone, group, req).Context(ctx).Do()
	return c.mutate(ctx, op, err)
}

// RemoveInstanceGroupMembers implements InstanceGroupManager.
func (c *RealClient) RemoveInstanceGroupMembers(ctx context.Context, group string, instances []string) error {
	req := &compute.InstanceGroupsRemoveInstancesRequest{Instances: c.instanceRefs(instances)}
	op, err := c.compute.InstanceGroups.RemoveInstances(c.loc.Project, c.loc.Zone, group, req).Context(ctx).Do()
	return ignoreNotFound(c.mutate(ctx, op, err))
}

func (c *RealClient) instanceRefs(names []string) []*compute.InstanceReference {
	refs := make([]*compute.InstanceReference, len(names))
	for i, n := range names {
		refs[i] = &compute.InstanceReference{Instance: InstanceURL(c.loc.Project, c.loc.Zone, n)}
	}
	return refs
}
