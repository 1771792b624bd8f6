package fakes

import (
	"context"
	"fmt"
	"slices"

	"google.golang.org/api/compute/v1"
	iam "google.golang.org/api/iam/v1"

	"github.com/imamik/k8sgce/internal/platform/gce"
)

func (f *FakeClient) ListAddresses(_ context.Context, pattern string) ([]*compute.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.readFailure("ListAddresses", pattern); err != nil {
		return nil, err
	}
	return list(f.Addresses, pattern)
}

func (f *FakeClient) GetAddress(_ context.Context, name string) (*compute.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return get(f.Addresses, name), nil
}

func (f *FakeClient) InsertAddress(_ context.Context, addr *compute.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("InsertAddress", addr.Name); err != nil {
		return err
	}
	if _, ok := f.Addresses[addr.Name]; ok {
		return alreadyExists("address", addr.Name)
	}
	f.nextIP++
	a := *addr
	a.Address = fmt.Sprintf("203.0.113.%d", f.nextIP)
	a.Status = "RESERVED"
	f.Addresses[a.Name] = &a
	return nil
}

func (f *FakeClient) DeleteAddress(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteAddress", name); err != nil {
		return err
	}
	delete(f.Addresses, name)
	return nil
}

func (f *FakeClient) ListForwardingRules(_ context.Context, pattern string) ([]*compute.ForwardingRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.readFailure("ListForwardingRules", pattern); err != nil {
		return nil, err
	}
	return list(f.ForwardingRules, pattern)
}

func (f *FakeClient) InsertForwardingRule(_ context.Context, rule *compute.ForwardingRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("InsertForwardingRule", rule.Name); err != nil {
		return err
	}
	if _, ok := f.ForwardingRules[rule.Name]; ok {
		return alreadyExists("forwarding rule", rule.Name)
	}
	r := *rule
	r.Ports = slices.Clone(rule.Ports)
	f.ForwardingRules[r.Name] = &r
	return nil
}

func (f *FakeClient) GetBackendService(_ context.Context, name string) (*compute.BackendService, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.readFailure("GetBackendService", name); err != nil {
		return nil, err
	}
	return get(f.BackendServices, name), nil
}

func (f *FakeClient) DeleteForwardingRule(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteForwardingRule", name); err != nil {
		return err
	}
	delete(f.ForwardingRules, name)
	return nil
}

func (f *FakeClient) ListFirewalls(_ context.Context, pattern string) ([]*compute.Firewall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.readFailure("ListFirewalls", pattern); err != nil {
		return nil, err
	}
	return list(f.Firewalls, pattern)
}

func (f *FakeClient) GetFirewall(_ context.Context, name string) (*compute.Firewall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return get(f.Firewalls, name), nil
}

func (f *FakeClient) InsertFirewall(_ context.Context, fw *compute.Firewall) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("InsertFirewall", fw.Name); err != nil {
		return err
	}
	if _, ok := f.Firewalls[fw.Name]; ok {
		return alreadyExists("firewall", fw.Name)
	}
	c := *fw
	f.Firewalls[c.Name] = &c
	return nil
}

func (f *FakeClient) PatchFirewall(_ context.Context, name string, fw *compute.Firewall) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("PatchFirewall", name); err != nil {
		return err
	}
	existing, ok := f.Firewalls[name]
	if !ok {
		return NotFound("firewall", name)
	}
	c := *existing
	c.Allowed = fw.Allowed
	if fw.SourceRanges != nil {
		c.SourceRanges = fw.SourceRanges
	}
	if fw.TargetTags != nil {
		c.TargetTags = fw.TargetTags
	}
	f.Firewalls[name] = &c
	return nil
}

func (f *FakeClient) DeleteFirewall(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteFirewall", name); err != nil {
		return err
	}
	delete(f.Firewalls, name)
	return nil
}

func (f *FakeClient) GetNetwork(_ context.Context, name string) (*compute.Network, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.readFailure("GetNetwork", name); err != nil {
		return nil, err
	}
	n := get(f.Networks, name)
	if n != nil {
		n.Peerings = clonePeerings(n.Peerings)
	}
	return n, nil
}

func (f *FakeClient) GetSubnetwork(_ context.Context, name string) (*compute.Subnetwork, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return get(f.Subnetworks, name), nil
}

func (f *FakeClient) AddPeering(_ context.Context, network string, peering *compute.NetworkPeering) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AddPeering", network+"/"+peering.Name); err != nil {
		return err
	}
	n, ok := f.Networks[network]
	if !ok {
		return NotFound("network", network)
	}
	for _, p := range n.Peerings {
		if p.Name == peering.Name {
			return alreadyExists("peering", peering.Name)
		}
	}
	p := *peering
	n.Peerings = append(n.Peerings, &p)
	f.refreshPeeringStates()
	return nil
}

func (f *FakeClient) RemovePeering(_ context.Context, network, peering string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RemovePeering", network+"/"+peering); err != nil {
		return err
	}
	n, ok := f.Networks[network]
	if !ok {
		return nil
	}
	n.Peerings = slices.DeleteFunc(n.Peerings, func(p *compute.NetworkPeering) bool {
		return p.Name == peering
	})
	f.refreshPeeringStates()
	return nil
}

// refreshPeeringStates marks a peering ACTIVE when the peer network exists
// and peers back, INACTIVE otherwise.
func (f *FakeClient) refreshPeeringStates() {
	for name, n := range f.Networks {
		for _, p := range n.Peerings {
			p.State = "INACTIVE"
			remote, ok := f.Networks[gce.ResourceName(p.Network)]
			if !ok {
				continue
			}
			for _, back := range remote.Peerings {
				if gce.ResourceName(back.Network) == name {
					p.State = "ACTIVE"
				}
			}
		}
	}
}

func clonePeerings(in []*compute.NetworkPeering) []*compute.NetworkPeering {
	out := make([]*compute.NetworkPeering, len(in))
	for i, p := range in {
		c := *p
		out[i] = &c
	}
	return out
}

func (f *FakeClient) ListInstances(_ context.Context, pattern string) ([]*compute.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.readFailure("ListInstances", pattern); err != nil {
		return nil, err
	}
	return list(f.Instances, pattern)
}

func (f *FakeClient) GetInstance(_ context.Context, name string) (*compute.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return get(f.Instances, name), nil
}

// InsertInstance stores the instance and creates its boot disk from the
// first disk's initialize params.
func (f *FakeClient) InsertInstance(_ context.Context, inst *compute.Instance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("InsertInstance", inst.Name); err != nil {
		return err
	}
	if _, ok := f.Instances[inst.Name]; ok {
		return alreadyExists("instance", inst.Name)
	}
	c := *inst
	c.Status = f.InstanceStatus
	c.Disks = nil
	for _, d := range inst.Disks {
		disk := *d
		if d.InitializeParams != nil {
			name := d.InitializeParams.DiskName
			if name == "" {
				name = inst.Name
			}
			f.Disks[name] = &compute.Disk{
				Name:   name,
				SizeGb: d.InitializeParams.DiskSizeGb,
				Type:   d.InitializeParams.DiskType,
			}
			disk.Source = fmt.Sprintf("projects/%s/zones/%s/disks/%s", f.loc.Project, f.loc.Zone, name)
			disk.DiskSizeGb = d.InitializeParams.DiskSizeGb
		}
		c.Disks = append(c.Disks, &disk)
	}
	f.Instances[c.Name] = &c
	return nil
}

// DeleteInstance removes the instance, its auto-delete disks and its group
// memberships.
func (f *FakeClient) DeleteInstance(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteInstance", name); err != nil {
		return err
	}
	inst, ok := f.Instances[name]
	if !ok {
		return nil
	}
	for _, d := range inst.Disks {
		if d.AutoDelete {
			delete(f.Disks, gce.ResourceName(d.Source))
		}
	}
	delete(f.Instances, name)
	for g, members := range f.Members {
		f.Members[g] = slices.DeleteFunc(members, func(m string) bool { return m == name })
	}
	return nil
}

func (f *FakeClient) GetDisk(_ context.Context, name string) (*compute.Disk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return get(f.Disks, name), nil
}

func (f *FakeClient) GetInstanceGroup(_ context.Context, name string) (*compute.InstanceGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.readFailure("GetInstanceGroup", name); err != nil {
		return nil, err
	}
	return get(f.InstanceGroups, name), nil
}

func (f *FakeClient) InsertInstanceGroup(_ context.Context, group *compute.InstanceGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("InsertInstanceGroup", group.Name); err != nil {
		return err
	}
	if _, ok := f.InstanceGroups[group.Name]; ok {
		return alreadyExists("instance group", group.Name)
	}
	c := *group
	f.InstanceGroups[c.Name] = &c
	return nil
}

func (f *FakeClient) DeleteInstanceGroup(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteInstanceGroup", name); err != nil {
		return err
	}
	delete(f.InstanceGroups, name)
	delete(f.Members, name)
	return nil
}

func (f *FakeClient) ListInstanceGroupMembers(_ context.Context, group string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.readFailure("ListInstanceGroupMembers", group); err != nil {
		return nil, err
	}
	members := slices.Clone(f.Members[group])
	slices.Sort(members)
	return members, nil
}

func (f *FakeClient) AddInstanceGroupMembers(_ context.Context, group string, instances []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inst := range instances {
		if err := f.record("AddInstanceGroupMembers", group+"/"+inst); err != nil {
			return err
		}
	}
	if _, ok := f.InstanceGroups[group]; !ok {
		return NotFound("instance group", group)
	}
	for _, inst := range instances {
		if _, ok := f.Instances[inst]; !ok {
			return NotFound("instance", inst)
		}
		if !slices.Contains(f.Members[group], inst) {
			f.Members[group] = append(f.Members[group], inst)
		}
	}
	return nil
}

func (f *FakeClient) RemoveInstanceGroupMembers(_ context.Context, group string, instances []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inst := range instances {
		if err := f.record("RemoveInstanceGroupMembers", group+"/"+inst); err != nil {
			return err
		}
	}
	f.Members[group] = slices.DeleteFunc(f.Members[group], func(m string) bool {
		return slices.Contains(instances, m)
	})
	return nil
}

func (f *FakeClient) ListServiceAccounts(_ context.Context) ([]*iam.ServiceAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.readFailure("ListServiceAccounts", ""); err != nil {
		return nil, err
	}
	return list(f.ServiceAccounts, ".*")
}

func (f *FakeClient) GetServiceAccount(_ context.Context, accountID string) (*iam.ServiceAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.readFailure("GetServiceAccount", accountID); err != nil {
		return nil, err
	}
	return get(f.ServiceAccounts, accountID), nil
}

func (f *FakeClient) CreateServiceAccount(_ context.Context, accountID, displayName string) (*iam.ServiceAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateServiceAccount", accountID); err != nil {
		return nil, err
	}
	if _, ok := f.ServiceAccounts[accountID]; ok {
		return nil, alreadyExists("service account", accountID)
	}
	sa := &iam.ServiceAccount{
		Email:       gce.ServiceAccountEmail(f.loc.Project, accountID),
		DisplayName: displayName,
		ProjectId:   f.loc.Project,
	}
	f.ServiceAccounts[accountID] = sa
	c := *sa
	return &c, nil
}

func (f *FakeClient) DeleteServiceAccount(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteServiceAccount", accountID); err != nil {
		return err
	}
	delete(f.ServiceAccounts, accountID)
	return nil
}
