package gce

import (
	"context"

	"google.golang.org/api/compute/v1"
	iam "google.golang.org/api/iam/v1"
)

// AddressManager manages regional external addresses.
type AddressManager interface {
	ListAddresses(ctx context.Context, pattern string) ([]*compute.Address, error)
	GetAddress(ctx context.Context, name string) (*compute.Address, error)
	InsertAddress(ctx context.Context, addr *compute.Address) error
	DeleteAddress(ctx context.Context, name string) error
}

// ForwardingRuleManager manages regional forwarding rules. The backend
// services rules point at are owned outside the cluster and only read.
type ForwardingRuleManager interface {
	ListForwardingRules(ctx context.Context, pattern string) ([]*compute.ForwardingRule, error)
	GetBackendService(ctx context.Context, name string) (*compute.BackendService, error)
	InsertForwardingRule(ctx context.Context, rule *compute.ForwardingRule) error
	DeleteForwardingRule(ctx context.Context, name string) error
}

// FirewallManager manages global firewall rules.
type FirewallManager interface {
	ListFirewalls(ctx context.Context, pattern string) ([]*compute.Firewall, error)
	GetFirewall(ctx context.Context, name string) (*compute.Firewall, error)
	InsertFirewall(ctx context.Context, fw *compute.Firewall) error
	// PatchFirewall replaces the allowed rules and source ranges in place.
	PatchFirewall(ctx context.Context, name string, fw *compute.Firewall) error
	DeleteFirewall(ctx context.Context, name string) error
}

// NetworkManager reads networks and subnetworks and manages peerings.
type NetworkManager interface {
	GetNetwork(ctx context.Context, name string) (*compute.Network, error)
	GetSubnetwork(ctx context.Context, name string) (*compute.Subnetwork, error)
	AddPeering(ctx context.Context, network string, peering *compute.NetworkPeering) error
	RemovePeering(ctx context.Context, network, peering string) error
}

// InstanceManager manages zonal instances and their boot disks.
type InstanceManager interface {
	ListInstances(ctx context.Context, pattern string) ([]*compute.Instance, error)
	GetInstance(ctx context.Context, name string) (*compute.Instance, error)
	InsertInstance(ctx context.Context, inst *compute.Instance) error
	DeleteInstance(ctx context.Context, name string) error
	GetDisk(ctx context.Context, name string) (*compute.Disk, error)
}

// InstanceGroupManager manages unmanaged instance groups and their members.
type InstanceGroupManager interface {
	GetInstanceGroup(ctx context.Context, name string) (*compute.InstanceGroup, error)
	InsertInstanceGroup(ctx context.Context, group *compute.InstanceGroup) error
	DeleteInstanceGroup(ctx context.Context, name string) error
	// ListInstanceGroupMembers returns the names of the group's instances.
	ListInstanceGroupMembers(ctx context.Context, group string) ([]string, error)
	AddInstanceGroupMembers(ctx context.Context, group string, instances []string) error
	RemoveInstanceGroupMembers(ctx context.Context, group string, instances []string) error
}

// ServiceAccountManager manages IAM service accounts of the project.
type ServiceAccountManager interface {
	ListServiceAccounts(ctx context.Context) ([]*iam.ServiceAccount, error)
	GetServiceAccount(ctx context.Context, accountID string) (*iam.ServiceAccount, error)
	CreateServiceAccount(ctx context.Context, accountID, displayName string) (*iam.ServiceAccount, error)
	DeleteServiceAccount(ctx context.Context, accountID string) error
}

// ResourceAPI is the full resource API the reconciler needs.
type ResourceAPI interface {
	AddressManager
	ForwardingRuleManager
	FirewallManager
	NetworkManager
	InstanceManager
	InstanceGroupManager
	ServiceAccountManager

	// Location reports the project, region and zone the client is bound to.
	Location() Location
}

// Location identifies where the client creates resources.
type Location struct {
	Project string
	Region  string
	Zone    string
}
