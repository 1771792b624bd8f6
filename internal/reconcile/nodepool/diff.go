package nodepool

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"google.golang.org/api/compute/v1"

	"github.com/imamik/k8sgce/internal/desired"
	"github.com/imamik/k8sgce/internal/platform/gce"
	"github.com/imamik/k8sgce/internal/platform/k8s"
	"github.com/imamik/k8sgce/internal/reconcile"
	"github.com/imamik/k8sgce/internal/util/labels"
	"github.com/imamik/k8sgce/internal/util/naming"
)

// Resource kinds of the node pool domain.
const (
	KindInstanceGroup = "instance-group"
	KindInstance      = "instance"
	KindAttachment    = "group-membership"
	KindNode          = "node"
)

const (
	statusRunning   = "RUNNING"
	cloudPlatform   = "https://www.googleapis.com/auth/cloud-platform"
	podAliasRange   = "/24"
	externalNATName = "External NAT"
)

// Options select what a node pool plan covers.
type Options struct {
	// ServiceAccountEmail is attached to created instances.
	ServiceAccountEmail string

	// Pools lists the declared pools to converge, in order. Nil means
	// every declared pool; an empty slice converges none.
	Pools []string

	// PruneOrphans scales down and removes pools that are observed but no
	// longer declared.
	PruneOrphans bool
}

type builder struct {
	s     reconcile.Scope
	loc   gce.Location
	opts  Options
	plan  *reconcile.Plan
	cloud gce.ResourceAPI
}

func (b *builder) group(pool string) *compute.InstanceGroup {
	return &compute.InstanceGroup{
		Name:        naming.InstanceGroup(b.s.Cluster, pool),
		Network:     gce.NetworkURL(b.loc.Project, naming.Network(b.s.Cluster)),
		Description: fmt.Sprintf("k8sgce node pool %s", pool),
	}
}

func (b *builder) instance(spec desired.NodePoolSpec, index int) *compute.Instance {
	name := naming.Instance(b.s.Cluster, spec.Name, index)
	nic := &compute.NetworkInterface{
		Network:    gce.NetworkURL(b.loc.Project, naming.Network(b.s.Cluster)),
		Subnetwork: gce.SubnetworkURL(b.loc.Project, b.loc.Region, naming.Subnetwork(b.s.Cluster)),
		AliasIpRanges: []*compute.AliasIpRange{
			{SubnetworkRangeName: naming.PodRangeName, IpCidrRange: podAliasRange},
		},
	}
	if spec.NetworkMode == desired.NetworkPublic {
		nic.AccessConfigs = []*compute.AccessConfig{{Name: externalNATName, Type: "ONE_TO_ONE_NAT"}}
	}

	inst := &compute.Instance{
		Name:        name,
		MachineType: gce.MachineTypeURL(b.loc.Zone, spec.MachineType),
		Disks: []*compute.AttachedDisk{{
			Boot:       true,
			AutoDelete: true,
			InitializeParams: &compute.AttachedDiskInitializeParams{
				DiskName:    name,
				DiskSizeGb:  spec.DiskSizeGB,
				DiskType:    gce.DiskTypeURL(b.loc.Zone, spec.DiskType),
				SourceImage: spec.Image,
			},
		}},
		NetworkInterfaces: []*compute.NetworkInterface{nic},
		Tags:              &compute.Tags{Items: []string{naming.NodeTag(b.s.Cluster)}},
		Labels: labels.NewLabelBuilder(b.s.Cluster).
			WithDomain(string(reconcile.DomainNodePools)).
			WithRole(spec.Role).
			WithPool(spec.Name).
			Build(),
	}
	if b.opts.ServiceAccountEmail != "" {
		inst.ServiceAccounts = []*compute.ServiceAccount{{Email: b.opts.ServiceAccountEmail, Scopes: []string{cloudPlatform}}}
	}
	return inst
}

// Diff computes the node pool plan.
func Diff(s reconcile.Scope, pools desired.NodePools, opts Options, obs *Observed) *reconcile.Plan {
	b := &builder{s: s, loc: s.Location(), opts: opts, plan: reconcile.NewPlan(reconcile.DomainNodePools), cloud: s.Cloud}

	for _, name := range obs.Unparsed {
		b.plan.Deny(KindInstance, name, "name does not parse under the pool naming scheme")
	}

	selected := opts.Pools
	if selected == nil {
		selected = pools.Order
	}
	for _, name := range selected {
		spec, ok := pools.Specs[name]
		if !ok {
			b.plan.Warn("pool %s is not declared", name)
			continue
		}
		b.convergePool(spec, obs.Pool(name))
	}

	if opts.PruneOrphans {
		for _, name := range slices.Sorted(maps.Keys(obs.Pools)) {
			if _, ok := pools.Specs[name]; !ok {
				b.removePool(obs.Pools[name], fmt.Sprintf("pool %s not declared", name))
			}
		}
	}
	return b.plan
}

func (b *builder) convergePool(spec desired.NodePoolSpec, po *PoolState) {
	groupName := naming.InstanceGroup(b.s.Cluster, spec.Name)

	if gaps := reconcile.Gaps(po.Indices()); len(gaps) > 0 {
		b.plan.Warn("pool %s: observed indices %v are not contiguous from 0 (missing %v)", spec.Name, po.Indices(), gaps)
	}

	if po.Group == nil && spec.Count > 0 {
		group := b.group(spec.Name)
		b.plan.Add(reconcile.Action{
			Op: reconcile.OpCreate, Kind: KindInstanceGroup, Name: group.Name,
			Apply: func(ctx context.Context) error { return b.cloud.InsertInstanceGroup(ctx, group) },
		})
	}

	for i := range spec.Count {
		if inst, ok := po.Instances[i]; ok {
			b.convergeInstance(spec, groupName, po, inst)
			continue
		}
		b.createInstance(spec, groupName, i)
	}

	for _, i := range reconcile.Surplus(po.Indices(), spec.Count) {
		b.scaleDown(po, po.Instances[i], fmt.Sprintf("index %d above count %d", i, spec.Count))
	}
}

func (b *builder) createInstance(spec desired.NodePoolSpec, groupName string, index int) {
	state, err := transition(StateAbsent, StateCreating)
	if err != nil {
		b.plan.Warn("%v", err)
		return
	}
	inst := b.instance(spec, index)
	name := inst.Name

	b.plan.Add(reconcile.Action{
		Op: reconcile.OpCreate, Kind: KindInstance, Name: name, State: string(state),
		Detail: fmt.Sprintf("%s, %dGB %s, %s", spec.MachineType, spec.DiskSizeGB, spec.DiskType, spec.NetworkMode),
		Apply:  func(ctx context.Context) error { return b.cloud.InsertInstance(ctx, inst) },
		Wait:   b.waitRunning(name),
	})
	b.plan.Add(b.attach(groupName, name, string(state)))

	if len(spec.Labels) == 0 && len(spec.Taints) == 0 {
		return
	}
	if b.s.Members == nil {
		b.plan.Defer(KindNode, name, "cluster API not configured, labels and taints not applied")
		return
	}
	b.plan.Add(b.applyNodeSpec(spec, name))
}

func (b *builder) convergeInstance(spec desired.NodePoolSpec, groupName string, po *PoolState, inst *Instance) {
	drift := observeDrift(spec, inst)
	if len(drift) > 0 {
		// DRIFTED is terminal: reported, never mutated.
		b.plan.Drift = append(b.plan.Drift, drift...)
		return
	}

	name := inst.Name()
	if inst.Instance.Status != statusRunning {
		b.plan.Warn("instance %s is %s", name, inst.Instance.Status)
	}
	switch {
	case !po.MembersKnown:
		b.plan.Defer(KindAttachment, name, "membership of "+groupName+" could not be read")
	case !po.Members[name]:
		b.plan.Add(b.attach(groupName, name, string(StatePresent)))
	}

	if len(spec.Labels) == 0 && len(spec.Taints) == 0 {
		return
	}
	switch {
	case b.s.Members == nil:
		b.plan.Defer(KindNode, name, "cluster API not configured, labels and taints not applied")
	case inst.Node == nil:
		b.plan.Defer(KindNode, name, "node not registered yet")
	case !k8s.NodeMatches(inst.Node, spec.Labels, spec.Taints):
		b.plan.Add(b.applyNodeSpec(spec, name))
	}
}

// scaleDown detaches inst from its group, then deletes it. The detach is
// always planned when membership is unknown; removing a non-member succeeds.
func (b *builder) scaleDown(po *PoolState, inst *Instance, reason string) {
	name := inst.Name()
	state, err := transition(StatePresent, StatePendingDelete)
	if err != nil {
		b.plan.Warn("%v", err)
		return
	}
	if !po.MembersKnown || po.Members[name] {
		group := naming.InstanceGroup(b.s.Cluster, po.Name)
		b.plan.Add(reconcile.Action{
			Op: reconcile.OpDelete, Kind: KindAttachment, Name: name, State: string(state),
			Detail: "detach from " + group,
			Apply: func(ctx context.Context) error {
				return b.cloud.RemoveInstanceGroupMembers(ctx, group, []string{name})
			},
		})
	}
	b.plan.Add(reconcile.Action{
		Op: reconcile.OpDelete, Kind: KindInstance, Name: name, State: string(state), Detail: reason,
		Apply: func(ctx context.Context) error { return b.cloud.DeleteInstance(ctx, name) },
	})
}

// removePool scales po to zero, highest index first, then deletes its group.
func (b *builder) removePool(po *PoolState, reason string) {
	for _, i := range reconcile.Surplus(po.Indices(), 0) {
		b.scaleDown(po, po.Instances[i], reason)
	}
	if po.Group != nil {
		name := po.Group.Name
		b.plan.Add(reconcile.Action{
			Op: reconcile.OpDelete, Kind: KindInstanceGroup, Name: name, Detail: reason,
			Apply: func(ctx context.Context) error { return b.cloud.DeleteInstanceGroup(ctx, name) },
		})
	}
}

func (b *builder) attach(group, name, state string) reconcile.Action {
	a := reconcile.Action{
		Op: reconcile.OpCreate, Kind: KindAttachment, Name: name, State: state,
		Detail: "attach to " + group,
		Apply: func(ctx context.Context) error {
			return b.cloud.AddInstanceGroupMembers(ctx, group, []string{name})
		},
	}
	if b.s.Members != nil {
		a.Wait = b.waitRegistered(name)
	}
	return a
}

func (b *builder) applyNodeSpec(spec desired.NodePoolSpec, name string) reconcile.Action {
	members := b.s.Members
	taints := make([]string, 0, len(spec.Taints))
	for _, t := range spec.Taints {
		taints = append(taints, desired.TaintString(t))
	}
	return reconcile.Action{
		Op: reconcile.OpUpdate, Kind: KindNode, Name: name,
		Detail: fmt.Sprintf("labels %s taints %s", formatLabels(spec.Labels), strings.Join(taints, ",")),
		Apply: func(ctx context.Context) error {
			return members.ApplyNodeSpec(ctx, name, spec.Labels, spec.Taints)
		},
	}
}

func (b *builder) waitRunning(name string) func(context.Context) error {
	return func(ctx context.Context) error {
		return reconcile.Poll(ctx, b.s, "instance "+name+" to be running", func(ctx context.Context) (bool, error) {
			inst, err := b.cloud.GetInstance(ctx, name)
			if err != nil {
				if gce.IsRetryable(err) {
					return false, nil
				}
				return false, err
			}
			return inst != nil && inst.Status == statusRunning, nil
		})
	}
}

func (b *builder) waitRegistered(name string) func(context.Context) error {
	members := b.s.Members
	return func(ctx context.Context) error {
		return reconcile.Poll(ctx, b.s, "node "+name+" to register", func(ctx context.Context) (bool, error) {
			node, err := members.GetNode(ctx, name)
			if err != nil {
				// The API server may be briefly unavailable while nodes join.
				return false, nil
			}
			return node != nil, nil
		})
	}
}

// observeDrift compares the managed shape of inst with spec.
func observeDrift(spec desired.NodePoolSpec, inst *Instance) []reconcile.Drift {
	var out []reconcile.Drift
	add := func(field, want, got string) {
		if want != got {
			out = append(out, reconcile.Drift{Kind: KindInstance, Name: inst.Name(), Field: field, Desired: want, Observed: got})
		}
	}

	add("machine_type", spec.MachineType, gce.ResourceName(inst.Instance.MachineType))

	if boot := bootDisk(inst.Instance); boot != nil {
		size := boot.DiskSizeGb
		if inst.BootDisk != nil {
			size = inst.BootDisk.SizeGb
		}
		add("disk_size", strconv.FormatInt(spec.DiskSizeGB, 10), strconv.FormatInt(size, 10))
	}
	if inst.BootDisk != nil {
		add("disk_type", spec.DiskType, gce.ResourceName(inst.BootDisk.Type))
	}

	add("network_mode", string(spec.NetworkMode), string(networkMode(inst.Instance)))
	return out
}

func networkMode(inst *compute.Instance) desired.NetworkMode {
	for _, nic := range inst.NetworkInterfaces {
		if len(nic.AccessConfigs) > 0 {
			return desired.NetworkPublic
		}
	}
	return desired.NetworkPrivate
}

func formatLabels(m map[string]string) string {
	keys := slices.Sorted(maps.Keys(m))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, ",")
}
