package nodepool

import (
	"context"
	"maps"
	"slices"
	"sync"

	"google.golang.org/api/compute/v1"
	corev1 "k8s.io/api/core/v1"

	"github.com/imamik/k8sgce/internal/platform/gce"
	"github.com/imamik/k8sgce/internal/reconcile"
	"github.com/imamik/k8sgce/internal/util/async"
	"github.com/imamik/k8sgce/internal/util/labels"
	"github.com/imamik/k8sgce/internal/util/naming"
)

// Instance is an observed pool instance.
type Instance struct {
	Index    int
	Instance *compute.Instance

	// BootDisk is nil when the disk could not be read.
	BootDisk *compute.Disk

	// Node is the registered node, nil when absent or not probed.
	Node *corev1.Node
}

// Name returns the instance name.
func (i *Instance) Name() string {
	return i.Instance.Name
}

// PoolState is the observed state of one pool.
type PoolState struct {
	Name    string
	Group   *compute.InstanceGroup
	Members map[string]bool

	// MembersKnown reports whether Members was read. It is false when the
	// group or its membership could not be read.
	MembersKnown bool

	Instances map[int]*Instance
}

func newPoolState(name string) *PoolState {
	return &PoolState{Name: name, Members: make(map[string]bool), Instances: make(map[int]*Instance)}
}

// Indices returns the observed instance indices, ascending.
func (p *PoolState) Indices() []int {
	return slices.Sorted(maps.Keys(p.Instances))
}

// Observed is the remote node pool state of a cluster.
type Observed struct {
	Pools map[string]*PoolState

	// Unparsed lists cluster instances whose name does not parse under
	// the pool naming scheme.
	Unparsed []string
}

// Pool returns the state of pool, empty if nothing was observed.
func (o *Observed) Pool(name string) *PoolState {
	if p, ok := o.Pools[name]; ok {
		return p
	}
	return newPoolState(name)
}

// Probe lists every instance of the cluster, buckets them by pool, and then
// reads groups, memberships, boot disks and node registrations concurrently.
// declared names the pools whose groups are read even when they have no
// instances.
func Probe(ctx context.Context, s reconcile.Scope, declared []string) *Observed {
	obs := &Observed{Pools: make(map[string]*PoolState)}
	warn := func(kind string, err error) {
		reconcile.LogProbeWarning(s.Observer, reconcile.DomainNodePools, kind, err)
	}

	for _, name := range declared {
		obs.Pools[name] = newPoolState(name)
	}

	instances, err := s.Cloud.ListInstances(ctx, naming.ClusterInstancePattern(s.Cluster))
	if err != nil {
		warn(KindInstance, err)
	}
	for _, inst := range instances {
		obs.bucket(s.Cluster, inst, declared)
	}
	slices.Sort(obs.Unparsed)

	var mu sync.Mutex
	var tasks []async.Task
	for _, pool := range obs.Pools {
		group := naming.InstanceGroup(s.Cluster, pool.Name)
		tasks = append(tasks, async.Task{Name: "group " + group, Func: func(ctx context.Context) error {
			g, err := s.Cloud.GetInstanceGroup(ctx, group)
			if err != nil {
				warn(KindInstanceGroup, err)
				return nil
			}
			if g == nil {
				mu.Lock()
				defer mu.Unlock()
				pool.MembersKnown = true
				return nil
			}
			members, err := s.Cloud.ListInstanceGroupMembers(ctx, group)
			if err != nil {
				warn(KindAttachment, err)
			}
			mu.Lock()
			defer mu.Unlock()
			pool.Group = g
			pool.MembersKnown = err == nil
			for _, m := range members {
				pool.Members[m] = true
			}
			return nil
		}})

		for _, inst := range pool.Instances {
			tasks = append(tasks, async.Task{Name: "instance " + inst.Name(), Func: func(ctx context.Context) error {
				probeInstance(ctx, s, inst, &mu, warn)
				return nil
			}})
		}
	}
	_ = async.RunParallel(ctx, tasks)

	return obs
}

// bucket files inst under its pool. The pool label is tried first, then
// the declared pools; cluster instances labelled for another cluster are
// skipped.
func (o *Observed) bucket(cluster string, inst *compute.Instance, declared []string) {
	if owner, ok := inst.Labels[labels.KeyCluster]; ok && owner != cluster {
		return
	}
	candidates := declared
	if pool, ok := inst.Labels[labels.KeyPool]; ok {
		candidates = append([]string{pool}, declared...)
	}
	for _, pool := range candidates {
		if i, ok := naming.ParseInstance(cluster, pool, inst.Name); ok {
			if o.Pools[pool] == nil {
				o.Pools[pool] = newPoolState(pool)
			}
			o.Pools[pool].Instances[i] = &Instance{Index: i, Instance: inst}
			return
		}
	}
	o.Unparsed = append(o.Unparsed, inst.Name)
}

func probeInstance(ctx context.Context, s reconcile.Scope, inst *Instance, mu *sync.Mutex, warn func(string, error)) {
	if boot := bootDisk(inst.Instance); boot != nil && boot.Source != "" {
		disk, err := s.Cloud.GetDisk(ctx, gce.ResourceName(boot.Source))
		if err != nil {
			warn("disk", err)
		}
		mu.Lock()
		inst.BootDisk = disk
		mu.Unlock()
	}

	if s.Members == nil {
		return
	}
	node, err := s.Members.GetNode(ctx, inst.Name())
	if err != nil {
		warn(KindNode, err)
		return
	}
	mu.Lock()
	inst.Node = node
	mu.Unlock()
}

func bootDisk(inst *compute.Instance) *compute.AttachedDisk {
	for _, d := range inst.Disks {
		if d.Boot {
			return d
		}
	}
	if len(inst.Disks) > 0 {
		return inst.Disks[0]
	}
	return nil
}
