package peering

import (
	"context"
	"slices"
	"sync"

	"google.golang.org/api/compute/v1"

	"github.com/imamik/k8sgce/internal/platform/gce"
	"github.com/imamik/k8sgce/internal/reconcile"
	"github.com/imamik/k8sgce/internal/util/async"
	"github.com/imamik/k8sgce/internal/util/naming"
)

// NetworkState is the observed state of one cluster network.
type NetworkState struct {
	Cluster string

	// Network is nil when the network does not exist.
	Network *compute.Network

	// Ranges are the primary node range and the pod secondary range.
	Ranges []string

	// Firewall is the peer firewall {cluster}-allow-{local}; only probed
	// for remote networks.
	Firewall *compute.Firewall

	// Err is set when the network could not be read.
	Err error
}

// Exists reports whether the network was observed.
func (n *NetworkState) Exists() bool {
	return n != nil && n.Network != nil
}

// Peering returns the peering called name on the network, or nil.
func (n *NetworkState) Peering(name string) *compute.NetworkPeering {
	if !n.Exists() {
		return nil
	}
	for _, p := range n.Network.Peerings {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Observed is the remote state relevant to the local cluster's peerings.
type Observed struct {
	Local   *NetworkState
	Remotes map[string]*NetworkState

	// Peered lists the remote clusters of the local peerings that parse
	// under the naming scheme, sorted.
	Peered []string
}

// Probe reads the local network, then every remote network that is either
// declared or already peered, concurrently.
func Probe(ctx context.Context, s reconcile.Scope, declared []string) *Observed {
	obs := &Observed{
		Local:   probeNetwork(ctx, s, s.Cluster, false),
		Remotes: make(map[string]*NetworkState),
	}

	remotes := slices.Clone(declared)
	if obs.Local.Exists() {
		for _, p := range obs.Local.Network.Peerings {
			if remote, ok := naming.ParsePeering(s.Cluster, p.Name); ok {
				obs.Peered = append(obs.Peered, remote)
				remotes = append(remotes, remote)
			}
		}
	}
	slices.Sort(obs.Peered)
	slices.Sort(remotes)
	remotes = slices.Compact(remotes)

	var mu sync.Mutex
	tasks := make([]async.Task, 0, len(remotes))
	for _, remote := range remotes {
		tasks = append(tasks, async.Task{Name: "network " + remote, Func: func(ctx context.Context) error {
			state := probeNetwork(ctx, s, remote, true)
			mu.Lock()
			obs.Remotes[remote] = state
			mu.Unlock()
			return nil
		}})
	}
	_ = async.RunParallel(ctx, tasks)

	return obs
}

func probeNetwork(ctx context.Context, s reconcile.Scope, cluster string, remote bool) *NetworkState {
	state := &NetworkState{Cluster: cluster}
	warn := func(kind string, err error) {
		reconcile.LogProbeWarning(s.Observer.WithValues("network", cluster), reconcile.DomainPeering, kind, err)
	}

	// The peer firewall is read even when the network is gone so that a
	// leftover can be removed.
	if remote {
		fw, err := s.Cloud.GetFirewall(ctx, naming.PeerFirewall(cluster, s.Cluster))
		if err != nil {
			warn(KindFirewall, err)
		}
		state.Firewall = fw
	}

	network, err := s.Cloud.GetNetwork(ctx, naming.Network(cluster))
	if err != nil {
		warn("network", err)
		state.Err = err
		return state
	}
	if network == nil {
		return state
	}
	state.Network = network

	subnet, err := s.Cloud.GetSubnetwork(ctx, naming.Subnetwork(cluster))
	switch {
	case err != nil:
		warn("subnetwork", err)
	case subnet != nil:
		state.Ranges = subnetRanges(subnet)
	}
	return state
}

func subnetRanges(subnet *compute.Subnetwork) []string {
	var ranges []string
	if subnet.IpCidrRange != "" {
		ranges = append(ranges, subnet.IpCidrRange)
	}
	for _, r := range subnet.SecondaryIpRanges {
		if r.RangeName == naming.PodRangeName {
			ranges = append(ranges, r.IpCidrRange)
		}
	}
	return ranges
}

// pointsAt reports whether p peers with the network of cluster.
func pointsAt(p *compute.NetworkPeering, cluster string) bool {
	return p != nil && gce.ResourceName(p.Network) == naming.Network(cluster)
}
