package peering

import (
	"context"
	"fmt"
	"slices"

	"google.golang.org/api/compute/v1"

	"github.com/imamik/k8sgce/internal/desired"
	"github.com/imamik/k8sgce/internal/netutil"
	"github.com/imamik/k8sgce/internal/platform/gce"
	"github.com/imamik/k8sgce/internal/reconcile"
	"github.com/imamik/k8sgce/internal/util/naming"
)

// Resource kinds of the peering domain.
const (
	KindPeering  = "peering"
	KindFirewall = "peer-firewall"
)

// Peering states reported by the API.
const (
	StateActive   = "ACTIVE"
	StateInactive = "INACTIVE"
	StateAbsent   = "ABSENT"
)

// Spec is the desired peering state.
type Spec struct {
	Peers []desired.PeerLink
	Ports desired.PortSet
}

// SpecFromState extracts the peering spec from st.
func SpecFromState(st *desired.State) Spec {
	return Spec{Peers: st.Peers, Ports: st.PeerPorts}
}

// Remotes returns the declared remote clusters.
func (s Spec) Remotes() []string {
	out := make([]string, 0, len(s.Peers))
	for _, l := range s.Peers {
		out = append(out, l.Remote)
	}
	return out
}

type builder struct {
	s     reconcile.Scope
	loc   gce.Location
	local string
	ports desired.PortSet
}

func newBuilder(s reconcile.Scope, spec Spec) builder {
	return builder{s: s, loc: s.Location(), local: s.Cluster, ports: spec.Ports}
}

func (b builder) peering(owner, target string) *compute.NetworkPeering {
	return &compute.NetworkPeering{
		Name:                 naming.Peering(owner, target),
		Network:              gce.NetworkURL(b.loc.Project, naming.Network(target)),
		ExchangeSubnetRoutes: true,
	}
}

func (b builder) firewall(remote string, localRanges []string) *compute.Firewall {
	sources := slices.Clone(localRanges)
	slices.Sort(sources)
	return &compute.Firewall{
		Name:         naming.PeerFirewall(remote, b.local),
		Network:      gce.NetworkURL(b.loc.Project, naming.Network(remote)),
		Direction:    "INGRESS",
		Priority:     1000,
		Allowed:      reconcile.FirewallAllowed(b.ports, true),
		SourceRanges: sources,
		TargetTags:   []string{naming.NodeTag(remote)},
		Description:  fmt.Sprintf("k8sgce peering from %s", b.local),
	}
}

// Diff computes the peering plan for the declared links.
func Diff(s reconcile.Scope, spec Spec, obs *Observed) *reconcile.Plan {
	b := newBuilder(s, spec)
	p := reconcile.NewPlan(reconcile.DomainPeering)

	if !obs.Local.Exists() {
		reason := fmt.Sprintf("local network %s not found", naming.Network(b.local))
		if obs.Local.Err != nil {
			reason = fmt.Sprintf("local network unreadable: %v", obs.Local.Err)
		}
		for _, l := range spec.Peers {
			p.Defer(KindPeering, naming.Peering(b.local, l.Remote), reason)
		}
		return p
	}

	declared := make(map[string]bool, len(spec.Peers))
	for _, l := range spec.Peers {
		declared[l.Remote] = true
		b.convergeLink(p, l.Remote, obs)
	}

	for _, remote := range obs.Peered {
		if !declared[remote] {
			b.undeclared(p, remote, obs)
		}
	}
	return p
}

func (b builder) convergeLink(p *reconcile.Plan, remote string, obs *Observed) {
	name := naming.Peering(b.local, remote)
	rn := obs.Remotes[remote]

	switch {
	case rn == nil || rn.Err != nil:
		p.Defer(KindPeering, name, "remote network unreadable")
		return
	case !rn.Exists():
		p.Defer(KindPeering, name, fmt.Sprintf("remote network %s not found", naming.Network(remote)))
		return
	case len(obs.Local.Ranges) == 0 || len(rn.Ranges) == 0:
		p.Defer(KindPeering, name, "subnetwork ranges unknown")
		return
	}

	a, r, overlap, err := netutil.FirstOverlap(obs.Local.Ranges, rn.Ranges)
	switch {
	case err != nil:
		p.Defer(KindPeering, name, err.Error())
		return
	case overlap:
		p.Defer(KindPeering, name, fmt.Sprintf("local range %s overlaps remote range %s", a, r))
		return
	}

	cloud := b.s.Cloud
	reverseName := naming.Peering(remote, b.local)
	local := obs.Local.Peering(name)
	reverse := rn.Peering(reverseName)

	var steps []reconcile.Action
	steps = append(steps, b.convergeSide(b.local, remote, local, pointsAt(reverse, b.local))...)
	steps = append(steps, b.convergeSide(remote, b.local, reverse, pointsAt(local, remote))...)
	if len(steps) > 0 {
		// Both sides exist after the last step; the link must come up.
		last := &steps[len(steps)-1]
		localNet := naming.Network(b.local)
		last.Wait = func(ctx context.Context) error {
			return reconcile.Poll(ctx, b.s, "peering "+name+" to become active", func(ctx context.Context) (bool, error) {
				n, err := cloud.GetNetwork(ctx, localNet)
				if err != nil {
					if gce.IsRetryable(err) {
						return false, nil
					}
					return false, err
				}
				st := &NetworkState{Network: n}
				got := st.Peering(name)
				return got != nil && got.State == StateActive, nil
			})
		}
	}
	p.Add(steps...)

	want := b.firewall(remote, obs.Local.Ranges)
	switch current := rn.Firewall; {
	case current == nil:
		p.Add(reconcile.Action{
			Op: reconcile.OpCreate, Kind: KindFirewall, Name: want.Name, Detail: reconcile.FirewallSignature(want),
			Apply: func(ctx context.Context) error { return cloud.InsertFirewall(ctx, want) },
		})
	case reconcile.FirewallSignature(current) != reconcile.FirewallSignature(want):
		patch := &compute.Firewall{Allowed: want.Allowed, SourceRanges: want.SourceRanges, TargetTags: want.TargetTags}
		p.Add(reconcile.Action{
			Op: reconcile.OpUpdate, Kind: KindFirewall, Name: want.Name,
			Detail: reconcile.FirewallSignature(current) + " => " + reconcile.FirewallSignature(want),
			Apply:  func(ctx context.Context) error { return cloud.PatchFirewall(ctx, want.Name, patch) },
		})
	}
}

// convergeSide creates the peering owner->target on the owner's network, or
// recreates it when it points elsewhere or stays inactive although the
// counterpart peers back.
func (b builder) convergeSide(owner, target string, current *compute.NetworkPeering, counterpart bool) []reconcile.Action {
	want := b.peering(owner, target)
	network := naming.Network(owner)
	cloud := b.s.Cloud

	create := reconcile.Action{
		Op: reconcile.OpCreate, Kind: KindPeering, Name: want.Name, State: StateAbsent,
		Detail: fmt.Sprintf("%s -> %s", network, naming.Network(target)),
		Apply:  func(ctx context.Context) error { return cloud.AddPeering(ctx, network, want) },
	}

	switch {
	case current == nil:
		return []reconcile.Action{create}
	case !pointsAt(current, target):
		create.State = current.State
		return []reconcile.Action{removePeering(cloud, network, want.Name, current.State, "peers with "+gce.ResourceName(current.Network)), create}
	case current.State != StateActive && counterpart:
		create.State = current.State
		return []reconcile.Action{removePeering(cloud, network, want.Name, current.State, "state "+current.State), create}
	}
	return nil
}

// undeclared keeps a peering to a remote that is no longer declared until
// the remote network is gone, then removes it with its remote firewall.
func (b builder) undeclared(p *reconcile.Plan, remote string, obs *Observed) {
	name := naming.Peering(b.local, remote)
	rn := obs.Remotes[remote]

	switch {
	case rn == nil || rn.Err != nil:
		p.Warn("peering %s: remote network unreadable, keeping", name)
		return
	case rn.Exists():
		p.Warn("peering %s to undeclared cluster %s kept while its network exists", name, remote)
		return
	}

	reason := fmt.Sprintf("remote network %s is gone", naming.Network(remote))
	if rn.Firewall != nil {
		p.Add(deleteFirewall(b.s.Cloud, rn.Firewall.Name, reason))
	}
	current := obs.Local.Peering(name)
	p.Add(removePeering(b.s.Cloud, naming.Network(b.local), name, current.State, reason))
}

// destroy removes every link the local network or the declared remotes
// carry, remote firewall first, then the reverse and the local peering.
func (b builder) destroy(p *reconcile.Plan, obs *Observed) {
	remotes := make([]string, 0, len(obs.Remotes))
	for r := range obs.Remotes {
		remotes = append(remotes, r)
	}
	slices.Sort(remotes)

	for _, remote := range remotes {
		rn := obs.Remotes[remote]
		reason := "cluster teardown"
		if rn.Firewall != nil {
			p.Add(deleteFirewall(b.s.Cloud, rn.Firewall.Name, reason))
		}
		if reverse := rn.Peering(naming.Peering(remote, b.local)); pointsAt(reverse, b.local) {
			p.Add(removePeering(b.s.Cloud, naming.Network(remote), reverse.Name, reverse.State, reason))
		}
		if local := obs.Local.Peering(naming.Peering(b.local, remote)); local != nil {
			p.Add(removePeering(b.s.Cloud, naming.Network(b.local), local.Name, local.State, reason))
		}
	}
}

func removePeering(cloud gce.ResourceAPI, network, name, state, detail string) reconcile.Action {
	return reconcile.Action{
		Op: reconcile.OpDelete, Kind: KindPeering, Name: name, State: state,
		Detail: network + ": " + detail,
		Apply:  func(ctx context.Context) error { return cloud.RemovePeering(ctx, network, name) },
	}
}

func deleteFirewall(cloud gce.ResourceAPI, name, detail string) reconcile.Action {
	return reconcile.Action{
		Op: reconcile.OpDelete, Kind: KindFirewall, Name: name, Detail: detail,
		Apply: func(ctx context.Context) error { return cloud.DeleteFirewall(ctx, name) },
	}
}
