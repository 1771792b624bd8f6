package ingress

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"google.golang.org/api/compute/v1"

	"github.com/imamik/k8sgce/internal/desired"
	"github.com/imamik/k8sgce/internal/platform/gce"
	"github.com/imamik/k8sgce/internal/reconcile"
	"github.com/imamik/k8sgce/internal/util/labels"
	"github.com/imamik/k8sgce/internal/util/naming"
)

// Resource kinds of the ingress domain.
const (
	KindAddress        = "address"
	KindForwardingRule = "forwarding-rule"
	KindFirewall       = "firewall"
	KindBackendService = "backend-service"
)

// maxRulePorts is the largest port list a forwarding rule accepts; larger
// sets forward all ports and rely on the firewall.
const maxRulePorts = 5

// Spec is the desired ingress state.
type Spec struct {
	Groups       []desired.IngressGroup
	Backend      string
	SourceRanges []string
}

// SpecFromState extracts the ingress spec from st.
func SpecFromState(st *desired.State) Spec {
	return Spec{Groups: st.Ingress, Backend: st.IngressBackend, SourceRanges: st.IngressSourceRanges}
}

type builder struct {
	s    reconcile.Scope
	loc  gce.Location
	spec Spec
}

func (b builder) labels() map[string]string {
	return labels.NewLabelBuilder(b.s.Cluster).WithDomain(string(reconcile.DomainIngress)).Build()
}

func (b builder) address(i int) *compute.Address {
	return &compute.Address{
		Name:        naming.IngressAddress(b.s.Cluster, i),
		AddressType: "EXTERNAL",
		Labels:      b.labels(),
		Description: fmt.Sprintf("k8sgce ingress group %d", i),
	}
}

func (b builder) forwardingRule(g desired.IngressGroup, proto desired.Protocol) *compute.ForwardingRule {
	ports := g.Ports(proto)
	rule := &compute.ForwardingRule{
		Name:                naming.IngressForwardingRule(b.s.Cluster, g.Index, string(proto)),
		IPAddress:           gce.AddressURL(b.loc.Project, b.loc.Region, naming.IngressAddress(b.s.Cluster, g.Index)),
		IPProtocol:          strings.ToUpper(string(proto)),
		LoadBalancingScheme: "EXTERNAL",
		BackendService:      gce.BackendServiceURL(b.loc.Project, b.loc.Region, b.spec.Backend),
		Labels:              b.labels(),
		Description:         string(proto) + ":" + desired.JoinPorts(ports),
	}
	if len(ports) > maxRulePorts {
		rule.AllPorts = true
	} else {
		for _, p := range ports {
			rule.Ports = append(rule.Ports, strconv.Itoa(p))
		}
	}
	return rule
}

func (b builder) firewall(g desired.IngressGroup) *compute.Firewall {
	sources := slices.Clone(b.spec.SourceRanges)
	slices.Sort(sources)
	return &compute.Firewall{
		Name:         naming.IngressFirewall(b.s.Cluster, g.Index),
		Network:      gce.NetworkURL(b.loc.Project, naming.Network(b.s.Cluster)),
		Direction:    "INGRESS",
		Priority:     1000,
		Allowed:      reconcile.FirewallAllowed(g.PortSet, false),
		SourceRanges: sources,
		TargetTags:   []string{naming.NodeTag(b.s.Cluster)},
		Description:  fmt.Sprintf("k8sgce ingress group %d", g.Index),
	}
}

// ruleSignature summarises the managed fields of a forwarding rule.
func ruleSignature(r *compute.ForwardingRule) string {
	ports := "all:" + r.Description
	if !r.AllPorts {
		nums := make([]int, 0, len(r.Ports))
		for _, p := range r.Ports {
			n, err := strconv.Atoi(p)
			if err != nil {
				return "unparsable:" + strings.Join(r.Ports, ",")
			}
			nums = append(nums, n)
		}
		slices.Sort(nums)
		ports = desired.JoinPorts(nums)
	}
	return strings.ToLower(r.IPProtocol) + " " + ports + " -> " + gce.ResourceName(r.BackendService)
}

// Diff computes the ingress plan. Desired groups 0..N-1 are created or
// converged; every observed index outside that set is pruned, highest first.
// Forwarding rules are deferred while their backend service is missing;
// addresses and firewalls are converged regardless.
func Diff(s reconcile.Scope, spec Spec, obs *Observed) *reconcile.Plan {
	b := builder{s: s, loc: s.Location(), spec: spec}
	p := reconcile.NewPlan(reconcile.DomainIngress)

	for kind, names := range obs.Unparsed {
		for _, n := range names {
			p.Deny(kind, n, "name does not parse under the cluster naming scheme")
		}
	}
	slices.SortFunc(p.Denied, func(x, y reconcile.Denied) int { return strings.Compare(x.Name, y.Name) })

	observed := obs.Indices()
	if gaps := reconcile.Gaps(observed); len(gaps) > 0 {
		p.Warn("observed ingress indices %v are not contiguous from 0 (missing %v)", observed, gaps)
	}

	for _, g := range spec.Groups {
		p.Add(b.convergeGroup(p, g, obs)...)
	}

	for _, i := range reconcile.Surplus(observed, len(spec.Groups)) {
		p.Add(b.pruneIndex(i, obs)...)
	}
	return p
}

func (b builder) convergeGroup(p *reconcile.Plan, g desired.IngressGroup, obs *Observed) []reconcile.Action {
	var actions []reconcile.Action
	cloud := b.s.Cloud

	if _, ok := obs.Addresses[g.Index]; !ok {
		addr := b.address(g.Index)
		actions = append(actions, reconcile.Action{
			Op: reconcile.OpCreate, Kind: KindAddress, Name: addr.Name,
			Apply: func(ctx context.Context) error { return cloud.InsertAddress(ctx, addr) },
		})
	}

	for _, proto := range desired.Protocols {
		name := naming.IngressForwardingRule(b.s.Cluster, g.Index, string(proto))
		current := obs.Rules[g.Index][string(proto)]

		if len(g.Ports(proto)) == 0 {
			if current != nil {
				actions = append(actions, deleteRule(cloud, name, "no "+string(proto)+" ports desired"))
			}
			continue
		}

		want := b.forwardingRule(g, proto)
		if current != nil && ruleSignature(current) == ruleSignature(want) {
			continue
		}
		if obs.Backend == nil {
			// A rule being replaced stays in place until the backend exists.
			p.Defer(KindForwardingRule, name, "backend service "+b.spec.Backend+" not found")
			continue
		}
		if current != nil {
			// Forwarding rules are immutable; the address is kept.
			actions = append(actions, deleteRule(cloud, name, ruleSignature(current)+" => "+ruleSignature(want)))
		}
		actions = append(actions, reconcile.Action{
			Op: reconcile.OpCreate, Kind: KindForwardingRule, Name: name, Detail: ruleSignature(want),
			Apply: func(ctx context.Context) error { return cloud.InsertForwardingRule(ctx, want) },
		})
	}

	current := obs.Firewalls[g.Index]
	if g.Empty() {
		if current != nil {
			actions = append(actions, deleteFirewall(cloud, current.Name, "group has no ports"))
		}
		return actions
	}

	want := b.firewall(g)
	switch {
	case current == nil:
		actions = append(actions, reconcile.Action{
			Op: reconcile.OpCreate, Kind: KindFirewall, Name: want.Name, Detail: reconcile.FirewallSignature(want),
			Apply: func(ctx context.Context) error { return cloud.InsertFirewall(ctx, want) },
		})
	case reconcile.FirewallSignature(current) != reconcile.FirewallSignature(want):
		patch := &compute.Firewall{Allowed: want.Allowed, SourceRanges: want.SourceRanges, TargetTags: want.TargetTags}
		actions = append(actions, reconcile.Action{
			Op: reconcile.OpUpdate, Kind: KindFirewall, Name: want.Name,
			Detail: reconcile.FirewallSignature(current) + " => " + reconcile.FirewallSignature(want),
			Apply:  func(ctx context.Context) error { return cloud.PatchFirewall(ctx, want.Name, patch) },
		})
	}
	return actions
}

// pruneIndex deletes the resources of index i in reverse dependency order.
func (b builder) pruneIndex(i int, obs *Observed) []reconcile.Action {
	var actions []reconcile.Action
	cloud := b.s.Cloud
	reason := fmt.Sprintf("index %d not desired", i)

	if fw, ok := obs.Firewalls[i]; ok {
		actions = append(actions, deleteFirewall(cloud, fw.Name, reason))
	}
	for _, proto := range desired.Protocols {
		if r, ok := obs.Rules[i][string(proto)]; ok {
			actions = append(actions, deleteRule(cloud, r.Name, reason))
		}
	}
	if a, ok := obs.Addresses[i]; ok {
		name := a.Name
		actions = append(actions, reconcile.Action{
			Op: reconcile.OpDelete, Kind: KindAddress, Name: name, Detail: reason,
			Apply: func(ctx context.Context) error { return cloud.DeleteAddress(ctx, name) },
		})
	}
	return actions
}

func deleteRule(cloud gce.ResourceAPI, name, detail string) reconcile.Action {
	return reconcile.Action{
		Op: reconcile.OpDelete, Kind: KindForwardingRule, Name: name, Detail: detail,
		Apply: func(ctx context.Context) error { return cloud.DeleteForwardingRule(ctx, name) },
	}
}

func deleteFirewall(cloud gce.ResourceAPI, name, detail string) reconcile.Action {
	return reconcile.Action{
		Op: reconcile.OpDelete, Kind: KindFirewall, Name: name, Detail: detail,
		Apply: func(ctx context.Context) error { return cloud.DeleteFirewall(ctx, name) },
	}
}
