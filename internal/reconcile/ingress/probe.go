package ingress

import (
	"context"
	"slices"
	"sync"

	"google.golang.org/api/compute/v1"

	"github.com/imamik/k8sgce/internal/reconcile"
	"github.com/imamik/k8sgce/internal/util/async"
	"github.com/imamik/k8sgce/internal/util/naming"
)

// Observed is the remote ingress state of a cluster, keyed by group index.
type Observed struct {
	Addresses map[int]*compute.Address
	Rules     map[int]map[string]*compute.ForwardingRule
	Firewalls map[int]*compute.Firewall

	// Backend is the backend service forwarding rules point at; nil when it
	// is absent or could not be read.
	Backend *compute.BackendService

	// Unparsed holds listed names that do not parse under the cluster's
	// naming scheme, keyed by resource kind.
	Unparsed map[string][]string
}

func newObserved() *Observed {
	return &Observed{
		Addresses: make(map[int]*compute.Address),
		Rules:     make(map[int]map[string]*compute.ForwardingRule),
		Firewalls: make(map[int]*compute.Firewall),
		Unparsed:  make(map[string][]string),
	}
}

// Indices returns every observed group index, ascending.
func (o *Observed) Indices() []int {
	seen := make(map[int]bool)
	for i := range o.Addresses {
		seen[i] = true
	}
	for i := range o.Rules {
		seen[i] = true
	}
	for i := range o.Firewalls {
		seen[i] = true
	}
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// Probe lists the cluster's addresses, forwarding rules and firewalls and
// reads backend concurrently. A failed read is logged and treated as nothing
// observed. An empty backend is not read.
func Probe(ctx context.Context, s reconcile.Scope, backend string) *Observed {
	obs := newObserved()
	var mu sync.Mutex

	warn := func(kind string, err error) {
		reconcile.LogProbeWarning(s.Observer, reconcile.DomainIngress, kind, err)
	}

	tasks := []async.Task{
		{Name: "addresses", Func: func(ctx context.Context) error {
			addrs, err := s.Cloud.ListAddresses(ctx, naming.IngressAddressPattern(s.Cluster))
			if err != nil {
				warn(KindAddress, err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, a := range addrs {
				if i, ok := naming.ParseIngressAddress(s.Cluster, a.Name); ok {
					obs.Addresses[i] = a
				} else {
					obs.Unparsed[KindAddress] = append(obs.Unparsed[KindAddress], a.Name)
				}
			}
			return nil
		}},
		{Name: "forwarding rules", Func: func(ctx context.Context) error {
			rules, err := s.Cloud.ListForwardingRules(ctx, naming.IngressForwardingRulePattern(s.Cluster))
			if err != nil {
				warn(KindForwardingRule, err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, r := range rules {
				i, proto, ok := naming.ParseIngressForwardingRule(s.Cluster, r.Name)
				if !ok {
					obs.Unparsed[KindForwardingRule] = append(obs.Unparsed[KindForwardingRule], r.Name)
					continue
				}
				if obs.Rules[i] == nil {
					obs.Rules[i] = make(map[string]*compute.ForwardingRule)
				}
				obs.Rules[i][proto] = r
			}
			return nil
		}},
		{Name: "firewalls", Func: func(ctx context.Context) error {
			fws, err := s.Cloud.ListFirewalls(ctx, naming.IngressFirewallPattern(s.Cluster))
			if err != nil {
				warn(KindFirewall, err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, fw := range fws {
				if i, ok := naming.ParseIngressFirewall(s.Cluster, fw.Name); ok {
					obs.Firewalls[i] = fw
				} else {
					obs.Unparsed[KindFirewall] = append(obs.Unparsed[KindFirewall], fw.Name)
				}
			}
			return nil
		}},
	}
	if backend != "" {
		tasks = append(tasks, async.Task{Name: "backend service", Func: func(ctx context.Context) error {
			bs, err := s.Cloud.GetBackendService(ctx, backend)
			if err != nil {
				warn(KindBackendService, err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			obs.Backend = bs
			return nil
		}})
	}

	// Tasks swallow their own errors.
	_ = async.RunParallel(ctx, tasks)

	for kind := range obs.Unparsed {
		slices.Sort(obs.Unparsed[kind])
	}
	return obs
}
