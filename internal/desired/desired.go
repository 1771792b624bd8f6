package desired

import (
	"errors"
	"fmt"

	"github.com/imamik/k8sgce/internal/config"
	"github.com/imamik/k8sgce/internal/util/naming"
)

// DefaultSourceRange opens ingress firewalls to the internet.
const DefaultSourceRange = "0.0.0.0/0"

// State is the complete desired state of one cluster.
type State struct {
	Cluster string

	Ingress             []IngressGroup
	IngressBackend      string
	IngressSourceRanges []string

	Peers     []PeerLink
	PeerPorts PortSet

	Pools NodePools

	// ServiceAccount is the custom service account id; empty selects the
	// generated {cluster}-{hex} account.
	ServiceAccount string
}

// Parse builds the desired state from cfg. It returns every problem found,
// joined, and no state unless all of cfg parses.
func Parse(cfg *config.Config) (*State, error) {
	var errs []error

	groups, err := ParseIngress(cfg.Ingress.Groups)
	if err != nil {
		errs = append(errs, err)
	}

	peers, err := ParsePeers(cfg.ClusterName, cfg.Peering.Peers)
	if err != nil {
		errs = append(errs, err)
	}

	peerPorts, err := ParsePortList("peering.ports", cfg.Peering.Ports)
	if err != nil {
		errs = append(errs, err)
	}

	pools, err := ParsePools(cfg.NodePools)
	if err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid desired state: %w", errors.Join(errs...))
	}

	backend := cfg.Ingress.Backend
	if backend == "" {
		backend = naming.IngressBackend(cfg.ClusterName)
	}
	sources := cfg.Ingress.SourceRanges
	if len(sources) == 0 {
		sources = []string{DefaultSourceRange}
	}

	return &State{
		Cluster:             cfg.ClusterName,
		Ingress:             groups,
		IngressBackend:      backend,
		IngressSourceRanges: sources,
		Peers:               peers,
		PeerPorts:           peerPorts,
		Pools:               pools,
		ServiceAccount:      cfg.Identity.ServiceAccount,
	}, nil
}
