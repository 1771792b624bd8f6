package desired

import (
	"errors"
	"fmt"
)

// PeerLink is a desired peering between the local cluster and a remote one.
type PeerLink struct {
	Local  string
	Remote string
}

func (l PeerLink) String() string {
	return fmt.Sprintf("%s<->%s", l.Local, l.Remote)
}

// ParsePeers builds the ordered peer list of local.
func ParsePeers(local string, remotes []string) ([]PeerLink, error) {
	links := make([]PeerLink, 0, len(remotes))
	seen := make(map[string]bool, len(remotes))
	var errs []error

	for _, remote := range remotes {
		switch {
		case remote == "":
			errs = append(errs, parseErr("peering.peers", remote, "empty peer name"))
		case remote == local:
			errs = append(errs, parseErr("peering.peers", remote, "cluster cannot peer with itself"))
		case seen[remote]:
			errs = append(errs, parseErr("peering.peers", remote, "listed twice"))
		default:
			seen[remote] = true
			links = append(links, PeerLink{Local: local, Remote: remote})
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return links, nil
}
