// Package main is the entry point for the k8sgce CLI.
//
// k8sgce reconciles the cloud infrastructure of a private Kubernetes cluster
// on Google Compute Engine: the cluster service account, node pools, public
// ingress paths and network peering with other clusters. Every run observes
// the live state and converges it to the configuration; nothing is stored
// locally between runs.
//
// Commands: apply, plan, destroy, version, completion.
//
// For detailed usage information, run:
//
//	k8sgce --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/k8sgce/cmd/k8sgce/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
