package commands

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo sets the version information from main.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// vcsRevision returns the revision stamped by the Go toolchain, for builds
// made without release ldflags.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}

// Version returns the version command.
func Version() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the k8sgce version, commit and build date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rev := commit
			if rev == "none" {
				if r := vcsRevision(); r != "" {
					rev = r
				}
			}
			out := cmd.OutOrStdout()
			_, err := fmt.Fprintf(out, "k8sgce %s (commit %s, built %s, %s %s/%s)\n",
				version, rev, date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return err
		},
	}
}
