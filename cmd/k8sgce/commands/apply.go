package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8sgce/cmd/k8sgce/handlers"
)

// Apply returns the command that converges the cluster infrastructure.
//
// Optional flags:
//
//	--config, -c: Path to cluster configuration YAML file (default: auto-detect k8sgce.yaml)
//	--domain: Run only the named domains
//	--output, -o: Report format
//
// Environment variables:
//
//	GOOGLE_APPLICATION_CREDENTIALS: credentials used when the config names none
//	K8SGCE_*: overrides for configuration values and timeouts
func Apply() *cobra.Command {
	var opts handlers.Options

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create or update the cluster infrastructure",
		Long: `Converge the cluster infrastructure to the configuration.

Every run reads the live state of the project, computes the difference to
the configuration and applies it. Domains run in dependency order: identity,
control-plane pool, worker pools, ingress, peering. A failing domain halts
the run and the remaining domains are reported as skipped.

Re-running apply on a converged cluster makes no changes.

Examples:
  # Converge everything using k8sgce.yaml in current directory
  k8sgce apply

  # Converge only the ingress paths
  k8sgce apply --domain ingress

  # Use a specific config and print the report as YAML
  k8sgce apply -c production.yaml -o yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Apply(cmd.Context(), opts)
		},
	}

	bindRunFlags(cmd, &opts)

	return cmd
}
