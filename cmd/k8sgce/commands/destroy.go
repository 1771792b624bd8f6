package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8sgce/cmd/k8sgce/handlers"
)

// Destroy returns the command for tearing down cluster infrastructure.
//
// Only resources carrying the cluster's name are removed. A custom service
// account named in the configuration survives unless --force-identity is
// passed.
func Destroy() *cobra.Command {
	var opts handlers.Options

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy the cluster infrastructure",
		Long: `Destroy removes all cluster resources from the project.

Resources are removed in reverse dependency order: peering, ingress,
node pools, then the cluster service account. Resources that do not follow
the cluster naming convention are never touched.

Examples:
  # Destroy everything but a custom service account
  k8sgce destroy -c k8sgce.yaml

  # Also delete the custom service account
  k8sgce destroy --force-identity`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), opts)
		},
	}

	bindRunFlags(cmd, &opts)
	cmd.Flags().BoolVar(&opts.ForceIdentity, "force-identity", false, "Also delete a custom service account")

	return cmd
}
