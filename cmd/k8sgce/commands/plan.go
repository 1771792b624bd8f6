package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8sgce/cmd/k8sgce/handlers"
)

// Plan returns the dry-run command.
func Plan() *cobra.Command {
	var opts handlers.Options

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the changes apply would make",
		Long: `Compute the changes apply would make without mutating anything.

The plan lists creates, updates and deletes per domain along with drifted
instances, deferred resources and deletions refused by the safety guard.

Examples:
  # Show the plan for every domain
  k8sgce plan

  # Machine-readable plan
  k8sgce plan -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Plan(cmd.Context(), opts)
		},
	}

	bindRunFlags(cmd, &opts)

	return cmd
}
