// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8sgce/cmd/k8sgce/handlers"
	"github.com/imamik/k8sgce/internal/reconcile"
)

// Root returns the root command for the k8sgce CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "k8sgce",
		Short:         "Reconcile private Kubernetes infrastructure on GCE",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Apply())
	cmd.AddCommand(Plan())
	cmd.AddCommand(Destroy())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

// bindRunFlags registers the flags shared by apply, plan and destroy.
func bindRunFlags(cmd *cobra.Command, opts *handlers.Options) {
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: k8sgce.yaml)")
	cmd.Flags().StringSliceVar(&opts.Domains, "domain", nil, "Restrict the run to these domains (identity, nodepools, ingress, peering)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Report format: text, yaml or json")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	cmd.Flags().StringVar(&opts.LogFormat, "log-format", "text", "Log format: text or json")

	_ = cmd.RegisterFlagCompletionFunc("domain", completeDomains)
	_ = cmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions([]string{"text", "yaml", "json"}, cobra.ShellCompDirectiveNoFileComp))
}

func completeDomains(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, len(reconcile.Domains))
	for i, d := range reconcile.Domains {
		names[i] = string(d)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
