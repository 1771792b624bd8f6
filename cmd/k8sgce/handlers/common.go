// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/k8sgce/internal/config"
	"github.com/imamik/k8sgce/internal/desired"
	"github.com/imamik/k8sgce/internal/metrics"
	"github.com/imamik/k8sgce/internal/orchestration"
	"github.com/imamik/k8sgce/internal/platform/gce"
	"github.com/imamik/k8sgce/internal/platform/k8s"
	"github.com/imamik/k8sgce/internal/reconcile"
	"github.com/imamik/k8sgce/internal/ui"
)

// Options are the flags shared by apply, plan and destroy.
type Options struct {
	ConfigPath    string
	Domains       []string
	ForceIdentity bool
	Output        string
	MetricsFile   string
	LogLevel      string
	LogFormat     string
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// newCloudClient creates the cloud resource client.
	newCloudClient = func(ctx context.Context, loc gce.Location, credentialsFile string) (gce.ResourceAPI, error) {
		return gce.NewRealClient(ctx, loc, credentialsFile)
	}

	// newMembership creates the cluster membership client.
	newMembership = func(kubeconfigPath string) (k8s.Membership, error) {
		return k8s.NewClient(kubeconfigPath)
	}

	// loadConfigFile loads config from file (for testing injection).
	loadConfigFile = config.LoadFile

	// findConfigFile finds the default config file (for testing injection).
	findConfigFile = config.FindConfigFile

	// loadTimeouts loads retry and poll settings (for testing injection).
	loadTimeouts = config.LoadTimeouts

	// stdout receives the rendered report.
	stdout io.Writer = os.Stdout

	// stderr receives log output.
	stderr io.Writer = os.Stderr
)

// loadConfig loads and validates cluster configuration.
// If configPath is empty, it looks for k8sgce.yaml in the current directory.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		path, err := findConfigFile()
		if err != nil {
			return nil, fmt.Errorf("no config file found: %w", err)
		}
		configPath = path
	}

	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}
	return cfg, nil
}

func parseDomains(names []string) ([]reconcile.Domain, error) {
	domains := make([]reconcile.Domain, 0, len(names))
	for _, name := range names {
		d, err := reconcile.ParseDomain(name)
		if err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, nil
}

// runFunc executes one mode of the reconciler.
type runFunc func(ctx context.Context, r *orchestration.Reconciler) (*orchestration.Report, error)

// run wires configuration, clients, logging and metrics, executes fn and
// renders the report. A partial report is rendered even when fn fails.
func run(ctx context.Context, opts Options, fn runFunc) error {
	format, err := ui.ParseFormat(opts.Output)
	if err != nil {
		return err
	}
	domains, err := parseDomains(opts.Domains)
	if err != nil {
		return err
	}
	logger, err := newLogger(stderr, opts.LogLevel, opts.LogFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	log := logger.WithValues("cluster", cfg.ClusterName)

	// Invalid input fails before any client is created.
	st, err := desired.Parse(cfg)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	timeouts := loadTimeouts()
	loc := gce.Location{Project: cfg.Project, Region: cfg.Region, Zone: cfg.Zone}
	cloud, err := newCloudClient(ctx, loc, cfg.CredentialsFile)
	if err != nil {
		return fmt.Errorf("failed to create cloud client: %w", err)
	}

	registry := prometheus.NewRegistry()
	scope := reconcile.NewScope(cfg.ClusterName, cloud).
		WithTimeouts(*timeouts).
		WithObserver(reconcile.NewLogObserver(log)).
		WithMetrics(metrics.NewCollector(registry)).
		WithForceIdentity(opts.ForceIdentity)

	if cfg.Kubeconfig != "" {
		members, err := newMembership(cfg.Kubeconfig)
		if err != nil {
			return fmt.Errorf("failed to create cluster client: %w", err)
		}
		scope = scope.WithMembers(members)
	} else {
		log.V(1).Info("no kubeconfig configured, node registration steps are deferred")
	}

	r := orchestration.NewReconciler(scope, st, orchestration.WithDomains(domains...))
	report, runErr := fn(ctx, r)

	if report != nil {
		if err := ui.NewRenderer(stdout, format).Render(report); err != nil {
			log.Error(err, "failed to render report")
		}
	}
	if opts.MetricsFile != "" {
		if err := metrics.WriteTextfile(registry, opts.MetricsFile); err != nil {
			log.Error(err, "failed to write metrics")
		}
	}

	return runErr
}
