package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		ClusterName: "prod",
		Project:     "acme-infra",
		Region:      "europe-west1",
		Zone:        "europe-west1-b",
		Peering:     PeeringConfig{Peers: []string{"shared"}},
		NodePools: NodePoolsConfig{
			Names:        []string{"cp", "workers"},
			ControlPlane: "cp",
			Image:        "projects/acme/global/images/node",
		},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing cluster", func(c *Config) { c.ClusterName = "" }, "cluster_name is required"},
		{"invalid cluster", func(c *Config) { c.ClusterName = "Prod_1" }, "RFC 1035"},
		{"missing project", func(c *Config) { c.Project = "" }, "project is required"},
		{"missing region", func(c *Config) { c.Region = "" }, "region is required"},
		{"missing zone", func(c *Config) { c.Zone = "" }, "zone is required"},
		{"zone outside region", func(c *Config) { c.Zone = "us-east1-b" }, "not in region"},
		{"bad source range", func(c *Config) { c.Ingress.SourceRanges = []string{"10.0.0.0"} }, "invalid source range"},
		{"bad backend", func(c *Config) { c.Ingress.Backend = "Not A Name" }, "backend"},
		{"url backend", func(c *Config) {
			c.Ingress.Backend = "https://www.googleapis.com/compute/v1/projects/p/regions/r/backendServices/bs"
		}, ""},
		{"self peer", func(c *Config) { c.Peering.Peers = []string{"prod"} }, "itself"},
		{"duplicate peer", func(c *Config) { c.Peering.Peers = []string{"a", "a"} }, "listed twice"},
		{"invalid peer", func(c *Config) { c.Peering.Peers = []string{"A"} }, "not a valid cluster name"},
		{"duplicate pool", func(c *Config) { c.NodePools.Names = []string{"cp", "cp"} }, "listed twice"},
		{"unknown control plane", func(c *Config) { c.NodePools.ControlPlane = "masters" }, "not listed"},
		{"missing image", func(c *Config) { c.NodePools.Image = "" }, "image is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
