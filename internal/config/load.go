package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFilename is the default configuration filename.
const DefaultConfigFilename = "k8sgce.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "K8SGCE"

// PoolAttributes lists the attributes of the keyed pool table.
var PoolAttributes = []string{
	"COUNT",
	"MACHINE_TYPE",
	"DISK_SIZE",
	"DISK_TYPE",
	"LABELS",
	"TAINTS",
	"NETWORK_MODE",
}

// LoadFile reads, overlays environment overrides and validates the configuration.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	ApplyEnv(cfg, NewEnv())

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML without validation or environment overlay.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if cfg.NodePools.Attributes == nil {
		cfg.NodePools.Attributes = make(map[string]string)
	}
	return &cfg, nil
}

// NewEnv returns a viper instance reading K8SGCE_* environment variables.
func NewEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// ApplyEnv overlays values present in v onto cfg.
func ApplyEnv(cfg *Config, v *viper.Viper) {
	scalars := map[string]*string{
		"cluster_name":             &cfg.ClusterName,
		"project":                  &cfg.Project,
		"region":                   &cfg.Region,
		"zone":                     &cfg.Zone,
		"credentials_file":         &cfg.CredentialsFile,
		"kubeconfig":               &cfg.Kubeconfig,
		"identity.service_account": &cfg.Identity.ServiceAccount,
		"ingress.groups":           &cfg.Ingress.Groups,
		"ingress.backend":          &cfg.Ingress.Backend,
		"peering.ports":            &cfg.Peering.Ports,
		"node_pools.image":         &cfg.NodePools.Image,
	}
	for key, dst := range scalars {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	if v.IsSet("peering.peers") {
		cfg.Peering.Peers = splitList(v.GetString("peering.peers"))
	}

	if cfg.NodePools.Attributes == nil {
		cfg.NodePools.Attributes = make(map[string]string)
	}
	for _, pool := range cfg.NodePools.Names {
		for _, attr := range PoolAttributes {
			key := AttributeKey(pool, attr)
			if v.IsSet(key) {
				cfg.NodePools.Attributes[key] = v.GetString(key)
			}
		}
	}
}

// AttributeKey returns the table key <POOL>_<ATTRIBUTE> for a pool.
func AttributeKey(pool, attribute string) string {
	return strings.ToUpper(strings.ReplaceAll(pool, "-", "_")) + "_" + attribute
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}

// FindConfigFile returns the default config file in the working directory.
func FindConfigFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	path := filepath.Join(cwd, DefaultConfigFilename)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%s not found in %s", DefaultConfigFilename, cwd)
	}
	return path, nil
}
