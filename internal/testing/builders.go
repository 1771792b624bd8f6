package testing

import (
	"maps"
	"slices"

	"github.com/imamik/k8sgce/internal/config"
)

// ConfigBuilder provides a fluent interface for constructing test configs.
// Each method returns a new builder (immutable) for chaining.
type ConfigBuilder struct {
	cfg config.Config
}

// NewConfigBuilder creates a new ConfigBuilder with sensible defaults: one
// control-plane pool "cp" of one e2-standard-4 instance.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		cfg: config.Config{
			ClusterName: "alpha",
			Project:     TestLocation.Project,
			Region:      TestLocation.Region,
			Zone:        TestLocation.Zone,
			NodePools: config.NodePoolsConfig{
				Names:        []string{"cp"},
				ControlPlane: "cp",
				Image:        "projects/cos-cloud/global/images/family/cos-stable",
				Attributes: map[string]string{
					"CP_COUNT":        "1",
					"CP_MACHINE_TYPE": "e2-standard-4",
				},
			},
		},
	}
}

// WithClusterName sets the cluster name.
func (b *ConfigBuilder) WithClusterName(name string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.ClusterName = name
	return newBuilder
}

// WithIngress sets the ingress spec.
func (b *ConfigBuilder) WithIngress(groups string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Ingress.Groups = groups
	return newBuilder
}

// WithPeers sets the peer list and the port list opened for peers.
func (b *ConfigBuilder) WithPeers(ports string, peers ...string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Peering.Peers = slices.Clone(peers)
	newBuilder.cfg.Peering.Ports = ports
	return newBuilder
}

// WithPool adds a pool with the given attribute table entries, keyed by
// attribute name without the pool prefix.
func (b *ConfigBuilder) WithPool(name string, attrs map[string]string) *ConfigBuilder {
	newBuilder := b.clone()
	if !slices.Contains(newBuilder.cfg.NodePools.Names, name) {
		newBuilder.cfg.NodePools.Names = append(newBuilder.cfg.NodePools.Names, name)
	}
	for attr, v := range attrs {
		newBuilder.cfg.NodePools.Attributes[config.AttributeKey(name, attr)] = v
	}
	return newBuilder
}

// WithAttribute sets one raw attribute table entry.
func (b *ConfigBuilder) WithAttribute(key, value string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.NodePools.Attributes[key] = value
	return newBuilder
}

// WithServiceAccount sets a custom service account id.
func (b *ConfigBuilder) WithServiceAccount(id string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Identity.ServiceAccount = id
	return newBuilder
}

// Build returns the constructed config.
func (b *ConfigBuilder) Build() *config.Config {
	cfg := b.clone().cfg
	return &cfg
}

func (b *ConfigBuilder) clone() *ConfigBuilder {
	c := b.cfg
	c.Peering.Peers = slices.Clone(b.cfg.Peering.Peers)
	c.Ingress.SourceRanges = slices.Clone(b.cfg.Ingress.SourceRanges)
	c.NodePools.Names = slices.Clone(b.cfg.NodePools.Names)
	c.NodePools.Attributes = maps.Clone(b.cfg.NodePools.Attributes)
	return &ConfigBuilder{cfg: c}
}
