package config

// Config is the cluster configuration as written by the operator.
type Config struct {
	ClusterName     string `yaml:"cluster_name"`
	Project         string `yaml:"project"`
	Region          string `yaml:"region"`
	Zone            string `yaml:"zone"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`

	// Kubeconfig enables the membership API (node registration and
	// label/taint application). Empty means the cluster is not reachable yet.
	Kubeconfig string `yaml:"kubeconfig,omitempty"`

	Identity  IdentityConfig  `yaml:"identity"`
	Ingress   IngressConfig   `yaml:"ingress"`
	Peering   PeeringConfig   `yaml:"peering"`
	NodePools NodePoolsConfig `yaml:"node_pools"`
}

// IdentityConfig configures the cluster service account.
type IdentityConfig struct {
	// ServiceAccount is a custom account id. When empty an account named
	// {cluster}-{6 hex} is reused or generated.
	ServiceAccount string `yaml:"service_account,omitempty"`
}

// IngressConfig configures public ingress paths.
type IngressConfig struct {
	// Groups is the ingress spec: semicolon-separated groups, each a
	// comma-separated list of port, port/tcp or port/udp tokens.
	Groups string `yaml:"groups"`

	// Backend is the regional backend service forwarding rules point at. Defaults to
	// {cluster}-ingress.
	Backend string `yaml:"backend,omitempty"`

	// SourceRanges restricts the ingress firewalls. Defaults to 0.0.0.0/0.
	SourceRanges []string `yaml:"source_ranges,omitempty"`
}

// PeeringConfig configures network peering with other clusters.
type PeeringConfig struct {
	Peers []string `yaml:"peers"`

	// Ports is the port list opened on the remote side for this cluster's
	// node and pod ranges, in ingress token syntax. Empty admits all traffic.
	Ports string `yaml:"ports,omitempty"`
}

// NodePoolsConfig configures node pools.
type NodePoolsConfig struct {
	// Names lists the pools in provisioning order.
	Names []string `yaml:"names"`

	// ControlPlane names the pool that must converge before any other pool.
	ControlPlane string `yaml:"control_plane,omitempty"`

	// Image is the source image for every instance.
	Image string `yaml:"image"`

	// Attributes is the keyed pool table, e.g. WORKERS_COUNT: "3".
	Attributes map[string]string `yaml:"attributes"`
}
