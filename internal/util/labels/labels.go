package labels

// Standard label keys for GCE resources.
const (
	// KeyCluster identifies which cluster a resource belongs to
	KeyCluster = "k8sgce-cluster"

	// KeyRole identifies the role of an instance (control-plane, worker)
	KeyRole = "k8sgce-role"

	// KeyPool identifies the node pool name
	KeyPool = "k8sgce-pool"

	// KeyDomain identifies the reconciler that manages the resource
	KeyDomain = "k8sgce-domain"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "k8sgce-managed-by"
)

// Role values
const (
	RoleControlPlane = "control-plane"
	RoleWorker       = "worker"
)

// ManagedByK8sgce is the value of KeyManagedBy.
const ManagedByK8sgce = "k8sgce"

// LabelBuilder provides a fluent interface for building GCE resource labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the cluster name pre-set.
func NewLabelBuilder(clusterName string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyCluster:   clusterName,
			KeyManagedBy: ManagedByK8sgce,
		},
	}
}

// WithRole adds a role label (e.g., "control-plane", "worker").
func (lb *LabelBuilder) WithRole(role string) *LabelBuilder {
	lb.labels[KeyRole] = role
	return lb
}

// WithPool adds a pool name label.
func (lb *LabelBuilder) WithPool(pool string) *LabelBuilder {
	lb.labels[KeyPool] = pool
	return lb
}

// WithDomain adds the reconciliation domain label.
func (lb *LabelBuilder) WithDomain(domain string) *LabelBuilder {
	lb.labels[KeyDomain] = domain
	return lb
}

// Merge adds all labels from the provided map.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}
