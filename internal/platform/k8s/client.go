// Package k8s provides the membership API: the view of which instances have
// registered as cluster nodes, and their labels and taints.
package k8s

import (
	"context"
	"fmt"
	"maps"
	"slices"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	clientretry "k8s.io/client-go/util/retry"
)

// Membership is the narrow node API the reconciler uses.
type Membership interface {
	ListNodeNames(ctx context.Context) ([]string, error)
	// GetNode returns nil when the node has not registered.
	GetNode(ctx context.Context, name string) (*corev1.Node, error)
	// ApplyNodeSpec merges labels and taints into the node.
	ApplyNodeSpec(ctx context.Context, name string, labels map[string]string, taints []corev1.Taint) error
}

// Client implements Membership on a Kubernetes clientset.
type Client struct {
	clientset kubernetes.Interface
}

var _ Membership = (*Client)(nil)

// NewClient creates a client from a kubeconfig file.
func NewClient(kubeconfigPath string) (*Client, error) {
	config, err := clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	return &Client{clientset: clientset}, nil
}

// NewClientFromInterface wraps an existing clientset.
func NewClientFromInterface(clientset kubernetes.Interface) *Client {
	return &Client{clientset: clientset}
}

// ListNodeNames returns the sorted names of all registered nodes.
func (c *Client) ListNodeNames(ctx context.Context) ([]string, error) {
	nodes, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	names := make([]string, 0, len(nodes.Items))
	for _, n := range nodes.Items {
		names = append(names, n.Name)
	}
	slices.Sort(names)
	return names, nil
}

// GetNode returns the node or nil when it does not exist.
func (c *Client) GetNode(ctx context.Context, name string) (*corev1.Node, error) {
	node, err := c.clientset.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node %s: %w", name, err)
	}
	return node, nil
}

// ApplyNodeSpec merges labels and taints into the node, retrying on update
// conflicts. Labels and taints not named are left untouched.
func (c *Client) ApplyNodeSpec(ctx context.Context, name string, labels map[string]string, taints []corev1.Taint) error {
	return clientretry.RetryOnConflict(clientretry.DefaultRetry, func() error {
		node, err := c.clientset.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return err
		}
		if NodeMatches(node, labels, taints) {
			return nil
		}
		updated := node.DeepCopy()
		if updated.Labels == nil {
			updated.Labels = make(map[string]string, len(labels))
		}
		maps.Copy(updated.Labels, labels)
		updated.Spec.Taints = mergeTaints(updated.Spec.Taints, taints)

		_, err = c.clientset.CoreV1().Nodes().Update(ctx, updated, metav1.UpdateOptions{})
		return err
	})
}

// NodeMatches reports whether node already carries every label and taint.
func NodeMatches(node *corev1.Node, labels map[string]string, taints []corev1.Taint) bool {
	for k, v := range labels {
		if got, ok := node.Labels[k]; !ok || got != v {
			return false
		}
	}
	for _, want := range taints {
		found := slices.ContainsFunc(node.Spec.Taints, func(t corev1.Taint) bool {
			return t.Key == want.Key && t.Effect == want.Effect && t.Value == want.Value
		})
		if !found {
			return false
		}
	}
	return true
}

// mergeTaints replaces taints with the same key and effect and appends the rest.
func mergeTaints(existing, desired []corev1.Taint) []corev1.Taint {
	out := slices.Clone(existing)
	for _, want := range desired {
		i := slices.IndexFunc(out, func(t corev1.Taint) bool {
			return t.Key == want.Key && t.Effect == want.Effect
		})
		if i >= 0 {
			out[i] = want
		} else {
			out = append(out, want)
		}
	}
	return out
}
