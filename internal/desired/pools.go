package desired

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/imamik/k8sgce/internal/config"
	"github.com/imamik/k8sgce/internal/util/labels"
)

// NetworkMode selects how instances attach to the network.
type NetworkMode string

const (
	// NetworkPrivate attaches instances with internal addresses only.
	NetworkPrivate NetworkMode = "private"
	// NetworkPublic adds an ephemeral external address.
	NetworkPublic NetworkMode = "public"
)

// Pool defaults for optional attributes.
const (
	DefaultDiskSizeGB  = 50
	DefaultDiskType    = "pd-balanced"
	DefaultNetworkMode = NetworkPrivate
)

// NodePoolSpec is the validated spec of one node pool.
type NodePoolSpec struct {
	Name        string
	Role        string
	Count       int
	MachineType string
	DiskSizeGB  int64
	DiskType    string
	Image       string
	NetworkMode NetworkMode
	Labels      map[string]string
	Taints      []corev1.Taint
}

// NodePools is the set of desired pools keyed by name, with the order in
// which they are reconciled.
type NodePools struct {
	Specs        map[string]NodePoolSpec
	Order        []string
	ControlPlane string
}

// Workers returns the non control-plane pools in order.
func (p NodePools) Workers() []NodePoolSpec {
	var out []NodePoolSpec
	for _, name := range p.Order {
		if name != p.ControlPlane {
			out = append(out, p.Specs[name])
		}
	}
	return out
}

// ParsePools validates the keyed attribute table of cfg into typed specs.
// COUNT and MACHINE_TYPE are mandatory; keys naming an unknown pool or
// attribute are rejected.
func ParsePools(cfg config.NodePoolsConfig) (NodePools, error) {
	pools := NodePools{
		Specs:        make(map[string]NodePoolSpec, len(cfg.Names)),
		Order:        slices.Clone(cfg.Names),
		ControlPlane: cfg.ControlPlane,
	}

	known := make(map[string]bool, len(cfg.Names)*len(config.PoolAttributes))
	var errs []error

	for _, name := range cfg.Names {
		for _, attr := range config.PoolAttributes {
			known[config.AttributeKey(name, attr)] = true
		}
		spec, err := parsePool(name, cfg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		pools.Specs[name] = spec
	}

	for _, key := range slices.Sorted(maps.Keys(cfg.Attributes)) {
		if !known[key] {
			errs = append(errs, parseErr("node_pools.attributes", key, "unknown pool attribute"))
		}
	}

	if len(errs) > 0 {
		return NodePools{}, errors.Join(errs...)
	}
	return pools, nil
}

func parsePool(name string, cfg config.NodePoolsConfig) (NodePoolSpec, error) {
	lookup := func(attr string) (string, string, bool) {
		key := config.AttributeKey(name, attr)
		v, ok := cfg.Attributes[key]
		return key, strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	role := labels.RoleWorker
	if name == cfg.ControlPlane {
		role = labels.RoleControlPlane
	}

	spec := NodePoolSpec{
		Name:        name,
		Role:        role,
		Image:       cfg.Image,
		DiskSizeGB:  DefaultDiskSizeGB,
		DiskType:    DefaultDiskType,
		NetworkMode: DefaultNetworkMode,
		Labels:      map[string]string{},
	}
	var errs []error

	if key, v, ok := lookup("COUNT"); !ok {
		errs = append(errs, parseErr(key, "", "missing mandatory pool field"))
	} else if n, err := strconv.Atoi(v); err != nil || n < 0 {
		errs = append(errs, parseErr(key, v, "count must be a non-negative integer"))
	} else {
		spec.Count = n
	}

	if key, v, ok := lookup("MACHINE_TYPE"); !ok {
		errs = append(errs, parseErr(key, "", "missing mandatory pool field"))
	} else {
		spec.MachineType = v
	}

	if key, v, ok := lookup("DISK_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 10 {
			errs = append(errs, parseErr(key, v, "disk size must be an integer of at least 10 (GB)"))
		} else {
			spec.DiskSizeGB = n
		}
	}

	if _, v, ok := lookup("DISK_TYPE"); ok {
		spec.DiskType = v
	}

	if key, v, ok := lookup("NETWORK_MODE"); ok {
		switch NetworkMode(v) {
		case NetworkPrivate, NetworkPublic:
			spec.NetworkMode = NetworkMode(v)
		default:
			errs = append(errs, parseErr(key, v, "network mode must be private or public"))
		}
	}

	if key, v, ok := lookup("LABELS"); ok {
		parsed, err := parseLabels(key, v)
		if err != nil {
			errs = append(errs, err)
		} else {
			spec.Labels = parsed
		}
	}

	if key, v, ok := lookup("TAINTS"); ok {
		parsed, err := parseTaints(key, v)
		if err != nil {
			errs = append(errs, err)
		} else {
			spec.Taints = parsed
		}
	}

	if len(errs) > 0 {
		return NodePoolSpec{}, errors.Join(errs...)
	}
	return spec, nil
}

// parseLabels parses "key=value,key2=value2".
func parseLabels(field, s string) (map[string]string, error) {
	out := make(map[string]string)
	var errs []error
	for _, raw := range strings.Split(s, ",") {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			errs = append(errs, parseErr(field, token, "label must be key=value"))
			continue
		}
		if msgs := validation.IsQualifiedName(key); len(msgs) > 0 {
			errs = append(errs, parseErr(field, token, "invalid label key: %s", strings.Join(msgs, "; ")))
			continue
		}
		if msgs := validation.IsValidLabelValue(value); len(msgs) > 0 {
			errs = append(errs, parseErr(field, token, "invalid label value: %s", strings.Join(msgs, "; ")))
			continue
		}
		out[key] = value
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// parseTaints parses "key=value:Effect,key2:Effect".
func parseTaints(field, s string) ([]corev1.Taint, error) {
	var out []corev1.Taint
	var errs []error
	for _, raw := range strings.Split(s, ",") {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		kv, effect, ok := strings.Cut(token, ":")
		if !ok {
			errs = append(errs, parseErr(field, token, "taint must be key[=value]:Effect"))
			continue
		}
		key, value, _ := strings.Cut(kv, "=")
		if msgs := validation.IsQualifiedName(key); len(msgs) > 0 {
			errs = append(errs, parseErr(field, token, "invalid taint key: %s", strings.Join(msgs, "; ")))
			continue
		}
		switch corev1.TaintEffect(effect) {
		case corev1.TaintEffectNoSchedule, corev1.TaintEffectPreferNoSchedule, corev1.TaintEffectNoExecute:
		default:
			errs = append(errs, parseErr(field, token, "effect must be NoSchedule, PreferNoSchedule or NoExecute"))
			continue
		}
		out = append(out, corev1.Taint{Key: key, Value: value, Effect: corev1.TaintEffect(effect)})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	slices.SortFunc(out, func(a, b corev1.Taint) int {
		return strings.Compare(TaintString(a), TaintString(b))
	})
	return out, nil
}

// TaintString renders a taint as key=value:Effect.
func TaintString(t corev1.Taint) string {
	if t.Value == "" {
		return fmt.Sprintf("%s:%s", t.Key, t.Effect)
	}
	return fmt.Sprintf("%s=%s:%s", t.Key, t.Value, t.Effect)
}
