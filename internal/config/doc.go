// Package config defines the on-disk configuration of a cluster and loads it.
//
// [Config] is the raw, user-facing form: the ingress spec is still a compact
// string and node pool attributes are still a flat <POOL>_<ATTRIBUTE> table.
// Package desired turns it into validated domain objects. Environment
// variables prefixed with K8SGCE_ override file values.
package config
