// Package labels provides consistent labeling for GCE resources.
//
// GCE label keys may only contain lowercase letters, digits, '_' and '-', so
// the keys use a k8sgce- prefix instead of a domain. Labels are informational:
// ownership is always decided from the deterministic resource name (see
// package naming), since firewalls and peerings carry no labels at all.
package labels
