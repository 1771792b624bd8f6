// Package gce provides the resource API the reconciler drives against
// Google Compute Engine and IAM.
//
// Every resource is addressed by its deterministic name. Get methods return
// (nil, nil) when the resource does not exist; List methods filter by an RE2
// name pattern. Mutating methods block until the underlying operation is DONE
// and surface operation errors as *OperationError.
package gce
