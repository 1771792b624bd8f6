// Package testing provides test utilities, builders, and fixtures for the
// reconciler's unit tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - ConfigBuilder: Fluent builder for creating test configurations
//   - Fixture: an in-memory cloud with a reconcile.Scope bound to it
//
// Usage:
//
//	cfg := testing.NewConfigBuilder().
//	    WithClusterName("alpha").
//	    WithIngress("80,443/tcp").
//	    Build()
//
//	fx := testing.NewFixture(t, "alpha")
//	res, err := ingress.Reconcile(ctx, fx.Scope, spec)
package testing
