// Package async provides utilities for parallel execution of read-only tasks.
//
// The reconcilers use [RunParallel] to issue independent probe calls
// concurrently. Mutating calls never go through this package: they run
// sequentially to preserve dependency order.
package async
