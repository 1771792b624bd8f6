// Package retry provides exponential backoff retry logic for transient failures.
//
// The [WithExponentialBackoff] combinator retries an operation with a bounded
// number of attempts, a doubling delay and a retryable-vs-fatal predicate. It
// wraps every mutating call the reconcilers issue against the cloud API.
package retry
