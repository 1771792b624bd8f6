package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout, retry and poll values.
// These values can be customized via environment variables.
type Timeouts struct {
	Operation         time.Duration // Timeout for a single GCE operation to reach DONE
	OperationPoll     time.Duration // Interval between operation status checks
	PollInterval      time.Duration // Interval of readiness poll loops
	PollAttempts      int           // Fixed number of readiness poll attempts
	RetryMaxAttempts  int           // Total attempts of a mutating call
	RetryInitialDelay time.Duration // Initial delay between retries, doubled per attempt
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - K8SGCE_TIMEOUT_OPERATION (default: 10m)
//   - K8SGCE_OPERATION_POLL (default: 2s)
//   - K8SGCE_POLL_INTERVAL (default: 5s)
//   - K8SGCE_POLL_ATTEMPTS (default: 60)
//   - K8SGCE_RETRY_MAX_ATTEMPTS (default: 5)
//   - K8SGCE_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Operation:         parseDuration("K8SGCE_TIMEOUT_OPERATION", 10*time.Minute),
		OperationPoll:     parseDuration("K8SGCE_OPERATION_POLL", 2*time.Second),
		PollInterval:      parseDuration("K8SGCE_POLL_INTERVAL", 5*time.Second),
		PollAttempts:      parseInt("K8SGCE_POLL_ATTEMPTS", 60),
		RetryMaxAttempts:  parseInt("K8SGCE_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("K8SGCE_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses a positive integer from an environment variable.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return defaultVal
	}

	return i
}
