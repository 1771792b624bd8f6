package gce

import (
	"context"
	"fmt"

	"google.golang.org/api/compute/v1"
	iam "google.golang.org/api/iam/v1"
	"google.golang.org/api/option"

	"github.com/imamik/k8sgce/internal/config"
)

// RealClient implements ResourceAPI on the Compute Engine and IAM APIs.
type RealClient struct {
	compute  *compute.Service
	iam      *iam.Service
	loc      Location
	timeouts *config.Timeouts
}

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithTimeouts sets custom timeouts for the client.
func WithTimeouts(t *config.Timeouts) ClientOption {
	return func(c *RealClient) {
		c.timeouts = t
	}
}

// WithComputeService sets a prebuilt compute service (useful for testing).
func WithComputeService(s *compute.Service) ClientOption {
	return func(c *RealClient) {
		c.compute = s
	}
}

// WithIAMService sets a prebuilt IAM service (useful for testing).
func WithIAMService(s *iam.Service) ClientOption {
	return func(c *RealClient) {
		c.iam = s
	}
}

// NewRealClient creates a client bound to loc. An empty credentialsFile
// selects application default credentials.
func NewRealClient(ctx context.Context, loc Location, credentialsFile string, opts ...ClientOption) (*RealClient, error) {
	c := &RealClient{
		loc:      loc,
		timeouts: config.LoadTimeouts(),
	}
	for _, opt := range opts {
		opt(c)
	}

	var svcOpts []option.ClientOption
	if credentialsFile != "" {
		svcOpts = append(svcOpts, option.WithCredentialsFile(credentialsFile))
	}

	if c.compute == nil {
		svc, err := compute.NewService(ctx, svcOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create compute client: %w", err)
		}
		c.compute = svc
	}
	if c.iam == nil {
		svc, err := iam.NewService(ctx, svcOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create iam client: %w", err)
		}
		c.iam = svc
	}
	return c, nil
}

// Location implements ResourceAPI.
func (c *RealClient) Location() Location {
	return c.loc
}

// nameFilter builds a list filter matching names against an RE2 pattern.
func nameFilter(pattern string) string {
	return fmt.Sprintf("name eq '%s'", pattern)
}

// getOrNil maps a not-found result to (zero, nil).
func getOrNil[T any](v T, err error) (T, error) {
	if IsNotFound(err) {
		var zero T
		return zero, nil
	}
	return v, err
}

// mutate waits for the operation returned by a mutating call.
func (c *RealClient) mutate(ctx context.Context, op *compute.Operation, err error) error {
	if err != nil {
		return err
	}
	return c.wait(ctx, op)
}
