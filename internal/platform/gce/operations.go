package gce

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/compute/v1"
)

const operationDone = "DONE"

// wait blocks until op is DONE or the operation timeout elapses. The Wait
// endpoints return early after about two minutes; those are polled again.
func (c *RealClient) wait(ctx context.Context, op *compute.Operation) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Operation)
	defer cancel()

	name := op.Name
	for op.Status != operationDone {
		var err error
		switch {
		case op.Zone != "":
			op, err = c.compute.ZoneOperations.Wait(c.loc.Project, ResourceName(op.Zone), name).Context(ctx).Do()
		case op.Region != "":
			op, err = c.compute.RegionOperations.Wait(c.loc.Project, ResourceName(op.Region), name).Context(ctx).Do()
		default:
			op, err = c.compute.GlobalOperations.Wait(c.loc.Project, name).Context(ctx).Do()
		}
		if err != nil {
			return fmt.Errorf("failed to wait for operation %s: %w", name, err)
		}
		if op.Status == operationDone {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for operation %s: %w", name, ctx.Err())
		case <-time.After(c.timeouts.OperationPoll):
		}
	}

	return operationError(op)
}

func operationError(op *compute.Operation) error {
	if op.Error == nil || len(op.Error.Errors) == 0 {
		return nil
	}
	e := &OperationError{Operation: op.Name}
	for _, item := range op.Error.Errors {
		e.Codes = append(e.Codes, item.Code)
		e.Messages = append(e.Messages, item.Message)
	}
	return e
}
