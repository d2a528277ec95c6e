package rpc

import (
	"errors"
	"fmt"
)

// RPCError is returned when a node request fails.
type RPCError struct {
	Operation string
	Message   string
	Status    int
}

func (e *RPCError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("RPC %s failed: HTTP %d: %s", e.Operation, e.Status, e.Message)
	}
	return fmt.Sprintf("RPC %s failed: %s", e.Operation, e.Message)
}

// ShouldSilenceUsage implements common.SilenceUsageError.
func (e *RPCError) ShouldSilenceUsage() bool { return true }

// NotFoundError is returned when a resource is not found.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.Resource)
}

// IsNotFound returns true if err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// ConnectionError is returned when the endpoint cannot be reached.
type ConnectionError struct {
	Endpoint string
	Message  string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %s", e.Endpoint, e.Message)
}

// ShouldSilenceUsage implements common.SilenceUsageError.
func (e *ConnectionError) ShouldSilenceUsage() bool { return true }

// RecoveryHint implements common.RecoverableError.
func (e *ConnectionError) RecoveryHint() string {
	return "check that the node and its sidecar are running, or pass --sim to use the in-process chain"
}

// TimeoutError is returned when an extrinsic is not seen in a finalized
// block within the block budget.
type TimeoutError struct {
	Operation string
	Blocks    int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %d blocks", e.Operation, e.Blocks)
}

// IsTimeout returns true if err is or wraps a TimeoutError.
func IsTimeout(err error) bool {
	var e *TimeoutError
	return errors.As(err, &e)
}
