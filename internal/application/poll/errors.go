package poll

import (
	"errors"
	"fmt"
)

// TimeoutError is returned when a wait loop exhausts its block budget.
type TimeoutError struct {
	Operation string
	Blocks    int
	Last      string
}

func (e *TimeoutError) Error() string {
	if e.Last != "" {
		return fmt.Sprintf("%s timed out after %d blocks (last value %s)", e.Operation, e.Blocks, e.Last)
	}
	return fmt.Sprintf("%s timed out after %d blocks", e.Operation, e.Blocks)
}

// ShouldSilenceUsage implements common.SilenceUsageError.
func (e *TimeoutError) ShouldSilenceUsage() bool { return true }

// IsTimeout returns true if err is or wraps a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
