package wallet

import (
	"errors"
	"fmt"

	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// AssetNotTrackedError is returned when a currency was never added to the
// user's wallet.
type AssetNotTrackedError struct {
	User     string
	Currency chain.CurrencyID
}

func (e *AssetNotTrackedError) Error() string {
	return fmt.Sprintf("asset %s is not tracked by user %s", e.Currency, e.User)
}

// IsAssetNotTracked returns true if err is or wraps an AssetNotTrackedError.
func IsAssetNotTracked(err error) bool {
	var e *AssetNotTrackedError
	return errors.As(err, &e)
}

// AssertionViolationError is returned when a balance check fails.
type AssertionViolationError struct {
	User     string
	Check    string
	Currency chain.CurrencyID
	Expected math.Int
	Actual   math.Int
}

func (e *AssertionViolationError) Error() string {
	return fmt.Sprintf("wallet %s of user %s: asset %s expected %s, got %s",
		e.Check, e.User, e.Currency, e.Expected, e.Actual)
}

// ShouldSilenceUsage implements common.SilenceUsageError.
func (e *AssertionViolationError) ShouldSilenceUsage() bool { return true }

// IsAssertionViolation returns true if err is or wraps an
// AssertionViolationError or a SnapshotNotCapturedError.
func IsAssertionViolation(err error) bool {
	var av *AssertionViolationError
	var sn *SnapshotNotCapturedError
	return errors.As(err, &av) || errors.As(err, &sn)
}

// SnapshotNotCapturedError is returned when a comparison runs before both
// snapshots of an asset were captured.
type SnapshotNotCapturedError struct {
	User     string
	Currency chain.CurrencyID
	Slot     Slot
}

func (e *SnapshotNotCapturedError) Error() string {
	return fmt.Sprintf("asset %s of user %s has no %s snapshot; refresh amounts first",
		e.Currency, e.User, e.Slot)
}

// TransactionRejectedError is returned when a submitted call did not emit
// its expected event.
type TransactionRejectedError struct {
	Call     string
	Expected string
	State    chain.ExtrinsicState
	Reason   string
	TxHash   string
}

func (e *TransactionRejectedError) Error() string {
	msg := fmt.Sprintf("%s rejected: expected %s, got %s", e.Call, e.Expected, e.State)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// ShouldSilenceUsage implements common.SilenceUsageError.
func (e *TransactionRejectedError) ShouldSilenceUsage() bool { return true }

// IsTransactionRejected returns true if err is or wraps a
// TransactionRejectedError.
func IsTransactionRejected(err error) bool {
	var e *TransactionRejectedError
	return errors.As(err, &e)
}

// RejectionReason returns the dispatch error name carried by err, if any.
func RejectionReason(err error) string {
	var e *TransactionRejectedError
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
