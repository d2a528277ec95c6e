// Package common holds the error behaviors shared by the harness layers.
//
// Infrastructure and application errors opt into these interfaces; the CLI
// checks them through the helpers below to decide how to print a failure.
package common

import "errors"

// SilenceUsageError is implemented by errors raised after the command line
// was parsed correctly, such as a rejected extrinsic, an unreachable
// sidecar or a missing key. Cobra should not print usage for them.
type SilenceUsageError interface {
	error
	ShouldSilenceUsage() bool
}

// UserFacingError carries a message meant for the terminal in place of
// the wrapped error chain.
type UserFacingError interface {
	error
	UserMessage() string
}

// RecoverableError suggests what to do next, e.g. which URL to check.
type RecoverableError interface {
	error
	RecoveryHint() string
}

// ShouldSilenceUsage reports whether any error in err's chain asks to
// silence usage output.
func ShouldSilenceUsage(err error) bool {
	var sue SilenceUsageError
	if errors.As(err, &sue) {
		return sue.ShouldSilenceUsage()
	}
	return false
}

// GetUserMessage returns the first user message in err's chain, or
// err.Error() when there is none.
func GetUserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ufe UserFacingError
	if errors.As(err, &ufe) {
		if msg := ufe.UserMessage(); msg != "" {
			return msg
		}
	}
	return err.Error()
}

// GetRecoveryHint returns the first recovery hint in err's chain.
func GetRecoveryHint(err error) string {
	var re RecoverableError
	if errors.As(err, &re) {
		return re.RecoveryHint()
	}
	return ""
}
