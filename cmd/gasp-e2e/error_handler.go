package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/b-harvest/gasp-e2e/internal/application/wallet"
	"github.com/b-harvest/gasp-e2e/internal/config"
	"github.com/b-harvest/gasp-e2e/internal/domain/common"
	"github.com/b-harvest/gasp-e2e/internal/output"
)

// errAlreadyReported signals a failure whose message was already printed.
var errAlreadyReported = errors.New("")

// handleCommandError prints err in a user-friendly way and returns
// errAlreadyReported so cobra exits non-zero without printing it again.
//
// Usage in command handlers:
//
//	if err := doSomething(); err != nil {
//	    return handleCommandError(cmd, err)
//	}
func handleCommandError(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}

	if common.ShouldSilenceUsage(err) {
		cmd.SilenceUsage = true
	}

	if jsonOutput() {
		_ = printJSON(logger.ErrWriter(), map[string]string{"error": err.Error()})
		return errAlreadyReported
	}

	var rejected *wallet.TransactionRejectedError
	if errors.As(err, &rejected) {
		logger.PrintTxError(&output.TxErrorInfo{
			Call:     rejected.Call,
			Expected: rejected.Expected,
			Reason:   rejected.Reason,
			TxHash:   rejected.TxHash,
		})
		return errAlreadyReported
	}

	logger.Error("%s", common.GetUserMessage(err))
	if hint := common.GetRecoveryHint(err); hint != "" {
		fmt.Fprintf(logger.ErrWriter(), "\nHint: %s\n", hint)
	}

	return errAlreadyReported
}

// wrapInteractiveError treats prompt cancellation as a clean exit.
func wrapInteractiveError(cmd *cobra.Command, err error, context string) error {
	if err == nil {
		return nil
	}

	if isCancellation(err) {
		logger.Info("Operation cancelled.")
		return nil
	}

	if context != "" {
		return handleCommandError(cmd, fmt.Errorf("%s: %w", context, err))
	}
	return handleCommandError(cmd, err)
}

func isCancellation(err error) bool {
	return errors.Is(err, config.ErrCancelled) || errors.Is(err, errMenuExit)
}
