package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/b-harvest/gasp-e2e/internal/output"
)

var waitMaxBlocks uint64

// WaitResult is the JSON output of the wait commands.
type WaitResult struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

func NewWaitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Wait for finalized blocks",
	}
	cmd.AddCommand(newWaitBlocksCmd(), newWaitHeightCmd())
	return cmd
}

func newWaitBlocksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "blocks <n>",
		Short: "Wait until n more blocks are finalized",
		Args:  cobra.ExactArgs(1),
		RunE:  runWaitBlocks,
	}
}

func newWaitHeightCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "height <block>",
		Short: "Wait until a block height is finalized",
		Long: `Wait until the finalized head reaches block. Gives up after --max-blocks
new blocks (default: the configured max_attempts).`,
		Args: cobra.ExactArgs(1),
		RunE: runWaitHeight,
	}
	cmd.Flags().Uint64Var(&waitMaxBlocks, "max-blocks", 0,
		"Give up after this many blocks")
	return cmd
}

func runWaitBlocks(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return handleCommandError(cmd, fmt.Errorf("invalid block count %q", args[0]))
	}

	err = withSession(cmd.Context(), func(s *session) error {
		return waitBlocks(cmd, s, n)
	})
	return handleCommandError(cmd, err)
}

// waitBlocks waits for n new blocks on an open session.
func waitBlocks(cmd *cobra.Command, s *session, n int) error {
	ctx := cmd.Context()
	from, err := s.chain.BlockHeight(ctx)
	if err != nil {
		return err
	}

	progress := output.NewProgressTo(logger.Writer(), n)
	progress.SetNoColor(cfg.NoColor.Value)
	progress.SetJSONMode(jsonOutput())
	for i := 0; i < n; i++ {
		h, err := s.chain.NextBlock(ctx)
		if err != nil {
			return err
		}
		progress.Block(h)
	}

	to, err := s.chain.BlockHeight(ctx)
	if err != nil {
		return err
	}
	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), WaitResult{From: from, To: to})
	}
	progress.Done(fmt.Sprintf("Waited %d blocks (#%d -> #%d)", n, from, to))
	return nil
}

func runWaitHeight(cmd *cobra.Command, args []string) error {
	target, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return handleCommandError(cmd, fmt.Errorf("invalid block height %q", args[0]))
	}

	err = withSession(cmd.Context(), func(s *session) error {
		ctx := cmd.Context()
		maxBlocks := waitMaxBlocks
		if maxBlocks == 0 {
			maxBlocks = uint64(s.poller.MaxAttempts())
		}

		from, err := s.chain.BlockHeight(ctx)
		if err != nil {
			return err
		}

		spinner := output.NewSpinner(logger.ErrWriter(), jsonOutput() || !output.IsInteractive())
		spinner.Start(fmt.Sprintf("Waiting for block #%d", target))
		reached, err := s.poller.WaitUntilBlockHeight(ctx, target, maxBlocks)
		if err != nil {
			spinner.Finish(fmt.Sprintf("Block #%d not reached", target), false)
			return err
		}
		spinner.Finish(fmt.Sprintf("Reached block #%d", reached), true)

		if jsonOutput() {
			return printJSON(cmd.OutOrStdout(), WaitResult{From: from, To: reached})
		}
		return nil
	})
	return handleCommandError(cmd, err)
}
