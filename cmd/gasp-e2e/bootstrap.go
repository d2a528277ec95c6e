package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/b-harvest/gasp-e2e/internal/application/bootstrap"
	"github.com/b-harvest/gasp-e2e/internal/output"
)

var bootstrapMaxBlocks int

// PhaseResult is the JSON output of the bootstrap commands.
type PhaseResult struct {
	Phase   bootstrap.Phase `json:"phase"`
	Promote bool            `json:"promote_pool"`
}

func NewBootstrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Inspect the bootstrap pallet",
	}
	cmd.AddCommand(newBootstrapPhaseCmd(), newBootstrapWaitCmd())
	return cmd
}

func newBootstrapPhaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "phase",
		Short: "Show the current bootstrap phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleCommandError(cmd, withSession(cmd.Context(), func(s *session) error {
				return showPhase(cmd, s)
			}))
		},
	}
}

func showPhase(cmd *cobra.Command, s *session) error {
	svc := s.bootstrap()
	phase, err := svc.Phase(cmd.Context())
	if err != nil {
		return err
	}
	promote, err := svc.PromoteBootstrapPool(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), PhaseResult{Phase: phase, Promote: promote})
	}
	logger.Info("Phase:        %s", phase)
	logger.Info("Promote pool: %t", promote)
	return nil
}

func newBootstrapWaitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "wait <BeforeStart|Whitelist|Public|Finished>",
		Short:     "Wait until bootstrap reaches a phase",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(bootstrap.BeforeStart), string(bootstrap.Whitelist), string(bootstrap.Public), string(bootstrap.Finished)},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cobra.OnlyValidArgs(cmd, args); err != nil {
				return handleCommandError(cmd, err)
			}
			want := bootstrap.Phase(args[0])

			err := withSession(cmd.Context(), func(s *session) error {
				spinner := output.NewSpinner(logger.ErrWriter(), jsonOutput() || !output.IsInteractive())
				spinner.Start(fmt.Sprintf("Waiting for bootstrap phase %s", want))
				if err := s.bootstrap().WaitForPhase(cmd.Context(), want, bootstrapMaxBlocks); err != nil {
					spinner.Finish(fmt.Sprintf("Bootstrap did not reach %s", want), false)
					return err
				}
				spinner.Finish(fmt.Sprintf("Bootstrap is in phase %s", want), true)
				if jsonOutput() {
					return printJSON(cmd.OutOrStdout(), PhaseResult{Phase: want})
				}
				return nil
			})
			return handleCommandError(cmd, err)
		},
	}
	cmd.Flags().IntVar(&bootstrapMaxBlocks, "max-blocks", 10,
		"Give up after this many blocks")
	return cmd
}
