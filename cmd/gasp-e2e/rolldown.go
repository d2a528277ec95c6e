package main

import (
	"github.com/spf13/cobra"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// RolldownStatus is the JSON output of 'rolldown status'.
type RolldownStatus struct {
	L1              string        `json:"l1"`
	NextOriginID    uint64        `json:"next_origin_request_id"`
	LastProcessedL1 uint64        `json:"last_processed_request_on_l2"`
	Sequencer       chain.Address `json:"sequencer,omitempty"`
	ReadRights      uint64        `json:"read_rights,omitempty"`
	CancelRights    uint64        `json:"cancel_rights,omitempty"`
}

func NewRolldownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rolldown",
		Short: "Inspect the rolldown pallet and the L1 side",
	}
	cmd.AddCommand(newRolldownStatusCmd(), newRolldownL1BalanceCmd())
	return cmd
}

func newRolldownStatusCmd() *cobra.Command {
	var sequencer string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show request counters and sequencer rights for the configured L1",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withSession(cmd.Context(), func(s *session) error {
				ctx := cmd.Context()
				l1, err := s.layer1()
				if err != nil {
					return err
				}
				svc, err := s.rolldown(ctx, false)
				if err != nil {
					return err
				}

				status := RolldownStatus{L1: l1.String()}
				if status.NextOriginID, err = svc.L2OriginRequestID(ctx, l1); err != nil {
					return err
				}
				if status.LastProcessedL1, err = svc.LastProcessedRequestOnL2(ctx, l1); err != nil {
					return err
				}
				if sequencer != "" {
					addr, err := s.resolveAddress(sequencer)
					if err != nil {
						return err
					}
					rights, err := svc.SequencerRights(ctx, l1, addr)
					if err != nil {
						return err
					}
					status.Sequencer = addr
					status.ReadRights = rights.Read
					status.CancelRights = rights.Cancel
				}

				if jsonOutput() {
					return printJSON(cmd.OutOrStdout(), status)
				}
				logger.Bold("Rolldown (%s)", status.L1)
				logger.Info("  next origin request id:   %d", status.NextOriginID)
				logger.Info("  last processed request:   %d", status.LastProcessedL1)
				if status.Sequencer != "" {
					logger.Info("  sequencer %s: read=%d cancel=%d", status.Sequencer, status.ReadRights, status.CancelRights)
				}
				return nil
			})
			return handleCommandError(cmd, err)
		},
	}
	cmd.Flags().StringVar(&sequencer, "sequencer", "",
		"Also show the rights of this sequencer (address or secret URI)")
	return cmd
}

func newRolldownL1BalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "l1-balance <token> <holder>",
		Short: "Read an ERC20 balance on the L1",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := chain.ParseAddress(args[0])
			if err != nil {
				return handleCommandError(cmd, err)
			}
			err = withSession(cmd.Context(), func(s *session) error {
				holder, err := s.resolveAddress(args[1])
				if err != nil {
					return err
				}
				if _, err := s.rolldown(cmd.Context(), true); err != nil {
					return err
				}
				bal, err := s.l1.BalanceOf(cmd.Context(), token, holder)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return printJSON(cmd.OutOrStdout(), map[string]string{"token": string(token), "holder": string(holder), "balance": bal.String()})
				}
				logger.Info("%s", bal)
				return nil
			})
			return handleCommandError(cmd, err)
		},
	}
}
