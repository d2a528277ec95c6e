package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// BalanceRow is one currency of a balance report.
type BalanceRow struct {
	Currency chain.CurrencyID `json:"currency"`
	Free     string           `json:"free"`
	Reserved string           `json:"reserved"`
	Frozen   string           `json:"frozen"`
}

// BalanceReport is the JSON output of 'balance'.
type BalanceReport struct {
	Account  chain.Address `json:"account"`
	Balances []BalanceRow  `json:"balances"`
}

func NewBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account> [currency...]",
		Short: "Show free, reserved and frozen balances",
		Long: `Show an account's balances. The account is a 0x account id or a secret URI
such as //Alice. Without currencies the native currency (0) is shown.

Examples:
  gasp-e2e balance //Alice
  gasp-e2e balance 0x1c0f8d3ad3d4a0d4f3e1b0f10c0a5a4c0e9f1d2b 0 4 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: runBalance,
	}
}

func runBalance(cmd *cobra.Command, args []string) error {
	currencies := []chain.CurrencyID{chain.NativeCurrency}
	if len(args) > 1 {
		ids, err := parseCurrencies(args[1:])
		if err != nil {
			return handleCommandError(cmd, err)
		}
		currencies = ids
	}

	err := withSession(cmd.Context(), func(s *session) error {
		report, err := balanceReport(cmd.Context(), s, args[0], currencies)
		if err != nil {
			return err
		}
		return printBalanceReport(cmd, report)
	})
	return handleCommandError(cmd, err)
}

func balanceReport(ctx context.Context, s *session, account string, currencies []chain.CurrencyID) (BalanceReport, error) {
	addr, err := s.resolveAddress(account)
	if err != nil {
		return BalanceReport{}, err
	}
	balances, err := s.chain.FreeBalances(ctx, addr, currencies)
	if err != nil {
		return BalanceReport{}, err
	}

	report := BalanceReport{Account: addr}
	for i, b := range balances {
		b = b.Normalize()
		report.Balances = append(report.Balances, BalanceRow{
			Currency: currencies[i],
			Free:     b.Free.String(),
			Reserved: b.Reserved.String(),
			Frozen:   b.Frozen.String(),
		})
	}
	return report, nil
}

func printBalanceReport(cmd *cobra.Command, report BalanceReport) error {
	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), report)
	}

	logger.Bold("Account %s", report.Account)
	tw := tabwriter.NewWriter(logger.Writer(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CURRENCY\tFREE\tRESERVED\tFROZEN")
	for _, r := range report.Balances {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Currency, r.Free, r.Reserved, r.Frozen)
	}
	return tw.Flush()
}
