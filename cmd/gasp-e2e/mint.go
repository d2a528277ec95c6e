package main

import (
	"context"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/b-harvest/gasp-e2e/internal/application/wallet"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// MintResult is the JSON output of 'mint'.
type MintResult struct {
	Currency chain.CurrencyID `json:"currency"`
	Account  chain.Address    `json:"account"`
	Before   string           `json:"before"`
	After    string           `json:"after"`
}

func NewMintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mint <currency> <user> <amount>",
		Short: "Mint tokens to a user with the sudo key",
		Long: `Mint amount of currency to the user derived from a secret URI, then check
that the free balance grew by exactly that amount.

Examples:
  gasp-e2e mint 0 //Bob 1000000000000
  gasp-e2e mint 4 //testUser_ci 1_000`,
		Args: cobra.ExactArgs(3),
		RunE: runMint,
	}
}

func runMint(cmd *cobra.Command, args []string) error {
	currency, err := chain.ParseCurrencyID(args[0])
	if err != nil {
		return handleCommandError(cmd, err)
	}
	amount, err := parseAmount(args[2])
	if err != nil {
		return handleCommandError(cmd, err)
	}

	err = withSession(cmd.Context(), func(s *session) error {
		res, err := mintTo(cmd.Context(), s, currency, args[1], amount)
		if err != nil {
			return err
		}
		return printMintResult(cmd, res, amount)
	})
	return handleCommandError(cmd, err)
}

// mintTo mints amount of currency to the user behind uri and checks the
// free balance grew by exactly that amount.
func mintTo(ctx context.Context, s *session, currency chain.CurrencyID, uri string, amount math.Int) (*MintResult, error) {
	target, err := s.user(uri)
	if err != nil {
		return nil, err
	}
	target.AddAsset(currency)
	if err := target.RefreshAmounts(ctx, wallet.Before); err != nil {
		return nil, err
	}
	if err := s.sudo.Mint(ctx, currency, target, amount); err != nil {
		return nil, err
	}
	if err := target.RefreshAmounts(ctx, wallet.After); err != nil {
		return nil, err
	}
	if err := target.ValidateWalletIncreased(currency, amount); err != nil {
		return nil, err
	}

	asset, err := target.GetAsset(currency)
	if err != nil {
		return nil, err
	}
	return &MintResult{
		Currency: currency,
		Account:  target.Address(),
		Before:   asset.Before().Free.String(),
		After:    asset.After().Free.String(),
	}, nil
}

func printMintResult(cmd *cobra.Command, res *MintResult, amount math.Int) error {
	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), res)
	}
	logger.Success("Minted %s of currency %s to %s", amount, res.Currency, res.Account)
	logger.Info("  free: %s -> %s", res.Before, res.After)
	return nil
}
