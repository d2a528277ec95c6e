package main

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/b-harvest/gasp-e2e/internal/application/calls"
	"github.com/b-harvest/gasp-e2e/internal/application/wallet"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// newTokenArg in place of a currency id issues a fresh token to the user.
const newTokenArg = "new"

var (
	poolAs     string
	poolFund   bool
	poolMinOut string
)

// PoolResult is the JSON output of the pool commands.
type PoolResult struct {
	User    chain.Address    `json:"user"`
	First   chain.CurrencyID `json:"first"`
	Second  chain.CurrencyID `json:"second"`
	Changes []BalanceChange  `json:"changes"`
}

// BalanceChange is one tracked currency before and after a call.
type BalanceChange struct {
	Currency chain.CurrencyID `json:"currency"`
	Before   string           `json:"before"`
	After    string           `json:"after"`
}

func NewPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Create pools and swap on the xyk pallet",
	}
	cmd.PersistentFlags().StringVar(&poolAs, "as", "//Alice",
		"Secret URI of the user that signs")
	cmd.PersistentFlags().BoolVar(&poolFund, "fund", false,
		"Mint the needed amounts to the user with sudo first")

	cmd.AddCommand(newPoolCreateCmd(), newPoolSellCmd(), newPoolMultiswapCmd())
	return cmd
}

func newPoolCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <first> <first-amount> <second> <second-amount>",
		Short: "Create a pool",
		Long: `Create the first/second pool with the given reserves. Either currency may be
'new', which issues a fresh token of that amount to the user with sudo.

Examples:
  gasp-e2e pool create 0 1000000 4 1000000 --as //Alice
  gasp-e2e pool create 0 1000 new 5000 --as //Alice --fund --sim`,
		Args: cobra.ExactArgs(4),
		RunE: runPoolCreate,
	}
}

func newPoolSellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sell <sold> <bought> <amount>",
		Short: "Sell an amount of one pool currency for the other",
		Args:  cobra.ExactArgs(3),
		RunE:  runPoolSell,
	}
}

func newPoolMultiswapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "multiswap <amount> <currency> <currency>...",
		Short: "Sell an amount of the first currency through a chain of pools",
		Long: `Sell amount of the first currency through every pool along the path and
receive the last one.

Examples:
  gasp-e2e pool multiswap 1000 4 5 6 --min-out 10 --as //Alice`,
		Args: cobra.MinimumNArgs(3),
		RunE: runPoolMultiswap,
	}
	cmd.Flags().StringVar(&poolMinOut, "min-out", "1", "Least amount of the last currency to accept")
	return cmd
}

func runPoolCreate(cmd *cobra.Command, args []string) error {
	err := withSession(cmd.Context(), func(s *session) error {
		return createPool(cmd, s, args)
	})
	return handleCommandError(cmd, err)
}

// createPool runs 'pool create' on an open session.
func createPool(cmd *cobra.Command, s *session, args []string) error {
	firstAmount, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	secondAmount, err := parseAmount(args[3])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	user, err := s.user(poolAs)
	if err != nil {
		return err
	}
	first, err := s.currencyFor(ctx, user, args[0], firstAmount)
	if err != nil {
		return err
	}
	second, err := s.currencyFor(ctx, user, args[2], secondAmount)
	if err != nil {
		return err
	}

	user.AddAssets(first, second)
	if err := user.RefreshAmounts(ctx, wallet.Before); err != nil {
		return err
	}
	if err := user.CreatePoolToAsset(ctx, firstAmount, secondAmount, first, second); err != nil {
		return err
	}
	if err := user.RefreshAmounts(ctx, wallet.After); err != nil {
		return err
	}
	if err := user.ValidateWalletReduced(first, firstAmount); err != nil {
		return err
	}
	if err := user.ValidateWalletReduced(second, secondAmount); err != nil {
		return err
	}
	return printPoolResult(cmd, user, first, second, fmt.Sprintf("Created pool %s/%s", first, second))
}

func runPoolSell(cmd *cobra.Command, args []string) error {
	ids, err := parseCurrencies(args[:2])
	if err != nil {
		return handleCommandError(cmd, err)
	}
	amount, err := parseAmount(args[2])
	if err != nil {
		return handleCommandError(cmd, err)
	}
	sold, bought := ids[0], ids[1]

	err = withSession(cmd.Context(), func(s *session) error {
		ctx := cmd.Context()
		user, err := s.user(poolAs)
		if err != nil {
			return err
		}
		if poolFund {
			if err := s.sudo.Mint(ctx, sold, user, amount); err != nil {
				return err
			}
		}

		user.AddAssets(sold, bought)
		if err := user.RefreshAmounts(ctx, wallet.Before); err != nil {
			return err
		}
		if err := user.SellAssets(ctx, sold, bought, amount); err != nil {
			return err
		}
		if err := user.RefreshAmounts(ctx, wallet.After); err != nil {
			return err
		}
		if err := user.ValidateWalletReduced(sold, amount); err != nil {
			return err
		}
		return printPoolResult(cmd, user, sold, bought, fmt.Sprintf("Sold %s of %s", amount, sold))
	})
	return handleCommandError(cmd, err)
}

func runPoolMultiswap(cmd *cobra.Command, args []string) error {
	amount, err := parseAmount(args[0])
	if err != nil {
		return handleCommandError(cmd, err)
	}
	minOut, err := parseAmount(poolMinOut)
	if err != nil {
		return handleCommandError(cmd, err)
	}
	path, err := parseCurrencies(args[1:])
	if err != nil {
		return handleCommandError(cmd, err)
	}
	sold, bought := path[0], path[len(path)-1]

	err = withSession(cmd.Context(), func(s *session) error {
		ctx := cmd.Context()
		user, err := s.user(poolAs)
		if err != nil {
			return err
		}
		if poolFund {
			if err := s.sudo.Mint(ctx, sold, user, amount); err != nil {
				return err
			}
		}

		user.AddAssets(sold, bought)
		if err := user.RefreshAmounts(ctx, wallet.Before); err != nil {
			return err
		}
		if err := user.MultiswapSellAsset(ctx, path, amount, minOut); err != nil {
			return err
		}
		if err := user.RefreshAmounts(ctx, wallet.After); err != nil {
			return err
		}
		if err := user.ValidateWalletReduced(sold, amount); err != nil {
			return err
		}
		return printPoolResult(cmd, user, sold, bought, fmt.Sprintf("Swapped %s of %s along %d pools", amount, sold, len(path)-1))
	})
	return handleCommandError(cmd, err)
}

// currencyFor resolves a currency argument, issuing a new token or funding
// the user when asked to.
func (s *session) currencyFor(ctx context.Context, user *wallet.User, arg string, amount math.Int) (chain.CurrencyID, error) {
	if arg == newTokenArg {
		res, err := s.sudoService().AsSudoFinalized(ctx, calls.CreateToken(user.Address(), amount))
		if err != nil {
			return chain.CurrencyID{}, err
		}
		created, ok := chain.ExtractResult(res.Events, "tokens", "Created", user.Address()).Payload.(chain.TokensCreated)
		if !ok {
			return chain.CurrencyID{}, fmt.Errorf("tokens.Created not found in %s", res.Hash)
		}
		logger.Debug("Issued currency %s to %s", created.Currency, user.Address())
		return created.Currency, nil
	}

	id, err := chain.ParseCurrencyID(arg)
	if err != nil {
		return chain.CurrencyID{}, err
	}
	if poolFund {
		if err := s.sudo.Mint(ctx, id, user, amount); err != nil {
			return chain.CurrencyID{}, err
		}
	}
	return id, nil
}

func printPoolResult(cmd *cobra.Command, user *wallet.User, first, second chain.CurrencyID, summary string) error {
	result := PoolResult{User: user.Address(), First: first, Second: second}
	for _, a := range user.Assets() {
		result.Changes = append(result.Changes, BalanceChange{
			Currency: a.CurrencyID,
			Before:   a.Before().Free.String(),
			After:    a.After().Free.String(),
		})
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), result)
	}
	logger.Success("%s", summary)
	for _, c := range result.Changes {
		logger.Info("  currency %s: %s -> %s", c.Currency, c.Before, c.After)
	}
	return nil
}
