package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
	"github.com/b-harvest/gasp-e2e/internal/output"
)

// errMenuExit ends the menu loop.
var errMenuExit = errors.New("menu exit")

// menuAction is one entry of the interactive menu.
type menuAction struct {
	Label string
	Run   func(cmd *cobra.Command, s *session) error
}

func NewMenuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive menu over one chain session",
		Long: `Open an interactive menu that keeps one chain connection (or one dev chain
with --sim) across operations, so users, pools and balances created by one
action are visible to the next.`,
		Args: cobra.NoArgs,
		RunE: runMenu,
	}
}

func menuActions() []menuAction {
	return []menuAction{
		{"Show balances", menuBalance},
		{"Create test user", menuCreateUser},
		{"Mint tokens (sudo)", menuMint},
		{"Create pool", menuCreatePool},
		{"Wait for blocks", menuWait},
		{"Show bootstrap phase", menuBootstrap},
		{"Exit", func(*cobra.Command, *session) error { return errMenuExit }},
	}
}

func runMenu(cmd *cobra.Command, args []string) error {
	if !output.IsInteractive() {
		return handleCommandError(cmd, fmt.Errorf("menu: %w", output.ErrNotInteractive))
	}

	s, err := openSession(cmd.Context(), cfg)
	if err != nil {
		return handleCommandError(cmd, err)
	}
	defer s.Close()

	actions := menuActions()
	labels := make([]string, len(actions))
	for i, a := range actions {
		labels[i] = a.Label
	}

	for {
		if err := cmd.Context().Err(); err != nil {
			return nil
		}

		sel := promptui.Select{
			Label: "gasp-e2e",
			Items: labels,
			Size:  len(labels),
		}
		idx, _, err := sel.Run()
		if err != nil {
			return wrapInteractiveError(cmd, menuPromptError(err), "")
		}

		err = actions[idx].Run(cmd, s)
		switch {
		case err == nil:
		case errors.Is(err, errMenuExit):
			return nil
		case errors.Is(err, errMenuBack):
			// prompt cancelled inside an action; back to the menu
		default:
			// failures are reported and the session stays open
			_ = handleCommandError(cmd, err)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}
}

// errMenuBack is returned when a prompt inside an action is interrupted.
var errMenuBack = errors.New("back to menu")

func menuPromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return errMenuExit
	}
	return err
}

func ask(label, def string, validate promptui.ValidateFunc) (string, error) {
	p := promptui.Prompt{Label: label, Default: def, Validate: validate}
	v, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return "", errMenuBack
		}
		return "", err
	}
	return strings.TrimSpace(v), nil
}

func validateAmount(input string) error {
	_, err := parseAmount(input)
	return err
}

func validateCurrency(input string) error {
	_, err := chain.ParseCurrencyID(input)
	return err
}

func menuBalance(cmd *cobra.Command, s *session) error {
	account, err := ask("Account (0x id or secret URI)", "//Alice", nil)
	if err != nil {
		return err
	}
	raw, err := ask("Currencies (space separated)", "0", nil)
	if err != nil {
		return err
	}
	currencies, err := parseCurrencies(strings.Fields(raw))
	if err != nil {
		return err
	}
	report, err := balanceReport(cmd.Context(), s, account, currencies)
	if err != nil {
		return err
	}
	return printBalanceReport(cmd, report)
}

func menuCreateUser(cmd *cobra.Command, s *session) error {
	u, err := s.user("")
	if err != nil {
		return err
	}
	logger.Success("Created %s", u.Address())
	logger.Info("  secret URI: %s", u.Name)
	return nil
}

func menuMint(cmd *cobra.Command, s *session) error {
	rawCurrency, err := ask("Currency", "0", validateCurrency)
	if err != nil {
		return err
	}
	uri, err := ask("User secret URI", "//Bob", nil)
	if err != nil {
		return err
	}
	rawAmount, err := ask("Amount", "", validateAmount)
	if err != nil {
		return err
	}

	currency, _ := chain.ParseCurrencyID(rawCurrency)
	amount, _ := parseAmount(rawAmount)
	res, err := mintTo(cmd.Context(), s, currency, uri, amount)
	if err != nil {
		return err
	}
	return printMintResult(cmd, res, amount)
}

func menuCreatePool(cmd *cobra.Command, s *session) error {
	uri, err := ask("User secret URI", "//Alice", nil)
	if err != nil {
		return err
	}
	var fields [4]string
	for i, label := range []string{"First currency (id or 'new')", "First amount", "Second currency (id or 'new')", "Second amount"} {
		validate := validateAmount
		if i%2 == 0 {
			validate = func(input string) error {
				if input == newTokenArg {
					return nil
				}
				return validateCurrency(input)
			}
		}
		if fields[i], err = ask(label, "", validate); err != nil {
			return err
		}
	}

	prev, prevAs := poolFund, poolAs
	poolFund, poolAs = true, uri
	defer func() { poolFund, poolAs = prev, prevAs }()
	return createPool(cmd, s, fields[:])
}

func menuWait(cmd *cobra.Command, s *session) error {
	raw, err := ask("Blocks", "1", func(input string) error {
		if n, err := strconv.Atoi(input); err != nil || n < 1 {
			return errors.New("enter a positive number")
		}
		return nil
	})
	if err != nil {
		return err
	}
	n, _ := strconv.Atoi(raw)
	return waitBlocks(cmd, s, n)
}

func menuBootstrap(cmd *cobra.Command, s *session) error {
	return showPhase(cmd, s)
}
