package helpers

import (
	"fmt"

	"cosmossdk.io/math"
	"golang.org/x/sync/errgroup"

	"github.com/b-harvest/gasp-e2e/internal/application/calls"
	"github.com/b-harvest/gasp-e2e/internal/application/wallet"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// FundUsers mints amount of currency to every user with the sudo key.
// The mints are submitted concurrently.
func (tc *TestContext) FundUsers(currency chain.CurrencyID, amount math.Int, users ...*wallet.User) {
	tc.t.Helper()
	g, ctx := errgroup.WithContext(tc.Ctx)
	for _, u := range users {
		u := u
		g.Go(func() error {
			if err := tc.Sudo.Mint(ctx, currency, u, amount); err != nil {
				return fmt.Errorf("mint %s to %s: %w", currency, u.Address(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		tc.t.Fatalf("fund users: %v", err)
	}
}

// CreateToken issues a new currency with amount minted to user.
func (tc *TestContext) CreateToken(user *wallet.User, amount math.Int) chain.CurrencyID {
	tc.t.Helper()
	res, err := tc.SudoService().AsSudoFinalized(tc.Ctx, calls.CreateToken(user.Address(), amount))
	if err != nil {
		tc.t.Fatalf("create token: %v", err)
	}
	created, ok := chain.ExtractResult(res.Events, "tokens", "Created", user.Address()).Payload.(chain.TokensCreated)
	if !ok {
		tc.t.Fatalf("tokens.Created not found in %s", res.Hash)
	}
	return created.Currency
}

// CreateTokens issues n currencies to user, amount each.
func (tc *TestContext) CreateTokens(user *wallet.User, amount math.Int, n int) []chain.CurrencyID {
	tc.t.Helper()
	ids := make([]chain.CurrencyID, n)
	for i := range ids {
		ids[i] = tc.CreateToken(user, amount)
	}
	return ids
}
