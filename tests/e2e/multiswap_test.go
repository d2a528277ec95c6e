package e2e

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/b-harvest/gasp-e2e/internal/application/wallet"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
	"github.com/b-harvest/gasp-e2e/tests/e2e/helpers"
)

// setupChainedPools creates pools t0/t1, t1/t2 and t2/t3 owned by a fresh
// user and funds a trader with t0.
func setupChainedPools(t *testing.T, tc *helpers.TestContext) (*wallet.User, []chain.CurrencyID) {
	owner := tc.NewUser()
	trader := tc.NewUser()
	tokens := tc.CreateTokens(owner, math.NewInt(10_000_000), 4)
	for i := 0; i+1 < len(tokens); i++ {
		err := owner.CreatePoolToAsset(tc.Ctx, math.NewInt(1_000_000), math.NewInt(1_000_000), tokens[i], tokens[i+1])
		require.NoError(t, err)
	}
	tc.FundUsers(tokens[0], math.NewInt(100_000), trader)
	trader.AddAssets(tokens...)
	return trader, tokens
}

func TestMultiswap_SellAlongChain(t *testing.T) {
	tc := helpers.NewTestContext(t)
	trader, tokens := setupChainedPools(t, tc)

	tc.Snapshot(wallet.Before, trader)
	require.NoError(t, trader.MultiswapSellAsset(tc.Ctx, tokens, math.NewInt(1000), math.NewInt(1)))
	tc.Snapshot(wallet.After, trader)

	require.NoError(t, trader.ValidateWalletReduced(tokens[0], math.NewInt(1000)))
	last, err := trader.GetAsset(tokens[3])
	require.NoError(t, err)
	require.True(t, last.After().Free.IsPositive())
	require.True(t, last.Before().Free.IsZero())
}

func TestMultiswap_Errors(t *testing.T) {
	tc := helpers.NewTestContext(t)
	trader, tokens := setupChainedPools(t, tc)
	t0, t1, t2, t3 := tokens[0], tokens[1], tokens[2], tokens[3]

	cases := []struct {
		name   string
		path   []chain.CurrencyID
		minOut math.Int
		reason string
	}{
		{"missing pool in path", []chain.CurrencyID{t0, t1, t3}, math.NewInt(1), "NoSuchPool"},
		{"same token twice in a row", []chain.CurrencyID{t0, t1, t1, t2}, math.NewInt(1), "MultiSwapCantHaveSameTokenConsequetively"},
		{"output below minimum", []chain.CurrencyID{t0, t1, t2, t3}, math.NewInt(1_000_000), "InsufficientOutputAmount"},
	}
	for _, c := range cases {
		tc.Snapshot(wallet.Before, trader)
		err := trader.MultiswapSellAsset(tc.Ctx, c.path, math.NewInt(1000), c.minOut)
		require.True(t, wallet.IsTransactionRejected(err), "%s: %v", c.name, err)
		require.Equal(t, c.reason, wallet.RejectionReason(err), c.name)
		tc.Snapshot(wallet.After, trader)
		require.NoError(t, trader.ValidateWalletsUnmodified(), c.name)
	}
}
