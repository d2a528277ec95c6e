package e2e

import (
	"encoding/json"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b-harvest/gasp-e2e/internal/application/bootstrap"
	"github.com/b-harvest/gasp-e2e/internal/application/calls"
	"github.com/b-harvest/gasp-e2e/internal/application/wallet"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
	"github.com/b-harvest/gasp-e2e/tests/e2e/helpers"
)

// liquidityToken reads the pool token minted by the last bootstrap.
func liquidityToken(t *testing.T, tc *helpers.TestContext) chain.CurrencyID {
	t.Helper()
	raw, err := tc.Chain.QueryStorage(tc.Ctx, "bootstrap", "mintedLiquidity")
	require.NoError(t, err)
	var pair []json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &pair))
	require.Len(t, pair, 2)
	var id chain.CurrencyID
	require.NoError(t, id.UnmarshalJSON(pair[0]))
	return id
}

// TestBootstrap_PublicProvisionAndClaim runs a bootstrap with two
// contributors, one per token, through to finalization.
func TestBootstrap_PublicProvisionAndClaim(t *testing.T) {
	tc := helpers.NewTestContext(t)
	boot := tc.Bootstrap()
	require.NoError(t, boot.CheckLastBootstrapFinalized(tc.Ctx))

	alice, bob := tc.NewUser(), tc.NewUser()
	supply := math.NewInt(1_000_000)
	first := tc.CreateToken(alice, supply)
	second := tc.CreateToken(bob, supply)

	require.NoError(t, boot.Schedule(tc.Ctx, calls.ScheduleBootstrapParams{
		FirstToken:   first,
		SecondToken:  second,
		StartBlock:   uint32(tc.Height() + 2),
		PublicLength: 6,
	}))
	require.NoError(t, boot.WaitForPhase(tc.Ctx, bootstrap.Public, 5))

	alice.AddAsset(first)
	bob.AddAsset(second)
	tc.Snapshot(wallet.Before, alice, bob)
	require.NoError(t, boot.Provision(tc.Ctx, alice, first, math.NewInt(10_000)))
	require.NoError(t, boot.Provision(tc.Ctx, bob, second, math.NewInt(40_000)))
	tc.Snapshot(wallet.After, alice, bob)
	require.NoError(t, alice.ValidateWalletReduced(first, math.NewInt(10_000)))
	require.NoError(t, bob.ValidateWalletReduced(second, math.NewInt(40_000)))

	err := boot.ClaimLiquidity(tc.Ctx, alice)
	tc.AssertRejected(err, "NotFinishedYet")

	require.NoError(t, boot.WaitForPhase(tc.Ctx, bootstrap.Finished, 10))
	liquidity := liquidityToken(t, tc)

	require.NoError(t, boot.ClaimLiquidity(tc.Ctx, alice))
	require.NoError(t, boot.ClaimAndActivate(tc.Ctx, bob))

	// alice keeps her share free, bob's is reserved by the activation
	assert.True(t, tc.FreeBalance(alice.Address(), liquidity).IsPositive())
	tc.AssertFreeBalance(bob.Address(), liquidity, math.ZeroInt())

	err = boot.ClaimLiquidity(tc.Ctx, alice)
	tc.AssertRejected(err, "NothingToClaim")

	require.NoError(t, boot.CheckLastBootstrapFinalized(tc.Ctx))
	phase, err := boot.Phase(tc.Ctx)
	require.NoError(t, err)
	assert.Equal(t, bootstrap.BeforeStart, phase)
}

// TestBootstrap_WhitelistNeedsFirstToken rejects a whitelist provision in
// the second token before any first token was provided.
func TestBootstrap_WhitelistNeedsFirstToken(t *testing.T) {
	tc := helpers.NewTestContext(t)
	tc.RequireDevChain()
	boot := tc.Bootstrap()

	user := tc.NewUser()
	first := tc.CreateToken(user, math.NewInt(1_000_000))
	second := tc.CreateToken(user, math.NewInt(1_000_000))
	require.NoError(t, boot.Schedule(tc.Ctx, calls.ScheduleBootstrapParams{
		FirstToken:      first,
		SecondToken:     second,
		StartBlock:      uint32(tc.Height() + 2),
		WhitelistLength: 10,
		PublicLength:    10,
	}))
	require.NoError(t, boot.WaitForPhase(tc.Ctx, bootstrap.Whitelist, 5))

	user.AddAssets(first, second)
	tc.Snapshot(wallet.Before, user)
	err := boot.Provision(tc.Ctx, user, second, math.NewInt(100))
	tc.AssertRejected(err, "FirstProvisionInSecondTokenId")
	tc.Snapshot(wallet.After, user)
	require.NoError(t, user.ValidateWalletsUnmodified())

	require.NoError(t, boot.Provision(tc.Ctx, user, first, math.NewInt(100)))
	require.NoError(t, boot.ProvisionVested(tc.Ctx, user, second, math.NewInt(100)))
}

// TestBootstrap_PromoteFlag toggles pool promotion before the start.
func TestBootstrap_PromoteFlag(t *testing.T) {
	tc := helpers.NewTestContext(t)
	tc.RequireDevChain()
	boot := tc.Bootstrap()

	first, err := boot.CreateBootstrapCurrency(tc.Ctx)
	require.NoError(t, err)
	second, err := boot.CreateBootstrapCurrency(tc.Ctx)
	require.NoError(t, err)
	tc.AssertFreeBalance(tc.Sudo.Address(), first, bootstrap.DefaultCurrencySupply)

	require.NoError(t, boot.Schedule(tc.Ctx, calls.ScheduleBootstrapParams{
		FirstToken:   first,
		SecondToken:  second,
		StartBlock:   uint32(tc.Height() + 100),
		PublicLength: 5,
	}))
	for _, want := range []bool{true, false} {
		require.NoError(t, boot.UpdatePromoteBootstrapPool(tc.Ctx, want))
		got, err := boot.PromoteBootstrapPool(tc.Ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	require.NoError(t, boot.Cancel(tc.Ctx))
}
