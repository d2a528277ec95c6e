package e2e

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b-harvest/gasp-e2e/internal/application/calls"
	"github.com/b-harvest/gasp-e2e/internal/application/rolldown"
	"github.com/b-harvest/gasp-e2e/internal/application/wallet"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/devchain"
	"github.com/b-harvest/gasp-e2e/tests/e2e/helpers"
)

var bridgedToken = chain.MustParseAddress("0x00000000000000000000000000000000000000e2")

// TestRolldown_DepositsAndWithdrawal has a staked sequencer read three
// deposits in one update, then one recipient withdraws.
func TestRolldown_DepositsAndWithdrawal(t *testing.T) {
	tc := helpers.NewTestContext(t,
		devchain.WithDisputePeriod(2),
		devchain.WithMinSequencerStake(math.NewInt(100)),
	)
	tc.RequireDevChain()
	rd := tc.Rolldown()
	l1 := calls.Ethereum

	sequencer := tc.NewUser()
	tc.FundUsers(chain.NativeCurrency, math.NewInt(1000), sequencer)
	require.NoError(t, rd.ProvideSequencerStake(tc.Ctx, sequencer, l1, math.NewInt(100)))
	require.NoError(t, rd.WaitForReadRights(tc.Ctx, l1, sequencer.Address(), 2))

	recipients := tc.NewUsers(3)
	amounts := []math.Int{math.NewInt(100), math.NewInt(200), math.NewInt(300)}
	first, err := rd.LastProcessedRequestOnL2(tc.Ctx, l1)
	require.NoError(t, err)

	update := calls.NewL2Update(l1)
	for i, r := range recipients {
		update.WithDeposit(first+uint64(i)+1, r.Address(), bridgedToken, amounts[i])
	}
	stored, err := rd.Update(tc.Ctx, sequencer, update.Build())
	require.NoError(t, err)

	events, err := rd.UntilL2Processed(tc.Ctx, stored)
	require.NoError(t, err)
	for i, r := range recipients {
		assert.True(t, rolldown.IsDepositSucceeded(events, r.Address(), amounts[i]), "deposit %d", i)
	}
	last, err := rd.LastProcessedRequestOnL2(tc.Ctx, l1)
	require.NoError(t, err)
	assert.Equal(t, first+3, last)

	l2Token, found, err := rd.L2CurrencyOf(tc.Ctx, l1, bridgedToken)
	require.NoError(t, err)
	require.True(t, found)
	for i, r := range recipients {
		tc.AssertFreeBalance(r.Address(), l2Token, amounts[i])
	}

	withdrawer := recipients[2]
	withdrawer.AddAsset(l2Token)
	tc.Snapshot(wallet.Before, withdrawer)
	origin, err := rd.L2OriginRequestID(tc.Ctx, l1)
	require.NoError(t, err)
	_, err = rd.Withdraw(tc.Ctx, withdrawer, l1, withdrawer.Address(), bridgedToken, math.NewInt(120))
	require.NoError(t, err)
	tc.Snapshot(wallet.After, withdrawer)
	require.NoError(t, withdrawer.ValidateWalletReduced(l2Token, math.NewInt(120)))

	next, err := rd.L2OriginRequestID(tc.Ctx, l1)
	require.NoError(t, err)
	assert.Equal(t, origin+1, next)

	_, err = rd.Withdraw(tc.Ctx, recipients[0], l1, recipients[0].Address(), bridgedToken, math.NewInt(101))
	require.Error(t, err)
	assert.True(t, wallet.IsTransactionRejected(err))
}

// TestRolldown_UnstakedSequencerCannotRead is rejected and never gets a
// read right.
func TestRolldown_UnstakedSequencerCannotRead(t *testing.T) {
	tc := helpers.NewTestContext(t)
	tc.RequireDevChain()
	rd := tc.Rolldown()

	outsider := tc.NewUser()
	_, err := rd.Deposit(tc.Ctx, outsider, calls.Ethereum, 1, outsider.Address(), bridgedToken, math.NewInt(1))
	tc.AssertRejected(err, "OnlySelectedSequencerisAllowedToUpdate")

	rights, err := rd.SequencerRights(tc.Ctx, calls.Arbitrum, outsider.Address())
	require.NoError(t, err)
	assert.Zero(t, rights.Read)
	assert.Zero(t, rights.Cancel)
}
