package rolldown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b-harvest/gasp-e2e/internal/application/calls"
	"github.com/b-harvest/gasp-e2e/internal/application/poll"
	"github.com/b-harvest/gasp-e2e/internal/application/wallet"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/devchain"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/keyring"
)

var erc20 = chain.MustParseAddress("0x00000000000000000000000000000000000000e2")

// fakeL1 reports a balance that steps up after a number of reads.
type fakeL1 struct {
	mu      sync.Mutex
	reads   int
	raiseAt int
	before  math.Int
	after   math.Int
	readErr error
}

func (f *fakeL1) BalanceOf(context.Context, chain.Address, chain.Address) (math.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.readErr != nil {
		return math.Int{}, f.readErr
	}
	if f.raiseAt > 0 && f.reads >= f.raiseAt {
		return f.after, nil
	}
	return f.before, nil
}

type fixture struct {
	chain     *devchain.Chain
	sequencer *wallet.User
	alice     *wallet.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	keys := keyring.New()
	seq, err := keyring.FromURI("//Sequencer")
	require.NoError(t, err)

	c := devchain.New(
		devchain.WithDisputePeriod(2),
		devchain.WithMinSequencerStake(math.NewInt(100)),
		devchain.WithEndowment(seq.Address(), chain.NativeCurrency, math.NewInt(1000)),
	)
	t.Cleanup(func() { _ = c.Close() })

	sequencer, err := wallet.CreateUser(keys, c, "//Sequencer")
	require.NoError(t, err)
	alice, err := wallet.CreateUser(keys, c, "//Alice")
	require.NoError(t, err)
	return &fixture{chain: c, sequencer: sequencer, alice: alice}
}

func TestService_DepositAndWithdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := NewService(f.chain, poll.New(f.chain))

	rights, err := s.SequencerRights(ctx, calls.Ethereum, f.sequencer.Address())
	require.NoError(t, err)
	assert.Equal(t, Rights{}, rights)
	next, err := s.L2OriginRequestID(ctx, calls.Ethereum)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next)

	require.NoError(t, s.ProvideSequencerStake(ctx, f.sequencer, calls.Ethereum, math.NewInt(100)))
	require.NoError(t, s.WaitForReadRights(ctx, calls.Ethereum, f.sequencer.Address(), 1))

	_, found, err := s.L2CurrencyOf(ctx, calls.Ethereum, erc20)
	require.NoError(t, err)
	assert.False(t, found)

	stored, err := s.Deposit(ctx, f.sequencer, calls.Ethereum, 1, f.alice.Address(), erc20, math.NewInt(500))
	require.NoError(t, err)
	rights, err = s.SequencerRights(ctx, calls.Ethereum, f.sequencer.Address())
	require.NoError(t, err)
	assert.Equal(t, Rights{Read: 0, Cancel: 1}, rights)

	events, err := s.UntilL2Processed(ctx, stored)
	require.NoError(t, err)
	assert.True(t, IsDepositSucceeded(events, f.alice.Address(), math.NewInt(500)))
	assert.False(t, IsDepositSucceeded(events, f.alice.Address(), math.NewInt(501)))
	assert.False(t, IsDepositSucceeded(events, f.sequencer.Address(), math.NewInt(500)))

	last, err := s.LastProcessedRequestOnL2(ctx, calls.Ethereum)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), last)
	require.NoError(t, s.WaitForReadRights(ctx, calls.Ethereum, f.sequencer.Address(), 0))

	l2Token, found, err := s.L2CurrencyOf(ctx, calls.Ethereum, erc20)
	require.NoError(t, err)
	require.True(t, found)
	f.alice.AddAsset(l2Token)
	require.NoError(t, f.alice.RefreshAmounts(ctx, wallet.Before))

	_, err = s.Withdraw(ctx, f.alice, calls.Ethereum, f.alice.Address(), erc20, math.NewInt(200))
	require.NoError(t, err)
	require.NoError(t, f.alice.RefreshAmounts(ctx, wallet.After))
	require.NoError(t, f.alice.ValidateWalletReduced(l2Token, math.NewInt(200)))

	next, err = s.L2OriginRequestID(ctx, calls.Ethereum)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next)
}

func TestService_DepositWithoutRights(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := NewService(f.chain, poll.New(f.chain))

	_, err := s.Deposit(ctx, f.alice, calls.Ethereum, 1, f.alice.Address(), erc20, math.NewInt(1))
	require.Error(t, err)
	assert.Equal(t, "OnlySelectedSequencerisAllowedToUpdate", wallet.RejectionReason(err))

	err = s.WaitForReadRights(ctx, calls.Ethereum, f.alice.Address(), 2)
	assert.True(t, poll.IsTimeout(err))
}

func TestUntilL2Processed_NeedsL1ReadStored(t *testing.T) {
	f := newFixture(t)
	s := NewService(f.chain, poll.New(f.chain))

	_, err := s.UntilL2Processed(context.Background(), chain.EventResult{State: chain.ExtrinsicSuccess})
	assert.Error(t, err)
}

func TestWaitForL1BalanceIncrease(t *testing.T) {
	f := newFixture(t)
	l1 := &fakeL1{raiseAt: 3, before: math.NewInt(10), after: math.NewInt(25)}
	s := NewService(f.chain, poll.New(f.chain), WithL1(l1), WithL1Polling(time.Millisecond, 5))

	got, err := s.WaitForL1BalanceIncrease(context.Background(), erc20, f.alice.Address(), math.NewInt(10))
	require.NoError(t, err)
	assert.True(t, got.Equal(math.NewInt(25)))
	assert.Equal(t, 3, l1.reads)
}

func TestWaitForL1BalanceIncrease_IsBounded(t *testing.T) {
	f := newFixture(t)
	l1 := &fakeL1{before: math.NewInt(10)}
	s := NewService(f.chain, poll.New(f.chain), WithL1(l1), WithL1Polling(time.Millisecond, 3))

	got, err := s.WaitForL1BalanceIncrease(context.Background(), erc20, f.alice.Address(), math.NewInt(10))
	require.Error(t, err)
	assert.True(t, poll.IsTimeout(err))
	assert.True(t, got.Equal(math.NewInt(10)))
	assert.Equal(t, 4, l1.reads)
}

func TestWaitForL1BalanceIncrease_ReadErrors(t *testing.T) {
	f := newFixture(t)
	l1 := &fakeL1{readErr: errors.New("connection refused")}
	s := NewService(f.chain, poll.New(f.chain), WithL1(l1), WithL1Polling(time.Millisecond, 1))

	_, err := s.WaitForL1BalanceIncrease(context.Background(), erc20, f.alice.Address(), math.ZeroInt())
	assert.True(t, poll.IsTimeout(err))
}

func TestWaitForL1BalanceIncrease_NoEndpoint(t *testing.T) {
	f := newFixture(t)
	s := NewService(f.chain, poll.New(f.chain))

	_, err := s.WaitForL1BalanceIncrease(context.Background(), erc20, f.alice.Address(), math.ZeroInt())
	assert.ErrorIs(t, err, ErrNoL1)
}
