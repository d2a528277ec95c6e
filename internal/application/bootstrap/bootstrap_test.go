package bootstrap

import (
	"context"
	"errors"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b-harvest/gasp-e2e/internal/application/calls"
	"github.com/b-harvest/gasp-e2e/internal/application/poll"
	"github.com/b-harvest/gasp-e2e/internal/application/sudo"
	"github.com/b-harvest/gasp-e2e/internal/application/wallet"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/devchain"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/keyring"
)

func newService(t *testing.T) (*Service, *devchain.Chain, *wallet.User) {
	t.Helper()
	key, err := keyring.FromURI("//Sudo")
	require.NoError(t, err)
	c := devchain.New(devchain.WithSudo(key.Address()))
	t.Cleanup(func() { _ = c.Close() })

	user := wallet.NewUser("//Sudo", key, c)
	return NewService(c, sudo.New(user), poll.New(c), nil), c, user
}

func height(t *testing.T, c *devchain.Chain) uint64 {
	t.Helper()
	h, err := c.BlockHeight(context.Background())
	require.NoError(t, err)
	return h
}

func TestService_FullRun(t *testing.T) {
	ctx := context.Background()
	s, c, owner := newService(t)

	first, err := s.CreateBootstrapCurrency(ctx)
	require.NoError(t, err)
	second, err := s.CreateBootstrapCurrency(ctx)
	require.NoError(t, err)
	assert.False(t, first.Equal(second))

	require.NoError(t, s.CheckLastBootstrapFinalized(ctx))

	start := uint32(height(t, c) + 3)
	require.NoError(t, s.Schedule(ctx, calls.ScheduleBootstrapParams{
		FirstToken:      first,
		SecondToken:     second,
		StartBlock:      start,
		WhitelistLength: 1,
		PublicLength:    2,
	}))
	promote, err := s.PromoteBootstrapPool(ctx)
	require.NoError(t, err)
	assert.False(t, promote)

	require.NoError(t, s.UpdatePromoteBootstrapPool(ctx, true))
	promote, err = s.PromoteBootstrapPool(ctx)
	require.NoError(t, err)
	assert.True(t, promote)

	require.NoError(t, s.WaitForPhase(ctx, Whitelist, 5))
	require.NoError(t, s.Provision(ctx, owner, first, math.NewInt(1000)))
	require.NoError(t, s.ProvisionVested(ctx, owner, second, math.NewInt(3000)))

	require.NoError(t, s.WaitForPhase(ctx, Finished, 5))
	require.NoError(t, s.ClaimAndActivate(ctx, owner))

	err = s.ClaimLiquidity(ctx, owner)
	require.Error(t, err)
	assert.Equal(t, "NothingToClaim", wallet.RejectionReason(err))

	require.NoError(t, s.CheckLastBootstrapFinalized(ctx))
	p, err := s.Phase(ctx)
	require.NoError(t, err)
	assert.Equal(t, BeforeStart, p)
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()
	s, c, _ := newService(t)

	first, err := s.CreateBootstrapCurrency(ctx)
	require.NoError(t, err)
	second, err := s.CreateBootstrapCurrency(ctx)
	require.NoError(t, err)

	params := calls.ScheduleBootstrapParams{
		FirstToken:   first,
		SecondToken:  second,
		StartBlock:   uint32(height(t, c) + 50),
		PublicLength: 5,
	}
	require.NoError(t, s.Schedule(ctx, params))
	require.NoError(t, s.Cancel(ctx))

	err = s.Cancel(ctx)
	require.Error(t, err)
	assert.Equal(t, "BootstrapNotSchduled", wallet.RejectionReason(err))

	require.NoError(t, s.Schedule(ctx, params))
}

func TestService_CheckLastBootstrapFinalized_Running(t *testing.T) {
	ctx := context.Background()
	s, c, _ := newService(t)

	first, err := s.CreateBootstrapCurrency(ctx)
	require.NoError(t, err)
	second, err := s.CreateBootstrapCurrency(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Schedule(ctx, calls.ScheduleBootstrapParams{
		FirstToken:   first,
		SecondToken:  second,
		StartBlock:   uint32(height(t, c) + 2),
		PublicLength: 10,
	}))
	require.NoError(t, s.WaitForPhase(ctx, Public, 5))

	err = s.CheckLastBootstrapFinalized(ctx)
	var pe *PhaseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, BeforeStart, pe.Expected)
	assert.Equal(t, Public, pe.Actual)
}

func TestService_WaitForPhaseTimesOut(t *testing.T) {
	s, _, _ := newService(t)

	err := s.WaitForPhase(context.Background(), Finished, 2)
	assert.True(t, poll.IsTimeout(err))
}

func TestCreateBootstrapCurrency_IssuesDefaultSupply(t *testing.T) {
	ctx := context.Background()
	s, c, owner := newService(t)

	id, err := s.CreateBootstrapCurrency(ctx)
	require.NoError(t, err)
	b, err := c.FreeBalances(ctx, owner.Address(), []chain.CurrencyID{id})
	require.NoError(t, err)
	assert.True(t, b[0].Free.Equal(DefaultCurrencySupply))
}
