package sudo

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b-harvest/gasp-e2e/internal/application/calls"
	"github.com/b-harvest/gasp-e2e/internal/application/wallet"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/devchain"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/keyring"
)

type fixture struct {
	chain *devchain.Chain
	sudo  *Service
	alice *wallet.User
	bob   *wallet.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	keys := keyring.New()
	user := func(c *devchain.Chain, uri string) *wallet.User {
		u, err := wallet.CreateUser(keys, c, uri)
		require.NoError(t, err)
		return u
	}

	sudoKey, err := keyring.FromURI("//Sudo")
	require.NoError(t, err)
	aliceKey, err := keyring.FromURI("//Alice")
	require.NoError(t, err)

	c := devchain.New(
		devchain.WithSudo(sudoKey.Address()),
		devchain.WithEndowment(aliceKey.Address(), chain.NativeCurrency, math.NewInt(1000)),
	)
	t.Cleanup(func() { _ = c.Close() })

	return &fixture{
		chain: c,
		sudo:  New(user(c, "//Sudo")),
		alice: user(c, "//Alice"),
		bob:   user(c, "//Bob"),
	}
}

func (f *fixture) free(t *testing.T, who *wallet.User) math.Int {
	t.Helper()
	b, err := f.chain.FreeBalances(context.Background(), who.Address(), []chain.CurrencyID{chain.NativeCurrency})
	require.NoError(t, err)
	return b[0].Free
}

func TestAsSudoFinalized(t *testing.T) {
	f := newFixture(t)

	res, err := f.sudo.AsSudoFinalized(context.Background(), calls.Mint(chain.NativeCurrency, f.bob.Address(), math.NewInt(250)))
	require.NoError(t, err)
	assert.Len(t, chain.FilterEvents(res.Events, "tokens", "Minted"), 1)
	assert.True(t, f.free(t, f.bob).Equal(math.NewInt(250)))
}

func TestAsSudoFinalized_InnerFailure(t *testing.T) {
	f := newFixture(t)

	res, err := f.sudo.AsSudoFinalized(context.Background(), calls.Mint(chain.NewCurrencyID(42), f.bob.Address(), math.NewInt(1)))
	require.Error(t, err)
	require.NotNil(t, res)
	assert.True(t, wallet.IsTransactionRejected(err))
	assert.Equal(t, "TokenIdNotExists", wallet.RejectionReason(err))
}

func TestAsSudoFinalized_WrongKey(t *testing.T) {
	f := newFixture(t)
	impostor := New(f.alice)

	_, err := impostor.AsSudoFinalized(context.Background(), calls.Mint(chain.NativeCurrency, f.bob.Address(), math.NewInt(1)))
	require.Error(t, err)
	assert.Equal(t, "RequireSudo", wallet.RejectionReason(err))
}

func TestSudoAs(t *testing.T) {
	f := newFixture(t)

	_, err := f.sudo.SudoAs(context.Background(), f.alice, calls.Transfer(f.bob.Address(), chain.NativeCurrency, math.NewInt(400)))
	require.NoError(t, err)
	assert.True(t, f.free(t, f.alice).Equal(math.NewInt(600)))
	assert.True(t, f.free(t, f.bob).Equal(math.NewInt(400)))

	_, err = f.sudo.SudoAs(context.Background(), f.bob, calls.Transfer(f.alice.Address(), chain.NativeCurrency, math.NewInt(401)))
	require.Error(t, err)
	assert.True(t, wallet.IsTransactionRejected(err))
}

func TestBatchAsSudoFinalized(t *testing.T) {
	f := newFixture(t)

	res, err := f.sudo.BatchAsSudoFinalized(context.Background(),
		Sudo(calls.Mint(chain.NativeCurrency, f.bob.Address(), math.NewInt(10))),
		As(f.alice, calls.Transfer(f.bob.Address(), chain.NativeCurrency, math.NewInt(5))),
	)
	require.NoError(t, err)
	assert.Len(t, chain.FilterEvents(res.Events, "utility", "ItemCompleted"), 2)
	assert.True(t, f.free(t, f.bob).Equal(math.NewInt(15)))
}

func TestBatchAsSudoFinalized_ReportsInnerFailure(t *testing.T) {
	f := newFixture(t)

	_, err := f.sudo.BatchAsSudoFinalized(context.Background(),
		Sudo(calls.Mint(chain.NativeCurrency, f.bob.Address(), math.NewInt(10))),
		As(f.bob, calls.Transfer(f.alice.Address(), chain.NativeCurrency, math.NewInt(1000))),
	)
	require.Error(t, err)
	assert.True(t, wallet.IsTransactionRejected(err))
}
