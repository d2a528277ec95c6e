package helpers

import (
	"context"
	"os"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/application/bootstrap"
	"github.com/b-harvest/gasp-e2e/internal/application/poll"
	"github.com/b-harvest/gasp-e2e/internal/application/ports"
	"github.com/b-harvest/gasp-e2e/internal/application/rolldown"
	"github.com/b-harvest/gasp-e2e/internal/application/sudo"
	"github.com/b-harvest/gasp-e2e/internal/application/wallet"
	"github.com/b-harvest/gasp-e2e/internal/config"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/devchain"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/keyring"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/nodews"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/rpc"
)

// SudoEndowment is the native balance the dev chain gives the sudo key.
var SudoEndowment = math.NewIntWithDecimal(1, 24)

// TestContext is one chain connection shared by the helpers of a test.
//
// Without E2E_SIDECAR_URL the chain is an in-process dev chain; with it the
// test runs against the node behind the sidecar and E2E_NODE_WS.
type TestContext struct {
	t        *testing.T
	Ctx      context.Context
	Chain    ports.Chain
	Dev      *devchain.Chain // nil against a live node
	Keys     *keyring.Keyring
	Poller   *poll.Poller
	Sudo     *wallet.User
	Logger   log.Logger
	cleanups []func()
}

// NewTestContext connects to the chain and registers cleanup.
// Dev chain options are ignored against a live node.
func NewTestContext(t *testing.T, opts ...devchain.Option) *TestContext {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	logger := log.NewNopLogger()
	if testing.Verbose() {
		logger = log.NewTestLogger(t)
	}

	sudoURI := envOr(config.EnvSudo, config.DefaultSudo)
	sudoKey, err := keyring.FromURI(sudoURI)
	if err != nil {
		cancel()
		t.Fatalf("sudo key %s: %v", sudoURI, err)
	}
	keys := keyring.New()
	keys.Add(sudoKey)

	tc := &TestContext{
		t:      t,
		Ctx:    ctx,
		Keys:   keys,
		Logger: logger,
	}
	tc.AddCleanup(cancel)

	if url := os.Getenv(config.EnvSidecarURL); url != "" {
		tc.Chain = dialLive(t, ctx, url, logger)
	} else {
		base := []devchain.Option{
			devchain.WithSudo(sudoKey.Address()),
			devchain.WithEndowment(sudoKey.Address(), chain.NativeCurrency, SudoEndowment),
			devchain.WithLogger(logger.With("module", "devchain")),
		}
		tc.Dev = devchain.New(append(base, opts...)...)
		tc.Chain = tc.Dev
	}
	tc.AddCleanup(func() { _ = tc.Chain.Close() })

	tc.Poller = poll.New(tc.Chain, poll.WithLogger(logger))
	tc.Sudo = wallet.NewUser(sudoURI, sudoKey, tc.Chain, wallet.WithLogger(logger))

	t.Cleanup(tc.RunCleanups)
	return tc
}

func dialLive(t *testing.T, ctx context.Context, url string, logger log.Logger) ports.Chain {
	t.Helper()
	client := rpc.NewClient(rpc.NewSidecarClient(url).WithLogger(logger.With("module", "sidecar")))
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("connect sidecar %s: %v", url, err)
	}
	ws := envOr(config.EnvNodeWS, config.DefaultNodeWS)
	heads, err := nodews.Dial(ctx, ws, logger.With("module", "nodews"))
	if err != nil {
		_ = client.Close()
		t.Fatalf("dial node %s: %v", ws, err)
	}
	return nodews.Attach(client, heads)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// RequireDevChain skips tests that need to configure the chain itself.
func (tc *TestContext) RequireDevChain() *devchain.Chain {
	tc.t.Helper()
	if tc.Dev == nil {
		tc.t.Skip("needs the in-process dev chain")
	}
	return tc.Dev
}

// AddCleanup registers a cleanup function to run when test completes
// Cleanup functions run in reverse order (LIFO)
func (tc *TestContext) AddCleanup(cleanup func()) {
	tc.cleanups = append([]func(){cleanup}, tc.cleanups...)
}

// RunCleanups executes all registered cleanup functions
func (tc *TestContext) RunCleanups() {
	for _, cleanup := range tc.cleanups {
		cleanup()
	}
	tc.cleanups = nil
}

// NewUser creates a user with a generated secret URI.
func (tc *TestContext) NewUser() *wallet.User {
	tc.t.Helper()
	u, err := wallet.CreateUser(tc.Keys, tc.Chain, "", wallet.WithLogger(tc.Logger))
	if err != nil {
		tc.t.Fatalf("create user: %v", err)
	}
	return u
}

// NewUsers creates n users with generated secret URIs.
func (tc *TestContext) NewUsers(n int) []*wallet.User {
	tc.t.Helper()
	users := make([]*wallet.User, n)
	for i := range users {
		users[i] = tc.NewUser()
	}
	return users
}

// SudoService wraps the sudo key.
func (tc *TestContext) SudoService() *sudo.Service {
	return sudo.New(tc.Sudo)
}

// Bootstrap returns the bootstrap pallet helper.
func (tc *TestContext) Bootstrap() *bootstrap.Service {
	return bootstrap.NewService(tc.Chain, tc.SudoService(), tc.Poller, tc.Logger.With("module", "bootstrap"))
}

// Rolldown returns the rolldown pallet helper.
func (tc *TestContext) Rolldown(opts ...rolldown.Option) *rolldown.Service {
	opts = append([]rolldown.Option{rolldown.WithLogger(tc.Logger.With("module", "rolldown"))}, opts...)
	return rolldown.NewService(tc.Chain, tc.Poller, opts...)
}

// Height returns the current block height.
func (tc *TestContext) Height() uint64 {
	tc.t.Helper()
	h, err := tc.Chain.BlockHeight(tc.Ctx)
	if err != nil {
		tc.t.Fatalf("block height: %v", err)
	}
	return h
}
