package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"cosmossdk.io/log"
	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/application/bootstrap"
	"github.com/b-harvest/gasp-e2e/internal/application/calls"
	"github.com/b-harvest/gasp-e2e/internal/application/poll"
	"github.com/b-harvest/gasp-e2e/internal/application/ports"
	"github.com/b-harvest/gasp-e2e/internal/application/rolldown"
	"github.com/b-harvest/gasp-e2e/internal/application/sudo"
	"github.com/b-harvest/gasp-e2e/internal/application/wallet"
	"github.com/b-harvest/gasp-e2e/internal/config"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/devchain"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/evm"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/keyring"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/nodews"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/rpc"
)

// simSudoEndowment is the native balance the dev chain gives the sudo key.
var simSudoEndowment = math.NewIntWithDecimal(1, 24)

// session is one connection to a chain with the helpers built on it.
type session struct {
	cfg    *config.EffectiveConfig
	chain  ports.Chain
	keys   *keyring.Keyring
	poller *poll.Poller
	sudo   *wallet.User
	log    log.Logger

	l1 *evm.Client
}

// openSession connects to the configured node, or starts a dev chain with --sim.
func openSession(ctx context.Context, c *config.EffectiveConfig) (*session, error) {
	clog := logger.ComponentLogger()

	keys := keyring.New()
	sudoKey, err := keyring.FromURI(c.Sudo.Value)
	if err != nil {
		return nil, fmt.Errorf("sudo key: %w", err)
	}
	keys.Add(sudoKey)

	var ch ports.Chain
	if c.Sim.Value {
		opts := []devchain.Option{
			devchain.WithSudo(sudoKey.Address()),
			devchain.WithEndowment(sudoKey.Address(), chain.NativeCurrency, simSudoEndowment),
			devchain.WithLogger(clog.With("module", "devchain")),
		}
		if c.SealInterval.Value > 0 {
			opts = append(opts, devchain.WithAutoSeal(c.SealInterval.Value))
		}
		ch = devchain.New(opts...)
		logger.Debug("Started dev chain, sudo %s", sudoKey.Address())
	} else {
		sidecar := rpc.NewSidecarClient(c.SidecarURL.Value).
			WithTimeout(c.RequestTimeout.Value).
			WithLogger(clog.With("module", "sidecar"))
		client := rpc.NewClient(sidecar)
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		heads, err := nodews.Dial(ctx, c.NodeWS.Value, clog.With("module", "nodews"))
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		ch = nodews.Attach(client, heads)
		logger.Debug("Connected to sidecar %s", c.SidecarURL.Value)
	}

	return &session{
		cfg:    c,
		chain:  ch,
		keys:   keys,
		poller: poll.New(ch, poll.WithMaxAttempts(c.MaxAttempts.Value), poll.WithLogger(clog)),
		sudo:   wallet.NewUser("sudo", sudoKey, ch, wallet.WithLogger(clog)),
		log:    clog,
	}, nil
}

// Close releases the chain connection and the L1 client.
func (s *session) Close() error {
	if s.l1 != nil {
		s.l1.Close()
	}
	return s.chain.Close()
}

// user derives a user from a secret URI; an empty URI generates one.
func (s *session) user(uri string) (*wallet.User, error) {
	return wallet.CreateUser(s.keys, s.chain, uri, wallet.WithLogger(s.log))
}

func (s *session) sudoService() *sudo.Service {
	return sudo.New(s.sudo)
}

func (s *session) bootstrap() *bootstrap.Service {
	return bootstrap.NewService(s.chain, s.sudoService(), s.poller, s.log.With("module", "bootstrap"))
}

// rolldown connects the L1 client lazily; it is only needed for L1 balance reads.
func (s *session) rolldown(ctx context.Context, withL1 bool) (*rolldown.Service, error) {
	opts := []rolldown.Option{rolldown.WithLogger(s.log.With("module", "rolldown"))}
	if withL1 {
		if s.l1 == nil {
			l1 := evm.NewClient(s.cfg.L1RPC.Value)
			if err := l1.Connect(ctx); err != nil {
				return nil, err
			}
			s.l1 = l1
		}
		opts = append(opts, rolldown.WithL1(s.l1))
	}
	return rolldown.NewService(s.chain, s.poller, opts...), nil
}

func (s *session) layer1() (calls.L1, error) {
	return calls.ParseL1(s.cfg.L1.Value)
}

// withSession opens a session for the duration of fn.
func withSession(ctx context.Context, fn func(s *session) error) error {
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// resolveAddress accepts a 0x account id or a secret URI.
func (s *session) resolveAddress(arg string) (chain.Address, error) {
	if strings.HasPrefix(arg, "0x") && len(arg) == 42 {
		return chain.ParseAddress(arg)
	}
	signer, err := s.keys.FromURI(arg)
	if err != nil {
		return "", err
	}
	return signer.Address(), nil
}

func parseAmount(s string) (math.Int, error) {
	v, ok := math.NewIntFromString(strings.ReplaceAll(s, "_", ""))
	if !ok || v.IsNegative() {
		return math.Int{}, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

func parseCurrencies(args []string) ([]chain.CurrencyID, error) {
	ids := make([]chain.CurrencyID, 0, len(args))
	for _, a := range args {
		id, err := chain.ParseCurrencyID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func jsonOutput() bool {
	return cfg != nil && cfg.JSON.Value
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
