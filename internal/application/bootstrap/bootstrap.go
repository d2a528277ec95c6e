// Package bootstrap drives the token launch pallet: scheduling, provisions,
// liquidity claims and finalization.
package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"

	"cosmossdk.io/log"
	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/application/calls"
	"github.com/b-harvest/gasp-e2e/internal/application/poll"
	"github.com/b-harvest/gasp-e2e/internal/application/ports"
	"github.com/b-harvest/gasp-e2e/internal/application/sudo"
	"github.com/b-harvest/gasp-e2e/internal/application/wallet"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// Phase is the bootstrap state as stored by the pallet.
type Phase string

const (
	BeforeStart Phase = "BeforeStart"
	Whitelist   Phase = "Whitelist"
	Public      Phase = "Public"
	Finished    Phase = "Finished"
)

// DefaultCurrencySupply is what CreateBootstrapCurrency issues: 1e20.
var DefaultCurrencySupply = math.NewIntWithDecimal(1, 20)

// Service wraps the bootstrap pallet.
type Service struct {
	storage ports.StorageReader
	sudo    *sudo.Service
	poller  *poll.Poller
	logger  log.Logger
}

// NewService creates a Service.
func NewService(storage ports.StorageReader, su *sudo.Service, poller *poll.Poller, logger log.Logger) *Service {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Service{storage: storage, sudo: su, poller: poller, logger: logger}
}

// Phase reads the current bootstrap phase.
func (s *Service) Phase(ctx context.Context) (Phase, error) {
	raw, err := s.storage.QueryStorage(ctx, "bootstrap", "phase")
	if err != nil {
		return "", fmt.Errorf("query bootstrap phase: %w", err)
	}
	var p string
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", fmt.Errorf("decode bootstrap phase %s: %w", string(raw), err)
	}
	return Phase(p), nil
}

// WaitForPhase waits up to maxBlocks blocks for the pallet to enter phase.
func (s *Service) WaitForPhase(ctx context.Context, phase Phase, maxBlocks int) error {
	return s.poller.WaitUntil(ctx, fmt.Sprintf("wait_for_bootstrap_phase(%s)", phase), maxBlocks, func(ctx context.Context) (bool, error) {
		p, err := s.Phase(ctx)
		if err != nil {
			return false, err
		}
		s.logger.Debug("bootstrap phase", "current", p, "want", phase)
		return p == phase, nil
	})
}

// PromoteBootstrapPool reports whether the resulting pool will be promoted.
func (s *Service) PromoteBootstrapPool(ctx context.Context) (bool, error) {
	raw, err := s.storage.QueryStorage(ctx, "bootstrap", "promoteBootstrapPool")
	if err != nil {
		return false, fmt.Errorf("query promote bootstrap pool: %w", err)
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, fmt.Errorf("decode promote bootstrap pool %s: %w", string(raw), err)
	}
	return v, nil
}

// Schedule schedules a bootstrap through sudo.
func (s *Service) Schedule(ctx context.Context, p calls.ScheduleBootstrapParams) error {
	_, err := s.sudo.AsSudoFinalized(ctx, calls.ScheduleBootstrap(p))
	return err
}

// Provision contributes amount of token on behalf of user.
func (s *Service) Provision(ctx context.Context, user *wallet.User, token chain.CurrencyID, amount math.Int) error {
	_, err := user.Execute(ctx, calls.Provision(token, amount), "bootstrap", "Provisioned", user.Address())
	return err
}

// ProvisionVested contributes vested amount of token on behalf of user.
func (s *Service) ProvisionVested(ctx context.Context, user *wallet.User, token chain.CurrencyID, amount math.Int) error {
	_, err := user.Execute(ctx, calls.ProvisionVested(token, amount), "bootstrap", "Provisioned", user.Address())
	return err
}

// ClaimLiquidity claims the user's share of the bootstrap pool.
func (s *Service) ClaimLiquidity(ctx context.Context, user *wallet.User) error {
	_, err := user.Execute(ctx, calls.ClaimLiquidityTokens(), "bootstrap", "RewardsLiquidityAcitvated", user.Address())
	return err
}

// ClaimAndActivate claims the user's share and activates it for rewards.
func (s *Service) ClaimAndActivate(ctx context.Context, user *wallet.User) error {
	_, err := user.Execute(ctx, calls.ClaimAndActivateLiquidityTokens(), "bootstrap", "RewardsLiquidityAcitvated", user.Address())
	return err
}

// Finalize pre-finalizes and finalizes a finished bootstrap in one batch
// signed by the sudo key.
func (s *Service) Finalize(ctx context.Context) error {
	key := s.sudo.Key()
	_, err := s.sudo.BatchAsSudoFinalized(ctx,
		sudo.As(key, calls.PreFinalizeBootstrap()),
		sudo.As(key, calls.FinalizeBootstrap()),
	)
	return err
}

// Cancel cancels a bootstrap that has not started.
func (s *Service) Cancel(ctx context.Context) error {
	_, err := s.sudo.AsSudoFinalized(ctx, calls.CancelBootstrap())
	return err
}

// UpdatePromoteBootstrapPool changes whether the pool will be promoted.
func (s *Service) UpdatePromoteBootstrapPool(ctx context.Context, promote bool) error {
	_, err := s.sudo.AsSudoFinalized(ctx, calls.UpdatePromoteBootstrapPool(promote))
	return err
}

// CheckLastBootstrapFinalized finalizes a bootstrap left in Finished and
// requires the pallet to be back in BeforeStart.
func (s *Service) CheckLastBootstrapFinalized(ctx context.Context) error {
	p, err := s.Phase(ctx)
	if err != nil {
		return err
	}
	if p == Finished {
		s.logger.Info("finalizing leftover bootstrap")
		if err := s.Finalize(ctx); err != nil {
			return err
		}
		if p, err = s.Phase(ctx); err != nil {
			return err
		}
	}
	if p != BeforeStart {
		return &PhaseError{Expected: BeforeStart, Actual: p}
	}
	return nil
}

// CreateBootstrapCurrency issues DefaultCurrencySupply of a new token to
// the sudo key and returns its id.
func (s *Service) CreateBootstrapCurrency(ctx context.Context) (chain.CurrencyID, error) {
	key := s.sudo.Key()
	res, err := s.sudo.AsSudoFinalized(ctx, calls.CreateToken(key.Address(), DefaultCurrencySupply))
	if err != nil {
		return chain.CurrencyID{}, err
	}
	out := chain.ExtractResult(res.Events, "tokens", "Created", key.Address())
	created, ok := out.Payload.(chain.TokensCreated)
	if !ok {
		return chain.CurrencyID{}, fmt.Errorf("tokens.Created not found in %s", res.Hash)
	}
	return created.Currency, nil
}

// PhaseError is returned when the pallet is not in the required phase.
type PhaseError struct {
	Expected Phase
	Actual   Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("bootstrap is in phase %s, expected %s", e.Actual, e.Expected)
}

// ShouldSilenceUsage implements common.SilenceUsageError.
func (e *PhaseError) ShouldSilenceUsage() bool { return true }
