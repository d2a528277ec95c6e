// Package rolldown drives the L1 to L2 bridge: sequencer reads, deposits,
// withdrawals and the L1 balances they end in.
package rolldown

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/cenkalti/backoff/v4"

	"github.com/b-harvest/gasp-e2e/internal/application/calls"
	"github.com/b-harvest/gasp-e2e/internal/application/poll"
	"github.com/b-harvest/gasp-e2e/internal/application/ports"
	"github.com/b-harvest/gasp-e2e/internal/application/wallet"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

const (
	// DefaultL2ProcessBlocks is the slack UntilL2Processed allows past the
	// block a read is due in.
	DefaultL2ProcessBlocks = 10

	// DefaultL1PollInterval and DefaultL1PollAttempts bound
	// WaitForL1BalanceIncrease.
	DefaultL1PollInterval = 2 * time.Second
	DefaultL1PollAttempts = 30
)

// Reader is the part of the chain connection the service reads from.
type Reader interface {
	ports.StorageReader
	ports.EventReader
}

// Rights are a sequencer's remaining read and cancel rights.
type Rights struct {
	Read   uint64
	Cancel uint64
}

// Service wraps the rolldown pallet and, optionally, an L1 token reader.
type Service struct {
	chain  Reader
	poller *poll.Poller
	l1     ports.ERC20Reader
	logger log.Logger

	l1Interval time.Duration
	l1Attempts uint64
}

// Option configures a Service.
type Option func(*Service)

// WithL1 enables WaitForL1BalanceIncrease.
func WithL1(r ports.ERC20Reader) Option {
	return func(s *Service) { s.l1 = r }
}

// WithL1Polling overrides the L1 polling interval and attempt count.
func WithL1Polling(interval time.Duration, attempts uint64) Option {
	return func(s *Service) {
		s.l1Interval = interval
		s.l1Attempts = attempts
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service.
func NewService(r Reader, poller *poll.Poller, opts ...Option) *Service {
	s := &Service{
		chain:      r,
		poller:     poller,
		logger:     log.NewNopLogger(),
		l1Interval: DefaultL1PollInterval,
		l1Attempts: DefaultL1PollAttempts,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) queryUint(ctx context.Context, item string, keys ...string) (uint64, error) {
	raw, err := s.chain.QueryStorage(ctx, "rolldown", item, keys...)
	if err != nil {
		return 0, fmt.Errorf("query rolldown.%s: %w", item, err)
	}
	v, err := chain.ParseAmount(raw)
	if err != nil {
		return 0, fmt.Errorf("decode rolldown.%s: %w", item, err)
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("rolldown.%s value %s out of range", item, v)
	}
	return v.Uint64(), nil
}

// L2OriginRequestID returns the id the next withdrawal to l1 will get.
func (s *Service) L2OriginRequestID(ctx context.Context, l1 calls.L1) (uint64, error) {
	return s.queryUint(ctx, "l2OriginRequestId", l1.String())
}

// LastProcessedRequestOnL2 returns the last L1 request id applied on L2.
func (s *Service) LastProcessedRequestOnL2(ctx context.Context, l1 calls.L1) (uint64, error) {
	return s.queryUint(ctx, "lastProcessedRequestOnL2", l1.String())
}

// SequencerRights returns the rights of who on l1. A sequencer outside the
// active set has none.
func (s *Service) SequencerRights(ctx context.Context, l1 calls.L1, who chain.Address) (Rights, error) {
	raw, err := s.chain.QueryStorage(ctx, "rolldown", "sequencerRights", l1.String(), who.String())
	if err != nil {
		return Rights{}, fmt.Errorf("query sequencer rights: %w", err)
	}
	if string(raw) == "null" {
		return Rights{}, nil
	}
	var r struct {
		ReadRights   json.RawMessage `json:"readRights"`
		CancelRights json.RawMessage `json:"cancelRights"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return Rights{}, fmt.Errorf("decode sequencer rights %s: %w", string(raw), err)
	}
	read, err := chain.ParseAmount(r.ReadRights)
	if err != nil {
		return Rights{}, err
	}
	cancel, err := chain.ParseAmount(r.CancelRights)
	if err != nil {
		return Rights{}, err
	}
	return Rights{Read: read.Uint64(), Cancel: cancel.Uint64()}, nil
}

// WaitForReadRights waits up to maxBlocks blocks for who to hold a read
// right on l1.
func (s *Service) WaitForReadRights(ctx context.Context, l1 calls.L1, who chain.Address, maxBlocks int) error {
	return s.poller.WaitUntil(ctx, "wait_for_read_rights", maxBlocks, func(ctx context.Context) (bool, error) {
		r, err := s.SequencerRights(ctx, l1, who)
		if err != nil {
			return false, err
		}
		return r.Read > 0, nil
	})
}

// L2CurrencyOf returns the L2 currency registered for the L1 token. The
// second result is false when the token has not been bridged yet.
func (s *Service) L2CurrencyOf(ctx context.Context, l1 calls.L1, token chain.Address) (chain.CurrencyID, bool, error) {
	raw, err := s.chain.QueryStorage(ctx, "assetRegistry", "l1AssetToId", l1.String(), token.String())
	if err != nil {
		return chain.CurrencyID{}, false, fmt.Errorf("query l1 asset: %w", err)
	}
	if string(raw) == "null" {
		return chain.CurrencyID{}, false, nil
	}
	var id chain.CurrencyID
	if err := id.UnmarshalJSON(raw); err != nil {
		return chain.CurrencyID{}, false, err
	}
	return id, true, nil
}

// Deposit has sequencer read a single deposit of amount of token for
// recipient and returns the L1ReadStored result.
func (s *Service) Deposit(ctx context.Context, sequencer *wallet.User, l1 calls.L1, requestIdx uint64, recipient, token chain.Address, amount math.Int) (chain.EventResult, error) {
	update := calls.NewL2Update(l1).WithDeposit(requestIdx, recipient, token, amount).Build()
	return s.Update(ctx, sequencer, update)
}

// Update submits an update_l2_from_l1 call built with calls.L2Update.
func (s *Service) Update(ctx context.Context, sequencer *wallet.User, update chain.Call) (chain.EventResult, error) {
	return sequencer.Execute(ctx, update, "rolldown", "L1ReadStored", sequencer.Address())
}

// Withdraw burns amount of the L2 token bridged from token and requests
// its release to recipient on l1.
func (s *Service) Withdraw(ctx context.Context, user *wallet.User, l1 calls.L1, recipient, token chain.Address, amount math.Int) (chain.EventResult, error) {
	return user.Execute(ctx, calls.Withdraw(l1, recipient, token, amount), "rolldown", "WithdrawalRequestCreated", user.Address())
}

// ProvideSequencerStake bonds amount for who to sequence l1.
func (s *Service) ProvideSequencerStake(ctx context.Context, who *wallet.User, l1 calls.L1, amount math.Int) error {
	_, err := who.Execute(ctx, calls.ProvideSequencerStake(l1, amount), "sequencerStaking", "SequencerJoinedActiveSet", who.Address())
	return err
}

// IsDepositSucceeded reports whether events hold a tokens.Deposited of
// amount to who emitted during block initialization.
func IsDepositSucceeded(events []chain.Event, who chain.Address, amount math.Int) bool {
	for _, ev := range chain.FilterEvents(events, "tokens", "Deposited") {
		if ev.Phase != chain.PhaseInitialization || !ev.Mentions(who) {
			continue
		}
		p, err := chain.Decode(ev)
		if err != nil {
			continue
		}
		if d, ok := p.(chain.TokensDeposited); ok && d.Amount.Equal(amount) {
			return true
		}
	}
	return false
}

// UntilL2Processed waits for the block in which the read stored by result
// is applied and returns that block's events.
func (s *Service) UntilL2Processed(ctx context.Context, result chain.EventResult) ([]chain.Event, error) {
	stored, ok := result.Payload.(chain.L1ReadStored)
	if !ok {
		return nil, fmt.Errorf("expected rolldown.L1ReadStored result, got %T", result.Payload)
	}
	s.logger.Debug("waiting for L1 read", "block", stored.BlockNumber)
	if _, err := s.poller.WaitUntilBlockHeight(ctx, stored.BlockNumber, stored.BlockNumber+DefaultL2ProcessBlocks); err != nil {
		return nil, err
	}
	return s.chain.EventsAt(ctx, stored.BlockNumber)
}

// ErrNoL1 is returned by L1 reads when the service has no L1 reader.
var ErrNoL1 = errors.New("rolldown: no L1 endpoint configured")

// WaitForL1BalanceIncrease polls the ERC20 balance of holder until it
// exceeds before and returns the new balance.
func (s *Service) WaitForL1BalanceIncrease(ctx context.Context, token, holder chain.Address, before math.Int) (math.Int, error) {
	if s.l1 == nil {
		return math.Int{}, ErrNoL1
	}
	var current math.Int
	attempts := 0
	check := func() error {
		attempts++
		v, err := s.l1.BalanceOf(ctx, token, holder)
		if err != nil {
			return err
		}
		current = v
		if !v.GT(before) {
			return fmt.Errorf("balance %s not above %s", v, before)
		}
		return nil
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(s.l1Interval), s.l1Attempts), ctx)
	err := backoff.RetryNotify(check, b, func(err error, next time.Duration) {
		s.logger.Debug("waiting for L1 balance", "token", token.String(), "holder", holder.String(), "reason", err.Error(), "next", next)
	})
	if err != nil {
		if ctx.Err() != nil {
			return current, ctx.Err()
		}
		te := &poll.TimeoutError{Operation: "wait_for_l1_balance_increase", Blocks: attempts}
		if !current.IsNil() {
			te.Last = current.String()
		}
		return current, te
	}
	return current, nil
}
