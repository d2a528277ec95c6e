// Package devchain is an in-process GASP chain. It implements the same
// ports as the sidecar client, so scenarios run unchanged against it: calls
// are SCALE encoded and signed, dispatched against an in-memory runtime and
// sealed into blocks whose events use the sidecar JSON shapes.
package devchain

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"golang.org/x/crypto/blake2b"

	"github.com/b-harvest/gasp-e2e/internal/application/ports"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/rpc"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/scale"
)

const (
	// DefaultDisputePeriod is the number of blocks an L1 read waits before
	// it is applied.
	DefaultDisputePeriod = 5
)

// DefaultMinSequencerStake is the smallest stake that joins the active set.
var DefaultMinSequencerStake = math.NewInt(1_000_000)

// ErrClosed is returned by calls on a closed chain.
var ErrClosed = errors.New("devchain: closed")

var _ ports.Chain = (*Chain)(nil)

type endowment struct {
	who      chain.Address
	currency uint32
	amount   math.Int
}

type config struct {
	sudo              chain.Address
	endowments        []endowment
	disputePeriod     uint64
	minSequencerStake math.Int
	sealInterval      time.Duration
	logger            log.Logger
}

// Option configures a Chain.
type Option func(*config)

// WithSudo sets the sudo key.
func WithSudo(who chain.Address) Option {
	return func(c *config) { c.sudo = who }
}

// WithEndowment credits amount of currency to who at genesis. Currencies up
// to the highest endowed id are created.
func WithEndowment(who chain.Address, currency chain.CurrencyID, amount math.Int) Option {
	return func(c *config) {
		id, err := currency.Uint32()
		if err != nil {
			panic(err)
		}
		c.endowments = append(c.endowments, endowment{who: who, currency: id, amount: amount})
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithAutoSeal produces a block every interval instead of one block per
// submitted extrinsic.
func WithAutoSeal(interval time.Duration) Option {
	return func(c *config) { c.sealInterval = interval }
}

// WithDisputePeriod sets how many blocks L1 reads wait before processing.
func WithDisputePeriod(blocks uint64) Option {
	return func(c *config) { c.disputePeriod = blocks }
}

// WithMinSequencerStake sets the stake needed to become a sequencer.
func WithMinSequencerStake(amount math.Int) Option {
	return func(c *config) { c.minSequencerStake = amount }
}

type block struct {
	number uint64
	hash   string
	events []chain.Event
}

type txOutcome struct {
	result *chain.TxResult
	err    error
}

type pendingTx struct {
	who  chain.Address
	call chain.Call
	hash string
	done chan txOutcome
}

// Chain is the dev chain.
type Chain struct {
	cfg  config
	info scale.ChainInfo

	mu     sync.Mutex
	live   *state
	blocks []block
	queue  []*pendingTx
	sealed chan struct{}
	closed bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// New starts a dev chain at genesis.
func New(opts ...Option) *Chain {
	cfg := config{
		disputePeriod:     DefaultDisputePeriod,
		minSequencerStake: DefaultMinSequencerStake,
		logger:            log.NewNopLogger(),
	}
	for _, o := range opts {
		o(&cfg)
	}

	s := newState()
	s.sudo = cfg.sudo
	for _, e := range cfg.endowments {
		for !s.currencyExists(e.currency) {
			s.newCurrency()
		}
		s.credit(e.who, e.currency, e.amount)
	}

	genesis := blake2b.Sum256([]byte("gasp-devchain"))
	c := &Chain{
		cfg:    cfg,
		info:   scale.ChainInfo{SpecVersion: 1, TxVersion: 1, GenesisHash: genesis},
		live:   s,
		blocks: []block{{number: 0, hash: scale.Hex(genesis[:])}},
		sealed: make(chan struct{}),
		stop:   make(chan struct{}),
	}

	if cfg.sealInterval > 0 {
		c.wg.Add(1)
		go c.autoSeal()
	}
	return c
}

func (c *Chain) autoSeal() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.sealInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			txs := c.queue
			c.queue = nil
			c.seal(txs)
			c.mu.Unlock()
		}
	}
}

func (c *Chain) height() uint64 {
	return uint64(len(c.blocks) - 1)
}

// seal produces the next block with txs. Callers hold c.mu.
func (c *Chain) seal(txs []*pendingTx) {
	height := c.height() + 1
	x := &execution{s: c.live, cfg: &c.cfg, height: height}

	x.advanceBootstrap()
	x.processRolldown()
	setPhase(x.events, chain.PhaseInitialization)

	results := make([]*chain.TxResult, len(txs))
	hasher, _ := blake2b.New256(nil)
	hasher.Write([]byte(c.blocks[len(c.blocks)-1].hash))
	_ = binary.Write(hasher, binary.BigEndian, height)

	for i, tx := range txs {
		hasher.Write([]byte(tx.hash))
		x.s.nonces[tx.who]++

		mark := len(x.events)
		if err := x.try(signed(tx.who), tx.call); err != nil {
			x.emit(extrinsicFailed(err))
			c.cfg.logger.Debug("extrinsic failed", "call", tx.call.String(), "who", tx.who.String(), "error", err.Error())
		} else {
			x.emit(extrinsicSuccess())
		}
		setPhase(x.events[mark:], chain.PhaseApplyExtrinsic)
		results[i] = &chain.TxResult{Hash: tx.hash, BlockHeight: height, Events: slices.Clone(x.events[mark:])}
	}

	c.live = x.s
	b := block{number: height, hash: scale.Hex(hasher.Sum(nil)), events: x.events}
	c.blocks = append(c.blocks, b)
	c.cfg.logger.Debug("sealed block", "height", height, "extrinsics", len(txs), "events", len(x.events))

	for i, tx := range txs {
		results[i].BlockHash = b.hash
		tx.done <- txOutcome{result: results[i]}
	}
	close(c.sealed)
	c.sealed = make(chan struct{})
}

func setPhase(events []chain.Event, p chain.Phase) {
	for i := range events {
		events[i].Phase = p
	}
}

// Submit implements ports.Submitter.
func (c *Chain) Submit(ctx context.Context, signer ports.Signer, call chain.Call) (*chain.TxResult, error) {
	encoded, err := scale.EncodeCall(layout, call)
	if err != nil {
		return nil, err
	}
	who := signer.Address()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	nonce := c.live.nonces[who]
	for _, q := range c.queue {
		if q.who == who {
			nonce++
		}
	}
	ext, err := scale.BuildSigned(signer, encoded, c.info, scale.SignOptions{Nonce: nonce, Tip: math.ZeroInt()})
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	tx := &pendingTx{who: who, call: call, hash: scale.ExtrinsicHash(ext), done: make(chan txOutcome, 1)}
	if c.cfg.sealInterval > 0 {
		c.queue = append(c.queue, tx)
	} else {
		c.seal([]*pendingTx{tx})
	}
	c.mu.Unlock()

	select {
	case out := <-tx.done:
		if out.err != nil {
			return nil, out.err
		}
		return out.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// BlockHeight implements ports.BlockSource.
func (c *Chain) BlockHeight(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosed
	}
	return c.height(), nil
}

// NextBlock implements ports.BlockSource. It waits for a block above the
// height current at the call; without auto sealing it seals an empty one.
func (c *Chain) NextBlock(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, ErrClosed
	}
	start := c.height()
	if c.cfg.sealInterval == 0 {
		c.seal(nil)
		h := c.height()
		c.mu.Unlock()
		return h, nil
	}
	c.mu.Unlock()

	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return 0, ErrClosed
		}
		if h := c.height(); h > start {
			c.mu.Unlock()
			return h, nil
		}
		wait := c.sealed
		c.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// EventsAt implements ports.EventReader.
func (c *Chain) EventsAt(ctx context.Context, height uint64) ([]chain.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if height > c.height() {
		return nil, &rpc.NotFoundError{Resource: fmt.Sprintf("block %d", height)}
	}
	return slices.Clone(c.blocks[height].events), nil
}

// FreeBalances implements ports.BalanceQuerier.
func (c *Chain) FreeBalances(ctx context.Context, account chain.Address, currencies []chain.CurrencyID) ([]chain.Balance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]chain.Balance, len(currencies))
	for i, id := range currencies {
		n, err := id.Uint32()
		if err != nil {
			return nil, err
		}
		out[i] = c.live.balance(account, n)
	}
	return out, nil
}

// AccountNonce implements ports.BalanceQuerier.
func (c *Chain) AccountNonce(ctx context.Context, account chain.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live.nonces[account], nil
}

// Close stops block production. Extrinsics still queued fail with
// ErrClosed.
func (c *Chain) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	queued := c.queue
	c.queue = nil
	c.mu.Unlock()

	close(c.stop)
	c.wg.Wait()
	for _, tx := range queued {
		tx.done <- txOutcome{err: ErrClosed}
	}
	return nil
}
