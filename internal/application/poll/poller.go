// Package poll provides bounded wait loops synchronized with block
// production. Every loop evaluates its condition at most once per new block
// and gives up with a TimeoutError after a fixed number of blocks.
package poll

import (
	"context"
	"fmt"

	"cosmossdk.io/log"
	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/application/ports"
)

// DefaultMaxAttempts bounds WaitUntilChanged when no option is given.
const DefaultMaxAttempts = 20

// Poller waits on chain conditions one block at a time.
type Poller struct {
	blocks      ports.BlockSource
	maxAttempts int
	logger      log.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithMaxAttempts sets how many new blocks WaitUntilChanged observes before
// timing out.
func WithMaxAttempts(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Poller on top of a block source.
func New(blocks ports.BlockSource, opts ...Option) *Poller {
	p := &Poller{
		blocks:      blocks,
		maxAttempts: DefaultMaxAttempts,
		logger:      log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxAttempts returns the configured attempt bound.
func (p *Poller) MaxAttempts() int {
	return p.maxAttempts
}

// WaitUntilChanged waits for a new block, fetches a value and repeats while
// the value still equals ref. It returns the first differing value.
func WaitUntilChanged[T any](ctx context.Context, p *Poller, ref T, fetch func(context.Context) (T, error), equal func(a, b T) bool) (T, error) {
	var last T
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		height, err := p.blocks.NextBlock(ctx)
		if err != nil {
			return last, fmt.Errorf("wait for new block: %w", err)
		}
		last, err = fetch(ctx)
		if err != nil {
			return last, fmt.Errorf("fetch at block %d: %w", height, err)
		}
		if !equal(ref, last) {
			p.logger.Debug("value changed", "block", height, "attempt", attempt)
			return last, nil
		}
	}
	return last, &TimeoutError{
		Operation: "wait_until_changed",
		Blocks:    p.maxAttempts,
		Last:      fmt.Sprint(last),
	}
}

// WaitUntilAmountChanged is WaitUntilChanged for balances.
func (p *Poller) WaitUntilAmountChanged(ctx context.Context, ref math.Int, fetch func(context.Context) (math.Int, error)) (math.Int, error) {
	return WaitUntilChanged(ctx, p, ref, fetch, func(a, b math.Int) bool {
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return a.Equal(b)
	})
}

// WaitUntilBlockHeight returns once the chain height reaches target. It
// returns immediately when the chain is already there, and times out after
// maxBlocks new blocks.
func (p *Poller) WaitUntilBlockHeight(ctx context.Context, target, maxBlocks uint64) (uint64, error) {
	current, err := p.blocks.BlockHeight(ctx)
	if err != nil {
		return 0, fmt.Errorf("read block height: %w", err)
	}
	if current >= target {
		return current, nil
	}

	p.logger.Debug("waiting for block height", "target", target, "current", current)
	for i := uint64(0); i < maxBlocks; i++ {
		current, err = p.blocks.NextBlock(ctx)
		if err != nil {
			return current, fmt.Errorf("wait for new block: %w", err)
		}
		if current >= target {
			return current, nil
		}
	}
	return current, &TimeoutError{
		Operation: fmt.Sprintf("wait_until_block_height(%d)", target),
		Blocks:    int(maxBlocks),
		Last:      fmt.Sprint(current),
	}
}

// WaitForNBlocks waits for n new blocks, one after another.
func (p *Poller) WaitForNBlocks(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if _, err := p.blocks.NextBlock(ctx); err != nil {
			return fmt.Errorf("wait for block %d of %d: %w", i+1, n, err)
		}
	}
	return nil
}

// WaitUntil evaluates cond now and then once per new block until it holds,
// for at most maxBlocks blocks.
func (p *Poller) WaitUntil(ctx context.Context, operation string, maxBlocks int, cond func(context.Context) (bool, error)) error {
	ok, err := cond(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	for i := 0; !ok && i < maxBlocks; i++ {
		if _, err := p.blocks.NextBlock(ctx); err != nil {
			return fmt.Errorf("%s: wait for new block: %w", operation, err)
		}
		if ok, err = cond(ctx); err != nil {
			return fmt.Errorf("%s: %w", operation, err)
		}
	}
	if !ok {
		return &TimeoutError{Operation: operation, Blocks: maxBlocks}
	}
	return nil
}
