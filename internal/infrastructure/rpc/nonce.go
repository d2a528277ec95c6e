package rpc

import (
	"context"
	"sync"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// nonceTracker hands out consecutive nonces per signer so that parallel
// submissions from one account do not collide. The first nonce of a signer
// is read from chain.
type nonceTracker struct {
	mu   sync.Mutex
	next map[chain.Address]uint64
}

func newNonceTracker() *nonceTracker {
	return &nonceTracker{next: make(map[chain.Address]uint64)}
}

func (t *nonceTracker) Next(ctx context.Context, addr chain.Address, fetch func(context.Context, chain.Address) (uint64, error)) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.next[addr]
	if !ok {
		onChain, err := fetch(ctx, addr)
		if err != nil {
			return 0, err
		}
		n = onChain
	}
	t.next[addr] = n + 1
	return n, nil
}

// Reset forgets addr so its next nonce is read from chain again.
func (t *nonceTracker) Reset(addr chain.Address) {
	t.mu.Lock()
	delete(t.next, addr)
	t.mu.Unlock()
}
