// Package ports defines the interfaces (ports) that the application layer
// requires from the infrastructure layer. Adapters in internal/infrastructure
// talk to a live node or to the in-process dev chain; the wallet model, the
// poller and the pallet helpers only see these interfaces.
package ports

import (
	"context"
	"encoding/json"

	"cosmossdk.io/math"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// BalanceQuerier reads account balances.
type BalanceQuerier interface {
	// FreeBalances returns the balance of account for every currency, in the
	// same order as currencies. Untouched currencies read as zero.
	FreeBalances(ctx context.Context, account chain.Address, currencies []chain.CurrencyID) ([]chain.Balance, error)

	// AccountNonce returns the next transaction index of account.
	AccountNonce(ctx context.Context, account chain.Address) (uint64, error)
}

// Submitter signs and submits calls.
type Submitter interface {
	// Submit signs call with signer, submits it and blocks until the
	// including block is finalized. The returned result lists the events
	// of that extrinsic in emission order. A dispatch failure is not an
	// error here: it shows up as a system.ExtrinsicFailed event.
	Submit(ctx context.Context, signer Signer, call chain.Call) (*chain.TxResult, error)
}

// BlockSource observes block production.
type BlockSource interface {
	// BlockHeight returns the latest finalized block number.
	BlockHeight(ctx context.Context) (uint64, error)

	// NextBlock blocks until a block higher than the head current at the
	// call is finalized and returns its number.
	NextBlock(ctx context.Context) (uint64, error)
}

// StorageReader reads raw runtime storage.
type StorageReader interface {
	// QueryStorage returns the JSON rendering of pallet.item at keys, or
	// JSON null when the entry is empty.
	QueryStorage(ctx context.Context, pallet, item string, keys ...string) (json.RawMessage, error)
}

// EventReader reads the events of past blocks.
type EventReader interface {
	// EventsAt returns every event emitted in block height.
	EventsAt(ctx context.Context, height uint64) ([]chain.Event, error)
}

// Chain is the connection handle injected into the harness.
type Chain interface {
	BalanceQuerier
	Submitter
	BlockSource
	StorageReader
	EventReader

	// Close releases the connection.
	Close() error
}

// Signer is a signing identity.
type Signer interface {
	// Address returns the account id derived from the public key.
	Address() chain.Address

	// Sign signs payload and returns a 65-byte recoverable signature.
	Sign(payload []byte) ([]byte, error)
}

// KeyStore persists encrypted key material across sessions.
type KeyStore interface {
	// Save stores the encrypted key JSON under address, replacing any
	// previous entry.
	Save(ctx context.Context, address chain.Address, keyJSON []byte) error

	// Load returns the key JSON stored under address.
	Load(ctx context.Context, address chain.Address) ([]byte, error)

	// List returns every stored address.
	List(ctx context.Context) ([]chain.Address, error)

	// Delete removes the entry for address.
	Delete(ctx context.Context, address chain.Address) error
}

// ERC20Reader reads token balances on the L1 side of the rollup.
type ERC20Reader interface {
	// BalanceOf returns the ERC20 balance of holder in the token contract.
	BalanceOf(ctx context.Context, token, holder chain.Address) (math.Int, error)
}
