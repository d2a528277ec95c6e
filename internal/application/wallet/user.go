// Package wallet models a test user: a signing identity plus the balances
// of the currencies a test cares about, captured before and after an
// action so the test can assert on the delta.
package wallet

import (
	"context"
	"fmt"

	"cosmossdk.io/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/b-harvest/gasp-e2e/internal/application/ports"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// GeneratedNamePrefix prefixes the URI of users created without a name.
const GeneratedNamePrefix = "//testUser_"

// Backend is the part of the chain connection a user needs.
type Backend interface {
	ports.BalanceQuerier
	ports.Submitter
}

// Keys derives signing identities from a name or secret URI.
type Keys interface {
	FromURI(uri string) (ports.Signer, error)
}

// User is a signing identity with an ordered set of tracked assets. A User
// is not safe for concurrent use; different users may run concurrently.
type User struct {
	Name string

	signer  ports.Signer
	backend Backend
	logger  log.Logger

	assets []*Asset
	index  map[string]int
}

// Option configures a User.
type Option func(*User)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(u *User) {
		if l != nil {
			u.logger = l
		}
	}
}

// NewUser wraps an existing signer.
func NewUser(name string, signer ports.Signer, backend Backend, opts ...Option) *User {
	u := &User{
		Name:    name,
		signer:  signer,
		backend: backend,
		logger:  log.NewNopLogger(),
		index:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(u)
	}
	u.logger = u.logger.With("user", name)
	return u
}

// CreateUser derives the signing identity from name. An empty name
// generates a unique one, which is logged together with the address.
func CreateUser(keys Keys, backend Backend, name string, opts ...Option) (*User, error) {
	generated := name == ""
	if generated {
		name = GeneratedNamePrefix + uuid.NewString()
	}
	signer, err := keys.FromURI(name)
	if err != nil {
		return nil, fmt.Errorf("derive key for %s: %w", name, err)
	}
	u := NewUser(name, signer, backend, opts...)
	if generated {
		u.logger.Info("created test user", "address", signer.Address())
	}
	return u, nil
}

// Address returns the user's account id.
func (u *User) Address() chain.Address {
	return u.signer.Address()
}

// Signer returns the user's signing identity.
func (u *User) Signer() ports.Signer {
	return u.signer
}

func (u *User) String() string {
	return fmt.Sprintf("%s (%s)", u.Name, u.Address())
}

// AddAsset starts tracking currency with both snapshots uncaptured, so a
// comparison needs a before refresh first. Use AddAssetWithAmount with
// chain.ZeroBalance() to track a currency known to start at zero. Adding a
// tracked currency again is a no-op.
func (u *User) AddAsset(currency chain.CurrencyID) {
	u.add(NewAsset(currency))
}

// AddAssetWithAmount starts tracking currency with its before snapshot set
// to a free amount of initial. Adding a tracked currency again is a no-op.
func (u *User) AddAssetWithAmount(currency chain.CurrencyID, initial chain.Balance) {
	u.add(NewAsset(currency, WithBefore(initial)))
}

// AddAssets tracks every currency in order, skipping tracked ones.
func (u *User) AddAssets(currencies ...chain.CurrencyID) {
	for _, c := range currencies {
		u.AddAsset(c)
	}
}

func (u *User) add(a *Asset) {
	key := a.CurrencyID.String()
	if _, ok := u.index[key]; ok {
		return
	}
	u.index[key] = len(u.assets)
	u.assets = append(u.assets, a)
}

// GetAsset returns the tracked asset itself; changes made through the
// returned pointer are visible to later validations.
func (u *User) GetAsset(currency chain.CurrencyID) (*Asset, error) {
	i, ok := u.index[currency.String()]
	if !ok {
		return nil, &AssetNotTrackedError{User: u.Name, Currency: currency}
	}
	return u.assets[i], nil
}

// Assets returns the tracked assets in registration order.
func (u *User) Assets() []*Asset {
	out := make([]*Asset, len(u.assets))
	copy(out, u.assets)
	return out
}

// Currencies returns the tracked currency ids in registration order.
func (u *User) Currencies() []chain.CurrencyID {
	ids := make([]chain.CurrencyID, len(u.assets))
	for i, a := range u.assets {
		ids[i] = a.CurrencyID
	}
	return ids
}

// RefreshAmounts reads the balance of every tracked currency in a single
// query and writes it to slot. The other slot is left alone.
func (u *User) RefreshAmounts(ctx context.Context, slot Slot) error {
	if len(u.assets) == 0 {
		return nil
	}
	balances, err := u.backend.FreeBalances(ctx, u.Address(), u.Currencies())
	if err != nil {
		return fmt.Errorf("refresh %s amounts of %s: %w", slot, u.Name, err)
	}
	if len(balances) != len(u.assets) {
		return fmt.Errorf("refresh %s amounts of %s: asked for %d balances, got %d",
			slot, u.Name, len(u.assets), len(balances))
	}
	for i, a := range u.assets {
		a.Set(slot, balances[i])
	}
	u.logger.Debug("refreshed amounts", "slot", slot, "assets", len(u.assets))
	return nil
}

// RefreshAll refreshes slot for several users concurrently.
func RefreshAll(ctx context.Context, slot Slot, users ...*User) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, u := range users {
		u := u
		g.Go(func() error {
			return u.RefreshAmounts(ctx, slot)
		})
	}
	return g.Wait()
}
