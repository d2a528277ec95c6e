package wallet

import (
	"errors"

	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// captured returns the asset for currency once both snapshots exist.
func (u *User) captured(currency chain.CurrencyID) (*Asset, error) {
	a, err := u.GetAsset(currency)
	if err != nil {
		return nil, err
	}
	for _, slot := range []Slot{Before, After} {
		if !a.Captured(slot) {
			return nil, &SnapshotNotCapturedError{User: u.Name, Currency: currency, Slot: slot}
		}
	}
	return a, nil
}

func (u *User) check(check string, currency chain.CurrencyID, expected func(a *Asset) math.Int) error {
	a, err := u.captured(currency)
	if err != nil {
		return err
	}
	want := expected(a)
	if !a.After().Free.Equal(want) {
		return &AssertionViolationError{
			User:     u.Name,
			Check:    check,
			Currency: currency,
			Expected: want,
			Actual:   a.After().Free,
		}
	}
	return nil
}

// ValidateWalletReduced checks after.free == before.free - amount.
func (u *User) ValidateWalletReduced(currency chain.CurrencyID, amount math.Int) error {
	return u.check("reduced", currency, func(a *Asset) math.Int {
		return a.Before().Free.Sub(amount)
	})
}

// ValidateWalletIncreased checks after.free == before.free + amount.
func (u *User) ValidateWalletIncreased(currency chain.CurrencyID, amount math.Int) error {
	return u.check("increased", currency, func(a *Asset) math.Int {
		return a.Before().Free.Add(amount)
	})
}

// ValidateWalletEquals checks after.free == amount.
func (u *User) ValidateWalletEquals(currency chain.CurrencyID, amount math.Int) error {
	return u.check("equals", currency, func(*Asset) math.Int {
		return amount
	})
}

// ValidateWalletsUnmodified checks before.free == after.free for every
// tracked asset. All violations are reported, joined.
func (u *User) ValidateWalletsUnmodified() error {
	var errs []error
	for _, a := range u.assets {
		if err := u.check("unmodified", a.CurrencyID, func(a *Asset) math.Int {
			return a.Before().Free
		}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Difference is the change of one asset between its snapshots.
type Difference struct {
	Currency chain.CurrencyID
	Before   math.Int
	After    math.Int
	Delta    math.Int
}

// WalletDifferences lists the assets whose free amount changed, in
// registration order.
func (u *User) WalletDifferences() []Difference {
	var diffs []Difference
	for _, a := range u.assets {
		if !a.Changed() {
			continue
		}
		diffs = append(diffs, Difference{
			Currency: a.CurrencyID,
			Before:   a.Before().Free,
			After:    a.After().Free,
			Delta:    a.After().Free.Sub(a.Before().Free),
		})
	}
	return diffs
}
