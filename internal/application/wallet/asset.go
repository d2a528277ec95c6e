package wallet

import (
	"fmt"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// Slot selects one of the two snapshots an Asset carries.
type Slot int

const (
	Before Slot = iota
	After
)

func (s Slot) String() string {
	if s == After {
		return "after"
	}
	return "before"
}

// ParseSlot accepts "before" or "after".
func ParseSlot(s string) (Slot, error) {
	switch s {
	case "before", "BEFORE":
		return Before, nil
	case "after", "AFTER":
		return After, nil
	}
	return Before, fmt.Errorf("unknown snapshot slot %q", s)
}

// Asset is one currency's balance captured before and after an action.
// Both slots start at zero; a slot counts as captured once it was set
// explicitly or filled by a refresh.
type Asset struct {
	CurrencyID chain.CurrencyID

	before   chain.Balance
	after    chain.Balance
	captured [2]bool
}

// AssetOption presets a snapshot slot.
type AssetOption func(*Asset)

// WithBefore presets the before slot.
func WithBefore(b chain.Balance) AssetOption {
	return func(a *Asset) { a.Set(Before, b) }
}

// WithAfter presets the after slot.
func WithAfter(b chain.Balance) AssetOption {
	return func(a *Asset) { a.Set(After, b) }
}

// NewAsset creates an asset with zero balances in both slots.
func NewAsset(id chain.CurrencyID, opts ...AssetOption) *Asset {
	a := &Asset{
		CurrencyID: id,
		before:     chain.ZeroBalance(),
		after:      chain.ZeroBalance(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Asset) Before() chain.Balance { return a.before }

func (a *Asset) After() chain.Balance { return a.after }

// Get returns the balance held in slot.
func (a *Asset) Get(slot Slot) chain.Balance {
	if slot == After {
		return a.after
	}
	return a.before
}

// Set overwrites slot and marks it captured.
func (a *Asset) Set(slot Slot, b chain.Balance) {
	b = b.Normalize()
	if slot == After {
		a.after = b
	} else {
		a.before = b
	}
	a.captured[slot] = true
}

func (a *Asset) SetBefore(b chain.Balance) { a.Set(Before, b) }

func (a *Asset) SetAfter(b chain.Balance) { a.Set(After, b) }

// Captured reports whether slot holds a deliberate snapshot.
func (a *Asset) Captured(slot Slot) bool {
	return a.captured[slot]
}

// Changed reports whether the free amount differs between the slots.
func (a *Asset) Changed() bool {
	return !a.before.Free.Equal(a.after.Free)
}

func (a *Asset) String() string {
	return fmt.Sprintf("asset %s: before{%s} after{%s}", a.CurrencyID, a.before, a.after)
}
