package helpers

import (
	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/application/wallet"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// FreeBalance reads the free balance of who in currency.
func (tc *TestContext) FreeBalance(who chain.Address, currency chain.CurrencyID) math.Int {
	tc.t.Helper()
	b, err := tc.Chain.FreeBalances(tc.Ctx, who, []chain.CurrencyID{currency})
	if err != nil {
		tc.t.Fatalf("free balance of %s: %v", who, err)
	}
	return b[0].Normalize().Free
}

// AssertFreeBalance fails the test unless who holds exactly want of currency.
func (tc *TestContext) AssertFreeBalance(who chain.Address, currency chain.CurrencyID, want math.Int) {
	tc.t.Helper()
	if got := tc.FreeBalance(who, currency); !got.Equal(want) {
		tc.t.Fatalf("free balance of %s in %s: expected %s, got %s", who, currency, want, got)
	}
}

// Snapshot refreshes slot for every user concurrently.
func (tc *TestContext) Snapshot(slot wallet.Slot, users ...*wallet.User) {
	tc.t.Helper()
	if err := wallet.RefreshAll(tc.Ctx, slot, users...); err != nil {
		tc.t.Fatalf("refresh %s: %v", slot, err)
	}
}

// AssertRejected fails the test unless err is a transaction rejection with
// the given reason.
func (tc *TestContext) AssertRejected(err error, reason string) {
	tc.t.Helper()
	if !wallet.IsTransactionRejected(err) {
		tc.t.Fatalf("expected a rejected transaction, got %v", err)
	}
	if got := wallet.RejectionReason(err); got != reason {
		tc.t.Fatalf("expected rejection %s, got %s", reason, got)
	}
}
