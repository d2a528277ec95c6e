package wallet

import (
	"context"
	"fmt"
	"math/big"

	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/application/calls"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

var (
	// MaxBalance is the largest u128, used as an open upper bound.
	MaxBalance = math.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1)))

	// DefaultMaxAmountIn bounds what BuyAssets may spend unless told otherwise.
	DefaultMaxAmountIn = math.NewInt(1_000_000)

	// DefaultNativeGrant is what AddNativeTokens mints when no amount is given.
	DefaultNativeGrant = math.NewInt(100_000_000_000)
)

// Execute submits call signed by the user, waits for finalization and
// extracts pallet.method mentioning who. Anything but ExtrinsicSuccess is
// returned as a TransactionRejectedError. Nothing is retried.
func (u *User) Execute(ctx context.Context, call chain.Call, pallet, method string, who chain.Address) (chain.EventResult, error) {
	res, err := u.Submit(ctx, call)
	if err != nil {
		return chain.EventResult{}, err
	}
	out := chain.ExtractResult(res.Events, pallet, method, who)
	if out.State != chain.ExtrinsicSuccess {
		u.logger.Warn("extrinsic rejected", "call", call.Method(), "state", out.State, "reason", out.ErrorName())
		return out, &TransactionRejectedError{
			Call:     call.Method(),
			Expected: pallet + "." + method,
			State:    out.State,
			Reason:   out.ErrorName(),
			TxHash:   res.Hash,
		}
	}
	u.logger.Debug("extrinsic succeeded", "call", call.Method(), "block", res.BlockHeight)
	return out, nil
}

// Submit signs and submits call and returns every event of the finalized
// extrinsic without interpreting them.
func (u *User) Submit(ctx context.Context, call chain.Call) (*chain.TxResult, error) {
	res, err := u.backend.Submit(ctx, u.signer, call)
	if err != nil {
		return nil, fmt.Errorf("submit %s as %s: %w", call, u.Name, err)
	}
	return res, nil
}

// Mint issues amount of currency to target. The user must hold the sudo key.
func (u *User) Mint(ctx context.Context, currency chain.CurrencyID, target *User, amount math.Int) error {
	_, err := u.Execute(ctx, calls.Sudo(calls.Mint(currency, target.Address(), amount)), "tokens", "Minted", target.Address())
	return err
}

// BuyAssets buys amount of bought paying at most maxAmountIn of sold.
func (u *User) BuyAssets(ctx context.Context, sold, bought chain.CurrencyID, amount, maxAmountIn math.Int) error {
	_, err := u.Execute(ctx, calls.BuyAsset(sold, bought, amount, maxAmountIn), "xyk", "AssetsSwapped", u.Address())
	return err
}

// SellAssets sells amount of sold for any amount of bought.
func (u *User) SellAssets(ctx context.Context, sold, bought chain.CurrencyID, amount math.Int) error {
	_, err := u.Execute(ctx, calls.SellAsset(sold, bought, amount, math.ZeroInt()), "xyk", "AssetsSwapped", u.Address())
	return err
}

// MultiswapSellAsset sells amount of path[0] through every pool along path
// and fails unless at least minAmountOut of the last currency comes out.
func (u *User) MultiswapSellAsset(ctx context.Context, path []chain.CurrencyID, amount, minAmountOut math.Int) error {
	_, err := u.Execute(ctx, calls.MultiswapSellAsset(path, amount, minAmountOut), "xyk", "AssetsSwapped", u.Address())
	return err
}

// MintLiquidity adds firstAmount of first to the first/second pool,
// accepting up to expectedSecondAmount of second.
func (u *User) MintLiquidity(ctx context.Context, first, second chain.CurrencyID, firstAmount, expectedSecondAmount math.Int) error {
	_, err := u.Execute(ctx, calls.MintLiquidity(first, second, firstAmount, expectedSecondAmount), "xyk", "LiquidityMinted", u.Address())
	return err
}

// CreatePoolToAsset creates the first/second pool with the given reserves.
func (u *User) CreatePoolToAsset(ctx context.Context, firstAmount, secondAmount math.Int, first, second chain.CurrencyID) error {
	_, err := u.Execute(ctx, calls.CreatePool(first, firstAmount, second, secondAmount), "xyk", "PoolCreated", u.Address())
	return err
}

// AddNativeTokens has sudo mint native currency to the user. A nil amount
// mints DefaultNativeGrant.
func (u *User) AddNativeTokens(ctx context.Context, sudo *User, amount math.Int) error {
	if amount.IsNil() {
		amount = DefaultNativeGrant
	}
	return sudo.Mint(ctx, chain.NativeCurrency, u, amount)
}

// RemoveTokens transfers the whole balance of every tracked currency to
// dest, usually the pallet account.
func (u *User) RemoveTokens(ctx context.Context, dest chain.Address) error {
	for _, a := range u.assets {
		if _, err := u.Execute(ctx, calls.TransferAll(dest, a.CurrencyID, false), "system", "ExtrinsicSuccess", ""); err != nil {
			return err
		}
	}
	return nil
}

// AccountNonce returns the user's next transaction index.
func (u *User) AccountNonce(ctx context.Context) (uint64, error) {
	return u.backend.AccountNonce(ctx, u.Address())
}
