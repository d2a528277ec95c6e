package calls

import (
	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

func CreatePool(first chain.CurrencyID, firstAmount math.Int, second chain.CurrencyID, secondAmount math.Int) chain.Call {
	return chain.NewCall("xyk", "create_pool",
		chain.Currency("first_asset_id", first),
		chain.U128("first_asset_amount", firstAmount),
		chain.Currency("second_asset_id", second),
		chain.U128("second_asset_amount", secondAmount),
	)
}

func MintLiquidity(first, second chain.CurrencyID, firstAmount, expectedSecondAmount math.Int) chain.Call {
	return chain.NewCall("xyk", "mint_liquidity",
		chain.Currency("first_asset_id", first),
		chain.Currency("second_asset_id", second),
		chain.U128("first_asset_amount", firstAmount),
		chain.U128("expected_second_asset_amount", expectedSecondAmount),
	)
}

func BurnLiquidity(first, second chain.CurrencyID, liquidityAmount math.Int) chain.Call {
	return chain.NewCall("xyk", "burn_liquidity",
		chain.Currency("first_asset_id", first),
		chain.Currency("second_asset_id", second),
		chain.U128("liquidity_asset_amount", liquidityAmount),
	)
}

func SellAsset(sold, bought chain.CurrencyID, soldAmount, minAmountOut math.Int) chain.Call {
	return chain.NewCall("xyk", "sell_asset",
		chain.Currency("sold_asset_id", sold),
		chain.Currency("bought_asset_id", bought),
		chain.U128("sold_asset_amount", soldAmount),
		chain.U128("min_amount_out", minAmountOut),
	)
}

func BuyAsset(sold, bought chain.CurrencyID, boughtAmount, maxAmountIn math.Int) chain.Call {
	return chain.NewCall("xyk", "buy_asset",
		chain.Currency("sold_asset_id", sold),
		chain.Currency("bought_asset_id", bought),
		chain.U128("bought_asset_amount", boughtAmount),
		chain.U128("max_amount_in", maxAmountIn),
	)
}

// MultiswapSellAsset sells along path, path[0] being the sold currency.
func MultiswapSellAsset(path []chain.CurrencyID, soldAmount, minAmountOut math.Int) chain.Call {
	ids := make([]chain.Arg, len(path))
	for i, id := range path {
		ids[i] = chain.Currency("", id)
	}
	return chain.NewCall("xyk", "multiswap_sell_asset",
		chain.Vec("swap_token_list", ids...),
		chain.U128("sold_asset_amount", soldAmount),
		chain.U128("min_amount_out", minAmountOut),
	)
}
