package devchain

import (
	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// Swap fee in basis points of the sold amount, kept in the pool.
const swapFeeBps = 30

var bps = math.NewInt(10_000)

// poolAccount holds the reserves of every pool.
var poolAccount = chain.MustParseAddress("0x6d6f646c78796b2f706f6f6c0000000000000000")

// sellOutput is the constant product output for selling sold into a pool
// with reserves (rs, rb), net of the swap fee.
func sellOutput(rs, rb, sold math.Int) math.Int {
	net := sold.Mul(bps.SubRaw(swapFeeBps))
	return net.Mul(rb).Quo(rs.Mul(bps).Add(net))
}

// buyInput is the sold amount needed to take bought out of a pool with
// reserves (rs, rb), fee included, rounded up.
func buyInput(rs, rb, bought math.Int) math.Int {
	num := rs.Mul(bought).Mul(bps)
	den := rb.Sub(bought).Mul(bps.SubRaw(swapFeeBps))
	return num.Quo(den).AddRaw(1)
}

func (x *execution) xyk(o origin, call chain.Call) *dispatchError {
	if err := requireSigned(o); err != nil {
		return err
	}
	a := newArgs(call)

	switch normalize(call.Name) {
	case "createpool":
		first, firstAmount := a.currency("first_asset_id"), a.amount("first_asset_amount")
		second, secondAmount := a.currency("second_asset_id"), a.amount("second_asset_amount")
		if a.err != nil {
			return a.err
		}
		return x.createPool(o.who, first, firstAmount, second, secondAmount)

	case "mintliquidity":
		first, second := a.currency("first_asset_id"), a.currency("second_asset_id")
		firstAmount, maxSecond := a.amount("first_asset_amount"), a.amount("expected_second_asset_amount")
		if a.err != nil {
			return a.err
		}
		return x.mintLiquidity(o.who, first, second, firstAmount, maxSecond)

	case "burnliquidity":
		first, second, amount := a.currency("first_asset_id"), a.currency("second_asset_id"), a.amount("liquidity_asset_amount")
		if a.err != nil {
			return a.err
		}
		return x.burnLiquidity(o.who, first, second, amount)

	case "sellasset":
		sold, bought := a.currency("sold_asset_id"), a.currency("bought_asset_id")
		amount, minOut := a.amount("sold_asset_amount"), a.amount("min_amount_out")
		if a.err != nil {
			return a.err
		}
		return x.sell(o.who, []uint32{sold, bought}, amount, minOut)

	case "multiswapsellasset":
		arg, _ := a.get("swap_token_list")
		amount, minOut := a.amount("sold_asset_amount"), a.amount("min_amount_out")
		path := make([]uint32, 0, len(arg.Items))
		for _, it := range arg.Items {
			path = append(path, currencyOf(a, it))
		}
		if a.err != nil {
			return a.err
		}
		return x.sell(o.who, path, amount, minOut)

	case "buyasset":
		sold, bought := a.currency("sold_asset_id"), a.currency("bought_asset_id")
		amount, maxIn := a.amount("bought_asset_amount"), a.amount("max_amount_in")
		if a.err != nil {
			return a.err
		}
		return x.buy(o.who, sold, bought, amount, maxIn)
	}
	return otherErr("%s is not supported", call)
}

func (x *execution) createPool(who chain.Address, first uint32, firstAmount math.Int, second uint32, secondAmount math.Int) *dispatchError {
	switch {
	case first == second:
		return moduleErr("xyk", "SameAsset")
	case firstAmount.IsZero() || secondAmount.IsZero():
		return moduleErr("xyk", "ZeroAmount")
	case !x.s.currencyExists(first) || !x.s.currencyExists(second):
		return moduleErr("xyk", "AssetDoesNotExists")
	}
	key := newPoolKey(first, second)
	if _, ok := x.s.pools[key]; ok {
		return moduleErr("xyk", "PoolAlreadyExists")
	}
	if x.s.free(who, first).LT(firstAmount) || x.s.free(who, second).LT(secondAmount) {
		return moduleErr("xyk", "NotEnoughAssets")
	}

	_ = x.s.transfer(who, poolAccount, first, firstAmount)
	_ = x.s.transfer(who, poolAccount, second, secondAmount)

	liquidity := x.s.newCurrency()
	supply := firstAmount.Add(secondAmount).QuoRaw(2)
	p := pool{liquidity: liquidity, supply: supply}
	p.setReserves(key, first, firstAmount, secondAmount)
	x.s.pools[key] = p
	x.s.liquidityOf[liquidity] = key
	x.s.credit(who, liquidity, supply)

	x.emit(newEvent("xyk", "PoolCreated", who, first, firstAmount, second, secondAmount))
	return nil
}

func (x *execution) mintLiquidity(who chain.Address, first, second uint32, firstAmount, maxSecond math.Int) *dispatchError {
	key := newPoolKey(first, second)
	p, ok := x.s.pools[key]
	if !ok {
		return moduleErr("xyk", "NoSuchPool")
	}
	if firstAmount.IsZero() {
		return moduleErr("xyk", "ZeroAmount")
	}
	rf, rs := p.reserves(key, first)
	if rf.IsZero() {
		return moduleErr("xyk", "PoolIsEmpty")
	}

	secondAmount := firstAmount.Mul(rs).Quo(rf).AddRaw(1)
	if secondAmount.GT(maxSecond) {
		return moduleErr("xyk", "SecondAssetAmountExceededExpectations")
	}
	if x.s.free(who, first).LT(firstAmount) || x.s.free(who, second).LT(secondAmount) {
		return moduleErr("xyk", "NotEnoughAssets")
	}
	minted := firstAmount.Mul(p.supply).Quo(rf)

	_ = x.s.transfer(who, poolAccount, first, firstAmount)
	_ = x.s.transfer(who, poolAccount, second, secondAmount)
	p.setReserves(key, first, rf.Add(firstAmount), rs.Add(secondAmount))
	p.supply = p.supply.Add(minted)
	x.s.pools[key] = p
	x.s.credit(who, p.liquidity, minted)

	x.emit(newEvent("xyk", "LiquidityMinted", who, first, firstAmount, second, secondAmount, p.liquidity, minted))
	return nil
}

func (x *execution) burnLiquidity(who chain.Address, first, second uint32, amount math.Int) *dispatchError {
	key := newPoolKey(first, second)
	p, ok := x.s.pools[key]
	if !ok {
		return moduleErr("xyk", "NoSuchPool")
	}
	if amount.IsZero() {
		return moduleErr("xyk", "ZeroAmount")
	}
	if x.s.free(who, p.liquidity).LT(amount) || p.supply.LT(amount) {
		return moduleErr("xyk", "NotEnoughAssets")
	}

	rf, rs := p.reserves(key, first)
	outFirst := rf.Mul(amount).Quo(p.supply)
	outSecond := rs.Mul(amount).Quo(p.supply)

	_ = x.s.debit(who, p.liquidity, amount)
	_ = x.s.transfer(poolAccount, who, first, outFirst)
	_ = x.s.transfer(poolAccount, who, second, outSecond)
	p.setReserves(key, first, rf.Sub(outFirst), rs.Sub(outSecond))
	p.supply = p.supply.Sub(amount)
	x.s.pools[key] = p

	x.emit(newEvent("xyk", "LiquidityBurned", who, first, outFirst, second, outSecond, p.liquidity, amount))
	return nil
}

// sell swaps amount of path[0] along path.
func (x *execution) sell(who chain.Address, path []uint32, amount, minOut math.Int) *dispatchError {
	if len(path) < 2 {
		return moduleErr("xyk", "NoSuchPool")
	}
	if amount.IsZero() {
		return moduleErr("xyk", "ZeroAmount")
	}
	if x.s.free(who, path[0]).LT(amount) {
		return moduleErr("xyk", "NotEnoughAssets")
	}

	in := amount
	_ = x.s.transfer(who, poolAccount, path[0], in)
	for i := 0; i+1 < len(path); i++ {
		sold, bought := path[i], path[i+1]
		if sold == bought {
			return moduleErr("xyk", "MultiSwapCantHaveSameTokenConsequetively")
		}
		key := newPoolKey(sold, bought)
		p, ok := x.s.pools[key]
		if !ok {
			return moduleErr("xyk", "NoSuchPool")
		}
		rs, rb := p.reserves(key, sold)
		out := sellOutput(rs, rb, in)
		if out.IsZero() {
			return moduleErr("xyk", "SoldAmountTooLow")
		}
		p.setReserves(key, sold, rs.Add(in), rb.Sub(out))
		x.s.pools[key] = p
		in = out
	}
	if in.LT(minOut) {
		return moduleErr("xyk", "InsufficientOutputAmount")
	}
	_ = x.s.transfer(poolAccount, who, path[len(path)-1], in)

	x.emit(newEvent("xyk", "AssetsSwapped", who, path, amount, in))
	return nil
}

func (x *execution) buy(who chain.Address, sold, bought uint32, amount, maxIn math.Int) *dispatchError {
	if sold == bought {
		return moduleErr("xyk", "SameAsset")
	}
	if amount.IsZero() {
		return moduleErr("xyk", "ZeroAmount")
	}
	key := newPoolKey(sold, bought)
	p, ok := x.s.pools[key]
	if !ok {
		return moduleErr("xyk", "NoSuchPool")
	}
	rs, rb := p.reserves(key, sold)
	if amount.GTE(rb) {
		return moduleErr("xyk", "NotEnoughReserve")
	}
	in := buyInput(rs, rb, amount)
	if in.GT(maxIn) {
		return moduleErr("xyk", "InsufficientInputAmount")
	}
	if x.s.free(who, sold).LT(in) {
		return moduleErr("xyk", "NotEnoughAssets")
	}

	_ = x.s.transfer(who, poolAccount, sold, in)
	_ = x.s.transfer(poolAccount, who, bought, amount)
	p.setReserves(key, sold, rs.Add(in), rb.Sub(amount))
	x.s.pools[key] = p

	x.emit(newEvent("xyk", "AssetsSwapped", who, []uint32{sold, bought}, in, amount))
	return nil
}
