package devchain

import (
	"maps"

	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// Bootstrap phases as rendered by bootstrap.phase storage.
const (
	PhaseBeforeStart = "BeforeStart"
	PhaseWhitelist   = "Whitelist"
	PhasePublic      = "Public"
	PhaseFinished    = "Finished"
)

// bootstrapAccount holds provisions until they are turned into a pool.
var bootstrapAccount = chain.MustParseAddress("0x6d6f646c626f6f74737472700000000000000000")

type provision struct {
	first, second math.Int
}

func zeroProvision() provision {
	return provision{first: math.ZeroInt(), second: math.ZeroInt()}
}

func (p provision) add(o provision) provision {
	return provision{first: p.first.Add(o.first), second: p.second.Add(o.second)}
}

func (p provision) sum() math.Int {
	return p.first.Add(p.second)
}

type bootstrapState struct {
	phase     string
	scheduled bool
	first     uint32
	second    uint32
	start     uint64
	whitelist uint64
	public    uint64
	promote   bool

	provisions map[chain.Address]provision
	vested     map[chain.Address]provision
	total      provision

	liquidity    uint32
	minted       math.Int
	claimed      map[chain.Address]bool
	preFinalized bool
}

func newBootstrapState() bootstrapState {
	return bootstrapState{
		phase:      PhaseBeforeStart,
		provisions: make(map[chain.Address]provision),
		vested:     make(map[chain.Address]provision),
		total:      zeroProvision(),
		minted:     math.ZeroInt(),
		claimed:    make(map[chain.Address]bool),
	}
}

func (b bootstrapState) clone() bootstrapState {
	b.provisions = maps.Clone(b.provisions)
	b.vested = maps.Clone(b.vested)
	b.claimed = maps.Clone(b.claimed)
	return b
}

func (b *bootstrapState) contribution(who chain.Address) provision {
	out := zeroProvision()
	if p, ok := b.provisions[who]; ok {
		out = out.add(p)
	}
	if p, ok := b.vested[who]; ok {
		out = out.add(p)
	}
	return out
}

// advanceBootstrap moves the phase forward at the start of block height.
// Entering Finished turns the provisions into a pool.
func (x *execution) advanceBootstrap() {
	b := &x.s.boot
	if !b.scheduled {
		return
	}
	h := x.height
	next := b.phase
	switch {
	case h >= b.start+b.whitelist+b.public:
		next = PhaseFinished
	case h >= b.start+b.whitelist:
		next = PhasePublic
	case h >= b.start:
		next = PhaseWhitelist
	}
	if next == b.phase {
		return
	}
	b.phase = next
	x.emit(newEvent("bootstrap", "PhaseChanged", next))

	if next == PhaseFinished && !b.total.first.IsZero() && !b.total.second.IsZero() {
		key := newPoolKey(b.first, b.second)
		if _, exists := x.s.pools[key]; exists {
			return
		}
		liquidity := x.s.newCurrency()
		supply := b.total.sum().QuoRaw(2)
		p := pool{liquidity: liquidity, supply: supply}
		p.setReserves(key, b.first, b.total.first, b.total.second)
		x.s.pools[key] = p
		x.s.liquidityOf[liquidity] = key
		_ = x.s.transfer(bootstrapAccount, poolAccount, b.first, b.total.first)
		_ = x.s.transfer(bootstrapAccount, poolAccount, b.second, b.total.second)
		x.s.credit(bootstrapAccount, liquidity, supply)
		b.liquidity, b.minted = liquidity, supply
		x.emit(newEvent("xyk", "PoolCreated", bootstrapAccount, b.first, b.total.first, b.second, b.total.second))
	}
}

func (x *execution) bootstrap(o origin, call chain.Call) *dispatchError {
	a := newArgs(call)
	b := &x.s.boot

	switch normalize(call.Name) {
	case "schedulebootstrap":
		first, second := a.currency("first_token_id"), a.currency("second_token_id")
		start := a.u64("ido_start")
		publicLen := a.u64("public_phase_length")
		whitelistArg, _ := a.get("whitelist_phase_length")
		promote := a.boolean("promote_bootstrap_pool")
		if a.err != nil {
			return a.err
		}
		if err := requireRoot(o); err != nil {
			return err
		}
		var whitelist uint64
		if len(whitelistArg.Items) > 0 && !whitelistArg.Items[0].Uint.IsNil() {
			whitelist = whitelistArg.Items[0].Uint.Uint64()
		}
		switch {
		case b.phase != PhaseBeforeStart:
			return moduleErr("bootstrap", "AlreadyStarted")
		case first == second:
			return moduleErr("bootstrap", "SameToken")
		case !x.s.currencyExists(first) || !x.s.currencyExists(second):
			return moduleErr("bootstrap", "TokenIdDoesNotExists")
		case start <= x.height:
			return moduleErr("bootstrap", "BootstrapStartInThePast")
		case publicLen == 0:
			return moduleErr("bootstrap", "PhaseLengthCannotBeZero")
		}
		if _, exists := x.s.pools[newPoolKey(first, second)]; exists {
			return moduleErr("bootstrap", "PoolAlreadyExists")
		}
		fresh := newBootstrapState()
		fresh.scheduled = true
		fresh.first, fresh.second = first, second
		fresh.start, fresh.whitelist, fresh.public = start, whitelist, publicLen
		fresh.promote = promote
		*b = fresh

	case "cancelbootstrap":
		if err := requireRoot(o); err != nil {
			return err
		}
		if !b.scheduled {
			return moduleErr("bootstrap", "BootstrapNotSchduled")
		}
		if b.phase != PhaseBeforeStart {
			return moduleErr("bootstrap", "AlreadyStarted")
		}
		*b = newBootstrapState()

	case "updatepromotebootstrappool":
		promote := a.boolean("promote_bootstrap_pool")
		if a.err != nil {
			return a.err
		}
		if err := requireRoot(o); err != nil {
			return err
		}
		if b.phase == PhaseFinished {
			return moduleErr("bootstrap", "BootstrapFinished")
		}
		b.promote = promote

	case "provision", "provisionvested":
		token, amount := a.currency("token_id"), a.amount("amount")
		if a.err != nil {
			return a.err
		}
		if err := requireSigned(o); err != nil {
			return err
		}
		return x.provision(o.who, token, amount, normalize(call.Name) == "provisionvested")

	case "claimliquiditytokens", "claimandactivateliquiditytokens":
		if err := requireSigned(o); err != nil {
			return err
		}
		return x.claim(o.who, normalize(call.Name) == "claimandactivateliquiditytokens")

	case "prefinalize":
		if err := requireSigned(o); err != nil {
			return err
		}
		if b.phase != PhaseFinished {
			return moduleErr("bootstrap", "NotFinishedYet")
		}
		b.preFinalized = true

	case "finalize":
		if err := requireSigned(o); err != nil {
			return err
		}
		if b.phase != PhaseFinished {
			return moduleErr("bootstrap", "NotFinishedYet")
		}
		if !b.preFinalized {
			return moduleErr("bootstrap", "BootstrapMustBePreFinalized")
		}
		*b = newBootstrapState()
		x.emit(newEvent("bootstrap", "BootstrapFinalized"))

	default:
		return otherErr("%s is not supported", call)
	}
	return nil
}

func (x *execution) provision(who chain.Address, token uint32, amount math.Int, vested bool) *dispatchError {
	b := &x.s.boot
	if b.phase != PhaseWhitelist && b.phase != PhasePublic {
		return moduleErr("bootstrap", "Unauthorized")
	}
	if token != b.first && token != b.second {
		return moduleErr("bootstrap", "UnsupportedTokenId")
	}
	if b.total.first.IsZero() && token == b.second && b.phase == PhaseWhitelist {
		return moduleErr("bootstrap", "FirstProvisionInSecondTokenId")
	}
	if x.s.transfer(who, bootstrapAccount, token, amount) != nil {
		if vested {
			return moduleErr("bootstrap", "NotEnoughVestedAssets")
		}
		return moduleErr("bootstrap", "NotEnoughAssets")
	}

	add := zeroProvision()
	if token == b.first {
		add.first = amount
	} else {
		add.second = amount
	}
	book := b.provisions
	if vested {
		book = b.vested
	}
	cur, ok := book[who]
	if !ok {
		cur = zeroProvision()
	}
	book[who] = cur.add(add)
	b.total = b.total.add(add)

	x.emit(newEvent("bootstrap", "Provisioned", who, token, amount))
	return nil
}

func (x *execution) claim(who chain.Address, activate bool) *dispatchError {
	b := &x.s.boot
	if b.phase != PhaseFinished {
		return moduleErr("bootstrap", "NotFinishedYet")
	}
	contrib := b.contribution(who)
	if b.claimed[who] || contrib.sum().IsZero() || b.total.sum().IsZero() {
		return moduleErr("bootstrap", "NothingToClaim")
	}

	share := b.minted.Mul(contrib.sum()).Quo(b.total.sum())
	if err := x.s.transfer(bootstrapAccount, who, b.liquidity, share); err != nil {
		return moduleErr("bootstrap", "MathOverflow")
	}
	b.claimed[who] = true
	if activate {
		if x.s.reserve(who, b.liquidity, share) != nil {
			return moduleErr("bootstrap", "TokensActivationFailed")
		}
	}
	x.emit(newEvent("bootstrap", "RewardsLiquidityAcitvated", who, b.liquidity, share))
	return nil
}
