package devchain

import (
	"maps"

	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// nativeCurrency is the currency fees and sequencer stakes are paid in.
const nativeCurrency uint32 = 0

type poolKey struct {
	a, b uint32
}

func newPoolKey(x, y uint32) poolKey {
	if x > y {
		x, y = y, x
	}
	return poolKey{a: x, b: y}
}

type pool struct {
	reserveA  math.Int
	reserveB  math.Int
	liquidity uint32
	supply    math.Int
}

// reserves returns the reserves ordered as (sold, bought).
func (p pool) reserves(k poolKey, sold uint32) (math.Int, math.Int) {
	if sold == k.a {
		return p.reserveA, p.reserveB
	}
	return p.reserveB, p.reserveA
}

func (p *pool) setReserves(k poolKey, sold uint32, rs, rb math.Int) {
	if sold == k.a {
		p.reserveA, p.reserveB = rs, rb
		return
	}
	p.reserveB, p.reserveA = rs, rb
}

type rightsKey struct {
	l1   uint8
	addr chain.Address
}

type sequencerRights struct {
	read   uint64
	cancel uint64
}

type assetKey struct {
	l1    uint8
	token chain.Address
}

type pendingDeposit struct {
	requestID uint64
	recipient chain.Address
	token     chain.Address
	amount    math.Int
}

type pendingUpdate struct {
	l1        uint8
	sequencer chain.Address
	at        uint64
	deposits  []pendingDeposit
	lastID    uint64
}

// state is everything a dispatch can modify. Dispatches run against a
// clone that replaces the live state only on success.
type state struct {
	balances     map[chain.Address]map[uint32]chain.Balance
	nextCurrency uint32
	nonces       map[chain.Address]uint64
	sudo         chain.Address

	pools       map[poolKey]pool
	liquidityOf map[uint32]poolKey

	boot bootstrapState

	rights        map[rightsKey]sequencerRights
	stakes        map[rightsKey]math.Int
	l2Origin      map[uint8]uint64
	lastProcessed map[uint8]uint64
	pending       []pendingUpdate
	assets        map[assetKey]uint32
}

func newState() *state {
	return &state{
		balances:      make(map[chain.Address]map[uint32]chain.Balance),
		nextCurrency:  1,
		nonces:        make(map[chain.Address]uint64),
		pools:         make(map[poolKey]pool),
		liquidityOf:   make(map[uint32]poolKey),
		boot:          newBootstrapState(),
		rights:        make(map[rightsKey]sequencerRights),
		stakes:        make(map[rightsKey]math.Int),
		l2Origin:      make(map[uint8]uint64),
		lastProcessed: make(map[uint8]uint64),
		assets:        make(map[assetKey]uint32),
	}
}

func (s *state) clone() *state {
	c := *s
	c.balances = make(map[chain.Address]map[uint32]chain.Balance, len(s.balances))
	for addr, m := range s.balances {
		c.balances[addr] = maps.Clone(m)
	}
	c.nonces = maps.Clone(s.nonces)
	c.pools = maps.Clone(s.pools)
	c.liquidityOf = maps.Clone(s.liquidityOf)
	c.boot = s.boot.clone()
	c.rights = maps.Clone(s.rights)
	c.stakes = maps.Clone(s.stakes)
	c.l2Origin = maps.Clone(s.l2Origin)
	c.lastProcessed = maps.Clone(s.lastProcessed)
	c.pending = append([]pendingUpdate(nil), s.pending...)
	c.assets = maps.Clone(s.assets)
	return &c
}

func (s *state) currencyExists(id uint32) bool {
	return id < s.nextCurrency
}

func (s *state) newCurrency() uint32 {
	id := s.nextCurrency
	s.nextCurrency++
	return id
}

func (s *state) balance(addr chain.Address, id uint32) chain.Balance {
	if b, ok := s.balances[addr][id]; ok {
		return b
	}
	return chain.ZeroBalance()
}

func (s *state) setBalance(addr chain.Address, id uint32, b chain.Balance) {
	m := s.balances[addr]
	if m == nil {
		m = make(map[uint32]chain.Balance)
		s.balances[addr] = m
	}
	m[id] = b.Normalize()
}

func (s *state) free(addr chain.Address, id uint32) math.Int {
	return s.balance(addr, id).Free
}

func (s *state) credit(addr chain.Address, id uint32, amount math.Int) {
	b := s.balance(addr, id)
	b.Free = b.Free.Add(amount)
	s.setBalance(addr, id, b)
}

func (s *state) debit(addr chain.Address, id uint32, amount math.Int) *dispatchError {
	b := s.balance(addr, id)
	if b.Free.LT(amount) {
		return moduleErr("tokens", "BalanceTooLow")
	}
	b.Free = b.Free.Sub(amount)
	s.setBalance(addr, id, b)
	return nil
}

func (s *state) transfer(from, to chain.Address, id uint32, amount math.Int) *dispatchError {
	if err := s.debit(from, id, amount); err != nil {
		return err
	}
	s.credit(to, id, amount)
	return nil
}

// reserve moves amount from free to reserved.
func (s *state) reserve(addr chain.Address, id uint32, amount math.Int) *dispatchError {
	b := s.balance(addr, id)
	if b.Free.LT(amount) {
		return moduleErr("tokens", "BalanceTooLow")
	}
	b.Free = b.Free.Sub(amount)
	b.Reserved = b.Reserved.Add(amount)
	s.setBalance(addr, id, b)
	return nil
}
