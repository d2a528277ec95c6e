package devchain

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/rpc"
)

var jsonNull = json.RawMessage("null")

type storageItem func(s *state, c *Chain, keys []string) (any, error)

// storage lists the readable items by normalized "pallet.item".
var storage = map[string]storageItem{
	"system.account":                    systemAccount,
	"system.number":                     func(_ *state, c *Chain, _ []string) (any, error) { return u64(c.height()), nil },
	"sudo.key":                          sudoKey,
	"tokens.accounts":                   tokensAccounts,
	"tokens.nextcurrencyid":             func(s *state, _ *Chain, _ []string) (any, error) { return u64(uint64(s.nextCurrency)), nil },
	"tokens.totalissuance":              totalIssuance,
	"xyk.pools":                         xykPools,
	"xyk.liquidityassets":               liquidityAssets,
	"xyk.liquiditypools":                liquidityPools,
	"bootstrap.phase":                   func(s *state, _ *Chain, _ []string) (any, error) { return s.boot.phase, nil },
	"bootstrap.promotebootstrappool":    func(s *state, _ *Chain, _ []string) (any, error) { return s.boot.promote, nil },
	"bootstrap.activepair":              activePair,
	"bootstrap.bootstrapschedule":       bootstrapSchedule,
	"bootstrap.provisions":              provisionsOf(false),
	"bootstrap.vestedprovisions":        provisionsOf(true),
	"bootstrap.valuations":              valuations,
	"bootstrap.mintedliquidity":         mintedLiquidity,
	"rolldown.l2originrequestid":        l2OriginRequestID,
	"rolldown.lastprocessedrequestonl2": lastProcessed,
	"rolldown.sequencerrights":          sequencerRightsOf,
	"assetregistry.l1assettoid":         l1AssetToID,
}

// QueryStorage implements ports.StorageReader with sidecar renderings of
// the dev runtime's storage.
func (c *Chain) QueryStorage(ctx context.Context, pallet, item string, keys ...string) (json.RawMessage, error) {
	read, ok := storage[normalize(pallet)+"."+normalize(item)]
	if !ok {
		return nil, &rpc.NotFoundError{Resource: fmt.Sprintf("storage %s.%s", pallet, item)}
	}

	c.mu.Lock()
	v, err := read(c.live, c, keys)
	c.mu.Unlock()
	if err != nil {
		return nil, &rpc.RPCError{Operation: "query_storage", Message: fmt.Sprintf("%s.%s: %v", pallet, item, err)}
	}
	if v == nil {
		return jsonNull, nil
	}
	return json.Marshal(v)
}

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

func needKeys(keys []string, n int) error {
	if len(keys) < n {
		return fmt.Errorf("expected %d keys, got %d", n, len(keys))
	}
	return nil
}

func addressKey(keys []string, i int) (chain.Address, error) {
	if err := needKeys(keys, i+1); err != nil {
		return "", err
	}
	return chain.ParseAddress(keys[i])
}

func currencyKey(keys []string, i int) (uint32, error) {
	if err := needKeys(keys, i+1); err != nil {
		return 0, err
	}
	id, err := chain.ParseCurrencyID(keys[i])
	if err != nil {
		return 0, err
	}
	return id.Uint32()
}

// l1Key reads an optional L1 selector, defaulting to Ethereum.
func l1Key(keys []string, i int) (uint8, error) {
	if len(keys) <= i {
		return 0, nil
	}
	l1, ok := parseL1Key(keys[i])
	if !ok {
		return 0, fmt.Errorf("unknown chain %q", keys[i])
	}
	return l1, nil
}

type accountData struct {
	Free     string `json:"free"`
	Reserved string `json:"reserved"`
	Frozen   string `json:"frozen"`
}

func renderBalance(b chain.Balance) accountData {
	b = b.Normalize()
	return accountData{Free: b.Free.String(), Reserved: b.Reserved.String(), Frozen: b.Frozen.String()}
}

func systemAccount(s *state, _ *Chain, keys []string) (any, error) {
	who, err := addressKey(keys, 0)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"nonce":       u64(s.nonces[who]),
		"consumers":   "0",
		"providers":   "1",
		"sufficients": "0",
		"data":        renderBalance(s.balance(who, nativeCurrency)),
	}, nil
}

func sudoKey(s *state, _ *Chain, _ []string) (any, error) {
	if s.sudo == "" {
		return nil, nil
	}
	return s.sudo.String(), nil
}

func tokensAccounts(s *state, _ *Chain, keys []string) (any, error) {
	who, err := addressKey(keys, 0)
	if err != nil {
		return nil, err
	}
	id, err := currencyKey(keys, 1)
	if err != nil {
		return nil, err
	}
	return renderBalance(s.balance(who, id)), nil
}

func totalIssuance(s *state, _ *Chain, keys []string) (any, error) {
	id, err := currencyKey(keys, 0)
	if err != nil {
		return nil, err
	}
	total := math.ZeroInt()
	for _, m := range s.balances {
		if b, ok := m[id]; ok {
			total = total.Add(b.Free).Add(b.Reserved)
		}
	}
	return total.String(), nil
}

// xykPools renders the reserves in the order the keys name the assets.
func xykPools(s *state, _ *Chain, keys []string) (any, error) {
	first, err := currencyKey(keys, 0)
	if err != nil {
		return nil, err
	}
	second, err := currencyKey(keys, 1)
	if err != nil {
		return nil, err
	}
	key := newPoolKey(first, second)
	p, ok := s.pools[key]
	if !ok {
		return nil, nil
	}
	rf, rs := p.reserves(key, first)
	return []string{rf.String(), rs.String()}, nil
}

func liquidityAssets(s *state, _ *Chain, keys []string) (any, error) {
	first, err := currencyKey(keys, 0)
	if err != nil {
		return nil, err
	}
	second, err := currencyKey(keys, 1)
	if err != nil {
		return nil, err
	}
	p, ok := s.pools[newPoolKey(first, second)]
	if !ok {
		return nil, nil
	}
	return u64(uint64(p.liquidity)), nil
}

func liquidityPools(s *state, _ *Chain, keys []string) (any, error) {
	id, err := currencyKey(keys, 0)
	if err != nil {
		return nil, err
	}
	key, ok := s.liquidityOf[id]
	if !ok {
		return nil, nil
	}
	return []string{u64(uint64(key.a)), u64(uint64(key.b))}, nil
}

func activePair(s *state, _ *Chain, _ []string) (any, error) {
	if !s.boot.scheduled {
		return nil, nil
	}
	return []string{u64(uint64(s.boot.first)), u64(uint64(s.boot.second))}, nil
}

func bootstrapSchedule(s *state, _ *Chain, _ []string) (any, error) {
	b := s.boot
	if !b.scheduled {
		return nil, nil
	}
	return []string{u64(b.start), u64(b.whitelist), u64(b.public)}, nil
}

func provisionsOf(vested bool) storageItem {
	return func(s *state, _ *Chain, keys []string) (any, error) {
		who, err := addressKey(keys, 0)
		if err != nil {
			return nil, err
		}
		token, err := currencyKey(keys, 1)
		if err != nil {
			return nil, err
		}
		book := s.boot.provisions
		if vested {
			book = s.boot.vested
		}
		p, ok := book[who]
		if !ok {
			return "0", nil
		}
		switch token {
		case s.boot.first:
			return p.first.String(), nil
		case s.boot.second:
			return p.second.String(), nil
		}
		return "0", nil
	}
}

func valuations(s *state, _ *Chain, _ []string) (any, error) {
	return []string{s.boot.total.first.String(), s.boot.total.second.String()}, nil
}

func mintedLiquidity(s *state, _ *Chain, _ []string) (any, error) {
	return []string{u64(uint64(s.boot.liquidity)), s.boot.minted.String()}, nil
}

// l2OriginRequestID is the id the next withdrawal will get.
func l2OriginRequestID(s *state, _ *Chain, keys []string) (any, error) {
	l1, err := l1Key(keys, 0)
	if err != nil {
		return nil, err
	}
	return u64(s.l2Origin[l1] + 1), nil
}

func lastProcessed(s *state, _ *Chain, keys []string) (any, error) {
	l1, err := l1Key(keys, 0)
	if err != nil {
		return nil, err
	}
	return u64(s.lastProcessed[l1]), nil
}

// sequencerRightsOf takes (chain, address) keys; a lone address means
// Ethereum.
func sequencerRightsOf(s *state, _ *Chain, keys []string) (any, error) {
	var (
		l1  uint8
		who chain.Address
		err error
	)
	if len(keys) == 1 {
		who, err = addressKey(keys, 0)
	} else {
		if l1, err = l1Key(keys, 0); err == nil {
			who, err = addressKey(keys, 1)
		}
	}
	if err != nil {
		return nil, err
	}
	r, ok := s.rights[rightsKey{l1: l1, addr: who}]
	if !ok {
		return nil, nil
	}
	return map[string]string{"readRights": u64(r.read), "cancelRights": u64(r.cancel)}, nil
}

func l1AssetToID(s *state, _ *Chain, keys []string) (any, error) {
	l1, err := l1Key(keys, 0)
	if err != nil {
		return nil, err
	}
	token, err := addressKey(keys, 1)
	if err != nil {
		return nil, err
	}
	id, ok := s.assets[assetKey{l1: l1, token: token}]
	if !ok {
		return nil, nil
	}
	return u64(uint64(id)), nil
}
