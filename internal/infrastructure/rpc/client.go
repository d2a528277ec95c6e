package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"cosmossdk.io/math"
	"golang.org/x/sync/errgroup"

	"github.com/b-harvest/gasp-e2e/internal/application/ports"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/scale"
)

// maxParallelQueries bounds concurrent storage requests of one balance
// query.
const maxParallelQueries = 8

// Client implements ports.Chain against Substrate API Sidecar.
type Client struct {
	http               *SidecarClient
	finalizationBlocks int
	nonces             *nonceTracker

	mu   sync.Mutex
	meta *Metadata
	info *scale.ChainInfo
}

// Ensure Client implements ports.Chain.
var _ ports.Chain = (*Client)(nil)

// NewClient creates a chain client on top of a sidecar transport.
func NewClient(http *SidecarClient) *Client {
	return &Client{
		http:               http,
		finalizationBlocks: DefaultFinalizationBlocks,
		nonces:             newNonceTracker(),
	}
}

// WithFinalizationBlocks sets how many finalized blocks Submit searches
// for the extrinsic before giving up.
func (c *Client) WithFinalizationBlocks(n int) *Client {
	if n > 0 {
		c.finalizationBlocks = n
	}
	return c
}

// Connect checks that the sidecar answers and loads the runtime metadata.
func (c *Client) Connect(ctx context.Context) error {
	if _, err := c.BlockHeight(ctx); err != nil {
		return err
	}
	_, err := c.metadata(ctx)
	return err
}

// Close implements ports.Chain.
func (c *Client) Close() error {
	c.http.client.CloseIdleConnections()
	return nil
}

type headerResponse struct {
	Number flexUint `json:"number"`
	Hash   string   `json:"hash"`
}

// BlockHeight returns the latest finalized block number.
func (c *Client) BlockHeight(ctx context.Context) (uint64, error) {
	var h headerResponse
	if err := c.http.getJSON(ctx, "block_height", "/blocks/head/header", &h); err != nil {
		return 0, err
	}
	return uint64(h.Number), nil
}

// NextBlock waits for a finalized block above the head current at the call.
func (c *Client) NextBlock(ctx context.Context) (uint64, error) {
	last, err := c.BlockHeight(ctx)
	if err != nil {
		return 0, err
	}
	return c.waitForHeight(ctx, last+1)
}

// waitForHeight polls the finalized head until it reaches height.
func (c *Client) waitForHeight(ctx context.Context, height uint64) (uint64, error) {
	ticker := time.NewTicker(c.http.pollInterval)
	defer ticker.Stop()

	for {
		current, err := c.BlockHeight(ctx)
		if err == nil && current >= height {
			return current, nil
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}

// QueryStorage implements ports.StorageReader.
func (c *Client) QueryStorage(ctx context.Context, pallet, item string, keys ...string) (json.RawMessage, error) {
	path := fmt.Sprintf("/pallets/%s/storage/%s", url.PathEscape(pallet), url.PathEscape(item))
	if len(keys) > 0 {
		q := url.Values{}
		for _, k := range keys {
			q.Add("keys[]", k)
		}
		path += "?" + q.Encode()
	}

	var resp struct {
		Value json.RawMessage `json:"value"`
	}
	if err := c.http.getJSON(ctx, "query_storage", path, &resp); err != nil {
		return nil, err
	}
	if len(resp.Value) == 0 {
		return json.RawMessage("null"), nil
	}
	return resp.Value, nil
}

// FreeBalances reads tokens.accounts for every currency. Requests run in
// parallel; results keep the order of currencies.
func (c *Client) FreeBalances(ctx context.Context, account chain.Address, currencies []chain.CurrencyID) ([]chain.Balance, error) {
	out := make([]chain.Balance, len(currencies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelQueries)
	for i, id := range currencies {
		i, id := i, id
		g.Go(func() error {
			raw, err := c.QueryStorage(gctx, "tokens", "accounts", account.String(), id.String())
			if err != nil {
				return err
			}
			b, err := parseAccountData(raw)
			if err != nil {
				return fmt.Errorf("balance of %s in currency %s: %w", account, id, err)
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseAccountData(raw json.RawMessage) (chain.Balance, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return chain.ZeroBalance(), nil
	}
	var data struct {
		Free     json.RawMessage `json:"free"`
		Reserved json.RawMessage `json:"reserved"`
		Frozen   json.RawMessage `json:"frozen"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return chain.Balance{}, err
	}

	var b chain.Balance
	var err error
	for _, f := range []struct {
		dst *math.Int
		src json.RawMessage
	}{{&b.Free, data.Free}, {&b.Reserved, data.Reserved}, {&b.Frozen, data.Frozen}} {
		if *f.dst, err = chain.ParseAmount(f.src); err != nil {
			return chain.Balance{}, err
		}
	}
	return b, nil
}

// AccountNonce reads the nonce from system.account.
func (c *Client) AccountNonce(ctx context.Context, account chain.Address) (uint64, error) {
	raw, err := c.QueryStorage(ctx, "system", "account", account.String())
	if err != nil {
		return 0, err
	}
	if string(raw) == "null" {
		return 0, nil
	}
	var info struct {
		Nonce flexUint `json:"nonce"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return 0, &RPCError{Operation: "account_nonce", Message: err.Error()}
	}
	return uint64(info.Nonce), nil
}

type sidecarEvent struct {
	Method struct {
		Pallet string `json:"pallet"`
		Method string `json:"method"`
	} `json:"method"`
	Data []json.RawMessage `json:"data"`
}

type blockResponse struct {
	Number       flexUint `json:"number"`
	Hash         string   `json:"hash"`
	OnInitialize struct {
		Events []sidecarEvent `json:"events"`
	} `json:"onInitialize"`
	Extrinsics []struct {
		Hash   string         `json:"hash"`
		Events []sidecarEvent `json:"events"`
	} `json:"extrinsics"`
	OnFinalize struct {
		Events []sidecarEvent `json:"events"`
	} `json:"onFinalize"`
}

func (c *Client) block(ctx context.Context, height uint64) (*blockResponse, error) {
	var b blockResponse
	path := "/blocks/" + strconv.FormatUint(height, 10)
	if err := c.http.getJSON(ctx, "get_block", path, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// EventsAt implements ports.EventReader.
func (c *Client) EventsAt(ctx context.Context, height uint64) ([]chain.Event, error) {
	b, err := c.block(ctx, height)
	if err != nil {
		return nil, err
	}
	meta, err := c.metadata(ctx)
	if err != nil {
		return nil, err
	}

	events := convertEvents(meta, b.OnInitialize.Events, chain.PhaseInitialization)
	for _, x := range b.Extrinsics {
		events = append(events, convertEvents(meta, x.Events, chain.PhaseApplyExtrinsic)...)
	}
	return append(events, convertEvents(meta, b.OnFinalize.Events, chain.PhaseFinalization)...), nil
}

func convertEvents(meta *Metadata, in []sidecarEvent, phase chain.Phase) []chain.Event {
	out := make([]chain.Event, 0, len(in))
	for _, e := range in {
		data := make([]json.RawMessage, len(e.Data))
		for i, d := range e.Data {
			data[i] = meta.annotate(d)
		}
		out = append(out, chain.Event{
			Pallet: e.Method.Pallet,
			Method: e.Method.Method,
			Phase:  phase,
			Data:   data,
		})
	}
	return out
}

// Submit signs and submits call, then scans finalized blocks for the
// extrinsic and returns its events.
func (c *Client) Submit(ctx context.Context, signer ports.Signer, call chain.Call) (*chain.TxResult, error) {
	meta, err := c.metadata(ctx)
	if err != nil {
		return nil, err
	}
	info, err := c.chainInfo(ctx, meta)
	if err != nil {
		return nil, err
	}
	encoded, err := scale.EncodeCall(meta, call)
	if err != nil {
		return nil, err
	}

	addr := signer.Address()
	nonce, err := c.nonces.Next(ctx, addr, c.AccountNonce)
	if err != nil {
		return nil, err
	}
	ext, err := scale.BuildSigned(signer, encoded, info, scale.SignOptions{Nonce: nonce, Tip: math.ZeroInt()})
	if err != nil {
		c.nonces.Reset(addr)
		return nil, err
	}

	start, err := c.BlockHeight(ctx)
	if err != nil {
		c.nonces.Reset(addr)
		return nil, err
	}

	var resp struct {
		Hash string `json:"hash"`
	}
	if err := c.http.postJSON(ctx, "submit", "/transaction", map[string]string{"tx": scale.Hex(ext)}, &resp); err != nil {
		c.nonces.Reset(addr)
		return nil, err
	}
	hash := strings.ToLower(resp.Hash)
	if hash == "" {
		hash = scale.ExtrinsicHash(ext)
	}

	return c.awaitInclusion(ctx, meta, call, hash, start)
}

// awaitInclusion looks for hash in every finalized block after start.
func (c *Client) awaitInclusion(ctx context.Context, meta *Metadata, call chain.Call, hash string, start uint64) (*chain.TxResult, error) {
	for h := start + 1; h <= start+uint64(c.finalizationBlocks); h++ {
		if _, err := c.waitForHeight(ctx, h); err != nil {
			return nil, err
		}
		b, err := c.block(ctx, h)
		if err != nil {
			return nil, err
		}
		for _, x := range b.Extrinsics {
			if !strings.EqualFold(x.Hash, hash) {
				continue
			}
			c.http.logger.Debug("extrinsic finalized", "call", call.String(), "hash", hash, "block", h)
			return &chain.TxResult{
				Hash:        hash,
				BlockHeight: uint64(b.Number),
				BlockHash:   b.Hash,
				Events:      convertEvents(meta, x.Events, chain.PhaseApplyExtrinsic),
			}, nil
		}
	}
	return nil, &TimeoutError{Operation: "submit " + call.String(), Blocks: c.finalizationBlocks}
}

func (c *Client) metadata(ctx context.Context) (*Metadata, error) {
	c.mu.Lock()
	meta := c.meta
	c.mu.Unlock()
	if meta != nil {
		return meta, nil
	}

	var raw json.RawMessage
	if err := c.http.getJSON(ctx, "runtime_metadata", "/runtime/metadata", &raw); err != nil {
		return nil, err
	}
	meta, err := ParseMetadata(raw)
	if err != nil {
		return nil, &RPCError{Operation: "runtime_metadata", Message: err.Error()}
	}

	c.mu.Lock()
	c.meta = meta
	c.mu.Unlock()
	return meta, nil
}

func (c *Client) chainInfo(ctx context.Context, meta *Metadata) (scale.ChainInfo, error) {
	c.mu.Lock()
	info := c.info
	c.mu.Unlock()
	if info != nil {
		return *info, nil
	}

	var m struct {
		GenesisHash string   `json:"genesisHash"`
		SpecVersion flexUint `json:"specVersion"`
		TxVersion   flexUint `json:"txVersion"`
	}
	if err := c.http.getJSON(ctx, "transaction_material", "/transaction/material?noMeta=true", &m); err != nil {
		return scale.ChainInfo{}, err
	}
	genesis, err := hex.DecodeString(strings.TrimPrefix(m.GenesisHash, "0x"))
	if err != nil || len(genesis) != 32 {
		return scale.ChainInfo{}, &RPCError{Operation: "transaction_material", Message: "invalid genesis hash " + m.GenesisHash}
	}

	info = &scale.ChainInfo{
		SpecVersion: uint32(m.SpecVersion),
		TxVersion:   uint32(m.TxVersion),
		Extensions:  meta.Extensions(),
	}
	copy(info.GenesisHash[:], genesis)

	c.mu.Lock()
	c.info = info
	c.mu.Unlock()
	return *info, nil
}
