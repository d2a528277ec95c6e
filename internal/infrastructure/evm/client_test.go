package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode answers eth_chainId, eth_getBalance and eth_call for a single
// token contract holding balances.
func fakeNode(t *testing.T, token common.Address, balances map[common.Address]*big.Int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result any
		switch req.Method {
		case "eth_chainId":
			result = "0x7a69"
		case "eth_getBalance":
			result = "0xde0b6b3a7640000"
		case "eth_call":
			var msg struct {
				To    common.Address `json:"to"`
				Input hexutil.Bytes  `json:"input"`
				Data  hexutil.Bytes  `json:"data"`
			}
			require.NoError(t, json.Unmarshal(req.Params[0], &msg))
			input := msg.Input
			if len(input) == 0 {
				input = msg.Data
			}
			if msg.To != token {
				result = "0x"
				break
			}
			method, err := erc20.MethodById(input[:4])
			require.NoError(t, err)
			switch method.Name {
			case "balanceOf":
				args, err := method.Inputs.Unpack(input[4:])
				require.NoError(t, err)
				v, ok := balances[args[0].(common.Address)]
				if !ok {
					v = new(big.Int)
				}
				out, err := method.Outputs.Pack(v)
				require.NoError(t, err)
				result = hexutil.Encode(out)
			case "decimals":
				out, err := method.Outputs.Pack(uint8(18))
				require.NoError(t, err)
				result = hexutil.Encode(out)
			}
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"error":{"code":-32601,"message":"method not found"}}`, req.ID)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		}))
	}))
}

func TestClient_BalanceOf(t *testing.T) {
	token := common.HexToAddress("0x00000000000000000000000000000000000000e2")
	holder := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	big1e20, _ := new(big.Int).SetString("100000000000000000000", 10)
	srv := fakeNode(t, token, map[common.Address]*big.Int{holder: big1e20})
	defer srv.Close()

	ctx := context.Background()
	c := NewClient(srv.URL)
	require.NoError(t, c.Connect(ctx))
	defer c.Close()

	id, err := c.ChainID()
	require.NoError(t, err)
	assert.Equal(t, int64(31337), id)

	tokenAddr := chain.MustParseAddress(token.Hex())
	got, err := c.BalanceOf(ctx, tokenAddr, chain.MustParseAddress(holder.Hex()))
	require.NoError(t, err)
	assert.Equal(t, "100000000000000000000", got.String())

	got, err = c.BalanceOf(ctx, tokenAddr, chain.MustParseAddress("0x00000000000000000000000000000000000000bb"))
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	decimals, err := c.Decimals(ctx, tokenAddr)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), decimals)

	native, err := c.NativeBalance(ctx, chain.MustParseAddress(holder.Hex()))
	require.NoError(t, err)
	assert.True(t, native.Equal(math.NewInt(1_000_000_000_000_000_000)))
}

func TestClient_NotConnected(t *testing.T) {
	c := NewClient("http://127.0.0.1:0")
	_, err := c.BalanceOf(context.Background(), "0x00000000000000000000000000000000000000e2", "0x00000000000000000000000000000000000000aa")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not connected"))

	_, err = c.ChainID()
	assert.Error(t, err)
}

func TestClient_UnknownContractFailsToUnpack(t *testing.T) {
	token := common.HexToAddress("0x00000000000000000000000000000000000000e2")
	srv := fakeNode(t, token, nil)
	defer srv.Close()

	ctx := context.Background()
	c := NewClient(srv.URL)
	require.NoError(t, c.Connect(ctx))
	defer c.Close()

	_, err := c.BalanceOf(ctx, "0x00000000000000000000000000000000000000ff", "0x00000000000000000000000000000000000000aa")
	assert.Error(t, err)
}
