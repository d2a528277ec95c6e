// Package evm reads the L1 side of the rollup over Ethereum JSON-RPC.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/b-harvest/gasp-e2e/internal/application/ports"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

var erc20 = mustParseABI(erc20ABI)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}

var _ ports.ERC20Reader = (*Client)(nil)

// Client implements ports.ERC20Reader using go-ethereum.
type Client struct {
	rpcURL  string
	client  *ethclient.Client
	chainID *big.Int
}

// NewClient creates a new EVM client.
func NewClient(rpcURL string) *Client {
	return &Client{
		rpcURL: rpcURL,
	}
}

// Connect establishes a connection to the EVM RPC endpoint.
func (c *Client) Connect(ctx context.Context) error {
	client, err := ethclient.DialContext(ctx, c.rpcURL)
	if err != nil {
		return fmt.Errorf("failed to connect to EVM RPC: %w", err)
	}
	c.client = client

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return fmt.Errorf("failed to get chain ID: %w", err)
	}
	c.chainID = chainID

	return nil
}

// Close closes the connection.
func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// ChainID returns the chain ID read at connect time.
func (c *Client) ChainID() (int64, error) {
	if c.chainID == nil {
		return 0, fmt.Errorf("client not connected")
	}
	return c.chainID.Int64(), nil
}

// BalanceOf returns the ERC20 balance of holder at the latest block.
func (c *Client) BalanceOf(ctx context.Context, token, holder chain.Address) (math.Int, error) {
	out, err := c.call(ctx, token, "balanceOf", common.HexToAddress(holder.String()))
	if err != nil {
		return math.Int{}, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return math.Int{}, fmt.Errorf("balanceOf returned %T", out[0])
	}
	return math.NewIntFromBigInt(v), nil
}

// Decimals returns the token's decimals.
func (c *Client) Decimals(ctx context.Context, token chain.Address) (uint8, error) {
	out, err := c.call(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	v, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals returned %T", out[0])
	}
	return v, nil
}

// NativeBalance returns the ether balance of address.
func (c *Client) NativeBalance(ctx context.Context, address chain.Address) (math.Int, error) {
	if c.client == nil {
		return math.Int{}, fmt.Errorf("client not connected")
	}
	balance, err := c.client.BalanceAt(ctx, common.HexToAddress(address.String()), nil)
	if err != nil {
		return math.Int{}, fmt.Errorf("failed to get balance: %w", err)
	}
	return math.NewIntFromBigInt(balance), nil
}

func (c *Client) call(ctx context.Context, token chain.Address, method string, args ...any) ([]any, error) {
	if c.client == nil {
		return nil, fmt.Errorf("client not connected")
	}
	data, err := erc20.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	to := common.HexToAddress(token.String())
	raw, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s on %s: %w", method, token, err)
	}
	out, err := erc20.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return out, nil
}
