// Package chain holds the value types exchanged with a GASP node: accounts,
// currencies, balances, calls and the events a finalized extrinsic emits.
package chain

import (
	"encoding/json"
	"fmt"
	"strings"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// Address is a 20-byte account identifier rendered as lower-case 0x hex.
type Address string

// ParseAddress validates and normalizes a hex account address.
func ParseAddress(s string) (Address, error) {
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("invalid account address %q", s)
	}
	return Address(strings.ToLower(common.HexToAddress(s).Hex())), nil
}

// MustParseAddress is ParseAddress that panics on malformed input.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Bytes returns the raw 20 bytes of the address.
func (a Address) Bytes() []byte {
	return common.HexToAddress(string(a)).Bytes()
}

func (a Address) String() string { return string(a) }

// CurrencyID identifies a token on the chain. The zero value is the native
// currency.
type CurrencyID struct {
	i math.Int
}

// NativeCurrency is the chain's native token (GASP).
var NativeCurrency = NewCurrencyID(0)

// NewCurrencyID creates a currency id from an unsigned integer.
func NewCurrencyID(id uint64) CurrencyID {
	return CurrencyID{i: math.NewIntFromUint64(id)}
}

// ParseCurrencyID parses a decimal currency id. Thousands separators, as
// rendered by human-readable node output, are accepted.
func ParseCurrencyID(s string) (CurrencyID, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	i, ok := math.NewIntFromString(s)
	if !ok || i.IsNegative() {
		return CurrencyID{}, fmt.Errorf("invalid currency id %q", s)
	}
	return CurrencyID{i: i}, nil
}

// Int returns the id as an arbitrary precision integer.
func (c CurrencyID) Int() math.Int {
	if c.i.IsNil() {
		return math.ZeroInt()
	}
	return c.i
}

func (c CurrencyID) String() string {
	return c.Int().String()
}

// Equal reports whether both ids denote the same currency.
func (c CurrencyID) Equal(o CurrencyID) bool {
	return c.Int().Equal(o.Int())
}

// Uint32 narrows the id to the width used by the runtime.
func (c CurrencyID) Uint32() (uint32, error) {
	i := c.Int()
	if !i.IsUint64() || i.Uint64() > uint64(^uint32(0)) {
		return 0, fmt.Errorf("currency id %s does not fit in u32", i)
	}
	return uint32(i.Uint64()), nil
}

// MarshalText implements encoding.TextMarshaler.
func (c CurrencyID) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CurrencyID) UnmarshalText(b []byte) error {
	id, err := ParseCurrencyID(string(b))
	if err != nil {
		return err
	}
	*c = id
	return nil
}

// UnmarshalJSON accepts both quoted and bare numbers.
func (c *CurrencyID) UnmarshalJSON(b []byte) error {
	return c.UnmarshalText([]byte(strings.Trim(string(b), `"`)))
}

// Balance mirrors the runtime's account data record for one currency.
type Balance struct {
	Free     math.Int `json:"free"`
	Reserved math.Int `json:"reserved"`
	Frozen   math.Int `json:"frozen"`
}

// ZeroBalance returns a balance with every field set to zero.
func ZeroBalance() Balance {
	return Balance{Free: math.ZeroInt(), Reserved: math.ZeroInt(), Frozen: math.ZeroInt()}
}

// NewBalance returns a balance holding only a free amount.
func NewBalance(free math.Int) Balance {
	b := ZeroBalance()
	if !free.IsNil() {
		b.Free = free
	}
	return b
}

// Normalize replaces unset fields with zero.
func (b Balance) Normalize() Balance {
	if b.Free.IsNil() {
		b.Free = math.ZeroInt()
	}
	if b.Reserved.IsNil() {
		b.Reserved = math.ZeroInt()
	}
	if b.Frozen.IsNil() {
		b.Frozen = math.ZeroInt()
	}
	return b
}

// Equal compares every field.
func (b Balance) Equal(o Balance) bool {
	b, o = b.Normalize(), o.Normalize()
	return b.Free.Equal(o.Free) && b.Reserved.Equal(o.Reserved) && b.Frozen.Equal(o.Frozen)
}

func (b Balance) String() string {
	b = b.Normalize()
	return fmt.Sprintf("free=%s reserved=%s frozen=%s", b.Free, b.Reserved, b.Frozen)
}

// Phase is the point of block execution an event was emitted in:
// "Initialization", "Finalization" or "ApplyExtrinsic".
type Phase string

const (
	PhaseInitialization Phase = "Initialization"
	PhaseApplyExtrinsic Phase = "ApplyExtrinsic"
	PhaseFinalization   Phase = "Finalization"
)

// Event is a runtime event as reported by the node, with its fields still
// JSON encoded. Decode turns it into a typed payload.
type Event struct {
	Pallet string            `json:"pallet"`
	Method string            `json:"method"`
	Phase  Phase             `json:"phase,omitempty"`
	Data   []json.RawMessage `json:"data"`
}

// Is reports whether the event matches pallet and method, ignoring case.
func (e Event) Is(pallet, method string) bool {
	return strings.EqualFold(e.Pallet, pallet) && strings.EqualFold(e.Method, method)
}

// Mentions reports whether any data field carries the given address.
func (e Event) Mentions(addr Address) bool {
	needle := strings.ToLower(strings.TrimPrefix(string(addr), "0x"))
	for _, d := range e.Data {
		if strings.Contains(strings.ToLower(string(d)), needle) {
			return true
		}
	}
	return false
}

func (e Event) String() string {
	return e.Pallet + "." + e.Method
}

// TxResult is a finalized extrinsic and the events it emitted, in order.
type TxResult struct {
	Hash        string
	BlockHeight uint64
	BlockHash   string
	Events      []Event
}
