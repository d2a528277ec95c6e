package chain

import (
	"fmt"
	"strings"

	"cosmossdk.io/math"
)

// ArgKind is the wire shape of a call argument.
type ArgKind int

const (
	KindU8 ArgKind = iota
	KindU32
	KindU64
	KindU128
	KindBool
	KindAccount
	KindBytes
	KindH256
	KindCall
	KindVec
	KindTuple
	KindOption
	KindEnum
)

func (k ArgKind) String() string {
	switch k {
	case KindU8:
		return "u8"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindU128:
		return "u128"
	case KindBool:
		return "bool"
	case KindAccount:
		return "account"
	case KindBytes:
		return "bytes"
	case KindH256:
		return "h256"
	case KindCall:
		return "call"
	case KindVec:
		return "vec"
	case KindTuple:
		return "tuple"
	case KindOption:
		return "option"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Arg is a named, typed call argument. Composite kinds keep their members
// in Items.
type Arg struct {
	Name    string
	Kind    ArgKind
	Uint    math.Int
	Bool    bool
	Account Address
	Bytes   []byte
	Call    *Call
	Items   []Arg
	Variant uint8
}

func U8(name string, v uint8) Arg {
	return Arg{Name: name, Kind: KindU8, Uint: math.NewInt(int64(v))}
}

func U32(name string, v uint32) Arg {
	return Arg{Name: name, Kind: KindU32, Uint: math.NewIntFromUint64(uint64(v))}
}

func U64(name string, v uint64) Arg {
	return Arg{Name: name, Kind: KindU64, Uint: math.NewIntFromUint64(v)}
}

func U128(name string, v math.Int) Arg {
	return Arg{Name: name, Kind: KindU128, Uint: v}
}

func Bool(name string, v bool) Arg {
	return Arg{Name: name, Kind: KindBool, Bool: v}
}

func Account(name string, a Address) Arg {
	return Arg{Name: name, Kind: KindAccount, Account: a}
}

func Bytes(name string, b []byte) Arg {
	return Arg{Name: name, Kind: KindBytes, Bytes: b}
}

// H256 is a fixed 32-byte hash; shorter input is right padded with zeros.
func H256(name string, b []byte) Arg {
	h := make([]byte, 32)
	copy(h, b)
	return Arg{Name: name, Kind: KindH256, Bytes: h}
}

func Currency(name string, id CurrencyID) Arg {
	return Arg{Name: name, Kind: KindU32, Uint: id.Int()}
}

func Nested(name string, c Call) Arg {
	return Arg{Name: name, Kind: KindCall, Call: &c}
}

func Vec(name string, items ...Arg) Arg {
	return Arg{Name: name, Kind: KindVec, Items: items}
}

func Tuple(name string, items ...Arg) Arg {
	return Arg{Name: name, Kind: KindTuple, Items: items}
}

func Some(name string, v Arg) Arg {
	return Arg{Name: name, Kind: KindOption, Items: []Arg{v}}
}

func None(name string) Arg {
	return Arg{Name: name, Kind: KindOption}
}

// Enum is a variant index followed by its fields.
func Enum(name string, variant uint8, fields ...Arg) Arg {
	return Arg{Name: name, Kind: KindEnum, Variant: variant, Items: fields}
}

// Field looks up a member of a composite argument by name.
func (a Arg) Field(name string) (Arg, bool) {
	for _, it := range a.Items {
		if it.Name == name {
			return it, true
		}
	}
	return Arg{}, false
}

// Call is a runtime dispatchable addressed by pallet and call name, in the
// snake_case form used by runtime metadata.
type Call struct {
	Pallet string
	Name   string
	Args   []Arg
}

// NewCall builds a call.
func NewCall(pallet, name string, args ...Arg) Call {
	return Call{Pallet: pallet, Name: name, Args: args}
}

// Method returns "pallet.name".
func (c Call) Method() string {
	return c.Pallet + "." + c.Name
}

// Is reports whether the call targets pallet.name, ignoring case.
func (c Call) Is(pallet, name string) bool {
	return strings.EqualFold(c.Pallet, pallet) && strings.EqualFold(c.Name, name)
}

// Arg looks up an argument by name.
func (c Call) Arg(name string) (Arg, bool) {
	for _, a := range c.Args {
		if a.Name == name {
			return a, true
		}
	}
	return Arg{}, false
}

func (c Call) String() string {
	return c.Method()
}
