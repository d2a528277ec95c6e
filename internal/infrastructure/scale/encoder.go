// Package scale builds signed extrinsics on top of the gsrpc SCALE codec:
// fixed-width little-endian integers, compact integers, length-prefixed
// byte strings and the composite shapes of chain.Arg.
package scale

import (
	"bytes"
	"fmt"
	"math/big"

	"cosmossdk.io/math"
	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

var maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Encoder appends SCALE encoded values to a buffer. The zero value is
// ready to use.
type Encoder struct {
	buf bytes.Buffer
	enc *gsrpc.Encoder
}

func (e *Encoder) codec() *gsrpc.Encoder {
	if e.enc == nil {
		e.enc = gsrpc.NewEncoder(&e.buf)
	}
	return e.enc
}

// Bytes returns the encoded output.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

func (e *Encoder) Len() int {
	return e.buf.Len()
}

// Raw appends b as is.
func (e *Encoder) Raw(b []byte) {
	_ = e.codec().Write(b)
}

func (e *Encoder) U8(v uint8) {
	_ = e.codec().PushByte(v)
}

func (e *Encoder) Bool(v bool) {
	_ = e.codec().Encode(v)
}

func (e *Encoder) U32(v uint32) {
	_ = e.codec().Encode(v)
}

func (e *Encoder) U64(v uint64) {
	_ = e.codec().Encode(v)
}

// U128 writes v as 16 little-endian bytes.
func (e *Encoder) U128(v math.Int) error {
	if v.IsNil() {
		v = math.ZeroInt()
	}
	bi := v.BigInt()
	if bi.Sign() < 0 || bi.Cmp(maxU128) > 0 {
		return fmt.Errorf("value %s out of u128 range", v)
	}
	var le [16]byte
	for i, b := range bi.FillBytes(make([]byte, 16)) {
		le[15-i] = b
	}
	return e.codec().Write(le[:])
}

// Compact writes v in compact form.
func (e *Encoder) Compact(v uint64) {
	_ = e.CompactBig(new(big.Int).SetUint64(v))
}

// CompactBig writes a non-negative integer of up to 536 bits in compact
// form.
func (e *Encoder) CompactBig(v *big.Int) error {
	if v.Sign() < 0 {
		return fmt.Errorf("compact of negative value %s", v)
	}
	if len(v.Bytes()) > 67 {
		return fmt.Errorf("compact value %s too large", v)
	}
	return e.codec().EncodeUintCompact(*v)
}

// CompactInt writes a math.Int in compact form.
func (e *Encoder) CompactInt(v math.Int) error {
	if v.IsNil() {
		v = math.ZeroInt()
	}
	return e.CompactBig(v.BigInt())
}

// VarBytes writes a compact length prefix followed by b.
func (e *Encoder) VarBytes(b []byte) {
	e.Compact(uint64(len(b)))
	e.Raw(b)
}
