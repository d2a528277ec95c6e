package scale

import (
	"fmt"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// CallInfo is what the encoder needs to know about a dispatchable.
type CallInfo struct {
	PalletIndex uint8
	CallIndex   uint8
	// Compact marks the fields declared #[pallet::compact], by position.
	Compact []bool
}

// CallResolver looks up dispatchables in the runtime metadata.
type CallResolver interface {
	ResolveCall(pallet, call string) (CallInfo, error)
}

// EncodeCall encodes call, resolving it and every nested call through r.
func EncodeCall(r CallResolver, call chain.Call) ([]byte, error) {
	var e Encoder
	if err := encodeCall(&e, r, call); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

func encodeCall(e *Encoder, r CallResolver, call chain.Call) error {
	info, err := r.ResolveCall(call.Pallet, call.Name)
	if err != nil {
		return err
	}
	if len(info.Compact) > 0 && len(info.Compact) != len(call.Args) {
		return fmt.Errorf("%s takes %d arguments, got %d", call, len(info.Compact), len(call.Args))
	}
	e.U8(info.PalletIndex)
	e.U8(info.CallIndex)
	for i, arg := range call.Args {
		compact := i < len(info.Compact) && info.Compact[i]
		if err := encodeArg(e, r, arg, compact); err != nil {
			return fmt.Errorf("%s argument %q: %w", call, arg.Name, err)
		}
	}
	return nil
}

func encodeArg(e *Encoder, r CallResolver, a chain.Arg, compact bool) error {
	if compact {
		switch a.Kind {
		case chain.KindU8, chain.KindU32, chain.KindU64, chain.KindU128:
			return e.CompactInt(a.Uint)
		}
	}

	switch a.Kind {
	case chain.KindU8, chain.KindU32, chain.KindU64:
		return encodeFixed(e, a)
	case chain.KindU128:
		return e.U128(a.Uint)
	case chain.KindBool:
		e.Bool(a.Bool)
	case chain.KindAccount:
		b := a.Account.Bytes()
		if len(b) != 20 {
			return fmt.Errorf("account must be 20 bytes, got %d", len(b))
		}
		e.Raw(b)
	case chain.KindBytes:
		e.VarBytes(a.Bytes)
	case chain.KindH256:
		if len(a.Bytes) != 32 {
			return fmt.Errorf("h256 must be 32 bytes, got %d", len(a.Bytes))
		}
		e.Raw(a.Bytes)
	case chain.KindCall:
		if a.Call == nil {
			return fmt.Errorf("nested call is nil")
		}
		return encodeCall(e, r, *a.Call)
	case chain.KindVec:
		e.Compact(uint64(len(a.Items)))
		return encodeItems(e, r, a.Items)
	case chain.KindTuple:
		return encodeItems(e, r, a.Items)
	case chain.KindOption:
		if len(a.Items) == 0 {
			e.U8(0)
			return nil
		}
		e.U8(1)
		return encodeArg(e, r, a.Items[0], false)
	case chain.KindEnum:
		e.U8(a.Variant)
		return encodeItems(e, r, a.Items)
	default:
		return fmt.Errorf("unsupported argument kind %s", a.Kind)
	}
	return nil
}

func encodeItems(e *Encoder, r CallResolver, items []chain.Arg) error {
	for i, it := range items {
		if err := encodeArg(e, r, it, false); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func encodeFixed(e *Encoder, a chain.Arg) error {
	if a.Uint.IsNil() || a.Uint.IsNegative() || !a.Uint.IsUint64() {
		return fmt.Errorf("%s value out of range", a.Kind)
	}
	v := a.Uint.Uint64()
	switch a.Kind {
	case chain.KindU8:
		if v > 0xff {
			return fmt.Errorf("u8 value %d out of range", v)
		}
		e.U8(uint8(v))
	case chain.KindU32:
		if v > 0xffffffff {
			return fmt.Errorf("u32 value %d out of range", v)
		}
		e.U32(uint32(v))
	default:
		e.U64(v)
	}
	return nil
}
