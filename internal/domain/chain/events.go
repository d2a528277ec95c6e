package chain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"cosmossdk.io/math"
)

// Payload is the typed body of a decoded event. The concrete type is one of
// the structs below, or Unknown for events this harness does not model.
type Payload interface {
	EventName() string
}

type TokensMinted struct {
	Currency CurrencyID
	Who      Address
	Amount   math.Int
}

func (TokensMinted) EventName() string { return "tokens.Minted" }

type TokensCreated struct {
	Currency CurrencyID
	Creator  Address
	Amount   math.Int
}

func (TokensCreated) EventName() string { return "tokens.Created" }

type TokensDeposited struct {
	Currency CurrencyID
	Who      Address
	Amount   math.Int
}

func (TokensDeposited) EventName() string { return "tokens.Deposited" }

type TokensTransfer struct {
	Currency CurrencyID
	From     Address
	To       Address
	Amount   math.Int
}

func (TokensTransfer) EventName() string { return "tokens.Transfer" }

type PoolCreated struct {
	Who          Address
	FirstAsset   CurrencyID
	FirstAmount  math.Int
	SecondAsset  CurrencyID
	SecondAmount math.Int
}

func (PoolCreated) EventName() string { return "xyk.PoolCreated" }

// LiquidityChanged is emitted both on mint and on burn.
type LiquidityChanged struct {
	Burned          bool
	Who             Address
	FirstAsset      CurrencyID
	FirstAmount     math.Int
	SecondAsset     CurrencyID
	SecondAmount    math.Int
	LiquidityAsset  CurrencyID
	LiquidityAmount math.Int
}

func (l LiquidityChanged) EventName() string {
	if l.Burned {
		return "xyk.LiquidityBurned"
	}
	return "xyk.LiquidityMinted"
}

type AssetsSwapped struct {
	Who          Address
	Path         []CurrencyID
	SoldAmount   math.Int
	BoughtAmount math.Int
}

func (AssetsSwapped) EventName() string { return "xyk.AssetsSwapped" }

type ExtrinsicFailedEvent struct {
	Error DispatchError
}

func (ExtrinsicFailedEvent) EventName() string { return "system.ExtrinsicFailed" }

// SudoResult covers sudo.Sudid and sudo.SudoAsDone. Err is nil when the
// inner call dispatched successfully.
type SudoResult struct {
	As  bool
	Err *DispatchError
}

func (s SudoResult) EventName() string {
	if s.As {
		return "sudo.SudoAsDone"
	}
	return "sudo.Sudid"
}

// L1ReadStored reports the L2 block at which a sequencer read is processed.
type L1ReadStored struct {
	Sequencer   Address
	BlockNumber uint64
}

func (L1ReadStored) EventName() string { return "rolldown.L1ReadStored" }

type WithdrawalRequestCreated struct {
	Recipient Address
	Token     Address
	Amount    math.Int
}

func (WithdrawalRequestCreated) EventName() string { return "rolldown.WithdrawalRequestCreated" }

type Provisioned struct {
	Who      Address
	Currency CurrencyID
	Amount   math.Int
}

func (Provisioned) EventName() string { return "bootstrap.Provisioned" }

type Unknown struct {
	Event Event
}

func (u Unknown) EventName() string { return u.Event.String() }

// DispatchError is the reason a call was rejected by the runtime.
type DispatchError struct {
	Kind        string
	ModuleIndex uint8
	ErrorIndex  uint8
	Name        string
}

func (d DispatchError) String() string {
	if d.Kind == "Module" {
		if d.Name != "" {
			return d.Name
		}
		return fmt.Sprintf("Module{index: %d, error: %d}", d.ModuleIndex, d.ErrorIndex)
	}
	if d.Name != "" {
		return d.Kind + "." + d.Name
	}
	return d.Kind
}

// Decode maps an event to its typed payload. Events without a dedicated
// type decode to Unknown.
func Decode(e Event) (Payload, error) {
	d := fieldReader{event: e}
	var p Payload
	switch {
	case e.Is("tokens", "Minted"):
		p = TokensMinted{Currency: d.currency(0), Who: d.address(1), Amount: d.amount(2)}
	case e.Is("tokens", "Issued"), e.Is("tokens", "Created"):
		p = TokensCreated{Currency: d.currency(0), Creator: d.address(1), Amount: d.amount(2)}
	case e.Is("tokens", "Deposited"):
		p = TokensDeposited{Currency: d.currency(0), Who: d.address(1), Amount: d.amount(2)}
	case e.Is("tokens", "Transfer"):
		p = TokensTransfer{Currency: d.currency(0), From: d.address(1), To: d.address(2), Amount: d.amount(3)}
	case e.Is("xyk", "PoolCreated"):
		p = PoolCreated{
			Who:          d.address(0),
			FirstAsset:   d.currency(1),
			FirstAmount:  d.amount(2),
			SecondAsset:  d.currency(3),
			SecondAmount: d.amount(4),
		}
	case e.Is("xyk", "LiquidityMinted"), e.Is("xyk", "LiquidityBurned"):
		p = LiquidityChanged{
			Burned:          e.Is("xyk", "LiquidityBurned"),
			Who:             d.address(0),
			FirstAsset:      d.currency(1),
			FirstAmount:     d.amount(2),
			SecondAsset:     d.currency(3),
			SecondAmount:    d.amount(4),
			LiquidityAsset:  d.currency(5),
			LiquidityAmount: d.amount(6),
		}
	case e.Is("xyk", "AssetsSwapped"):
		p = AssetsSwapped{Who: d.address(0), Path: d.currencies(1), SoldAmount: d.amount(2), BoughtAmount: d.amount(3)}
	case e.Is("system", "ExtrinsicFailed"):
		p = ExtrinsicFailedEvent{Error: d.dispatchError(0)}
	case e.Is("sudo", "Sudid"), e.Is("sudo", "SudoAsDone"):
		p = SudoResult{As: e.Is("sudo", "SudoAsDone"), Err: d.dispatchResult(0)}
	case e.Is("rolldown", "L1ReadStored"):
		p = d.l1ReadStored(0)
	case e.Is("rolldown", "WithdrawalRequestCreated"):
		p = WithdrawalRequestCreated{Recipient: d.address(1), Token: d.address(2), Amount: d.amount(3)}
	case e.Is("bootstrap", "Provisioned"):
		p = Provisioned{Who: d.address(0), Currency: d.currency(1), Amount: d.amount(2)}
	default:
		return Unknown{Event: e}, nil
	}
	if d.err != nil {
		return nil, fmt.Errorf("decode %s: %w", e, d.err)
	}
	return p, nil
}

// fieldReader decodes positional event fields, keeping the first error.
type fieldReader struct {
	event Event
	err   error
}

func (r *fieldReader) raw(i int) json.RawMessage {
	if r.err != nil {
		return nil
	}
	if i >= len(r.event.Data) {
		r.err = fmt.Errorf("field %d missing, event has %d", i, len(r.event.Data))
		return nil
	}
	return r.event.Data[i]
}

func (r *fieldReader) amount(i int) math.Int {
	raw := r.raw(i)
	if raw == nil {
		return math.ZeroInt()
	}
	v, err := ParseAmount(raw)
	if err != nil {
		r.err = fmt.Errorf("field %d: %w", i, err)
		return math.ZeroInt()
	}
	return v
}

func (r *fieldReader) currency(i int) CurrencyID {
	raw := r.raw(i)
	if raw == nil {
		return CurrencyID{}
	}
	var id CurrencyID
	if err := id.UnmarshalJSON(raw); err != nil {
		r.err = fmt.Errorf("field %d: %w", i, err)
	}
	return id
}

func (r *fieldReader) currencies(i int) []CurrencyID {
	raw := r.raw(i)
	if raw == nil {
		return nil
	}
	var ids []CurrencyID
	if err := json.Unmarshal(raw, &ids); err != nil {
		r.err = fmt.Errorf("field %d: %w", i, err)
	}
	return ids
}

func (r *fieldReader) address(i int) Address {
	raw := r.raw(i)
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		r.err = fmt.Errorf("field %d: %w", i, err)
		return ""
	}
	a, err := ParseAddress(s)
	if err != nil {
		r.err = fmt.Errorf("field %d: %w", i, err)
	}
	return a
}

func (r *fieldReader) dispatchError(i int) DispatchError {
	raw := r.raw(i)
	if raw == nil {
		return DispatchError{}
	}
	d, err := ParseDispatchError(raw)
	if err != nil {
		r.err = fmt.Errorf("field %d: %w", i, err)
	}
	return d
}

// dispatchResult decodes a Result<(), DispatchError> rendered as
// {"ok": null} or {"err": ...}.
func (r *fieldReader) dispatchResult(i int) *DispatchError {
	raw := r.raw(i)
	if raw == nil {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		r.err = fmt.Errorf("field %d: %w", i, err)
		return nil
	}
	for k, v := range obj {
		if strings.EqualFold(k, "err") {
			d, err := ParseDispatchError(v)
			if err != nil {
				r.err = fmt.Errorf("field %d: %w", i, err)
				return nil
			}
			return &d
		}
	}
	return nil
}

func (r *fieldReader) l1ReadStored(i int) L1ReadStored {
	raw := r.raw(i)
	if raw == nil {
		return L1ReadStored{}
	}
	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil || len(tuple) < 2 {
		r.err = fmt.Errorf("field %d: expected (sequencer, block, ...) tuple", i)
		return L1ReadStored{}
	}
	sub := fieldReader{event: Event{Data: tuple}}
	out := L1ReadStored{Sequencer: sub.address(0)}
	block := sub.amount(1)
	if sub.err == nil && !block.IsUint64() {
		sub.err = fmt.Errorf("block number %s out of range", block)
	}
	if sub.err != nil {
		r.err = fmt.Errorf("field %d: %w", i, sub.err)
		return L1ReadStored{}
	}
	out.BlockNumber = block.Uint64()
	return out
}

// ParseAmount decodes an integer rendered as a JSON number, a decimal
// string (optionally with thousands separators) or a 0x hex string.
func ParseAmount(raw json.RawMessage) (math.Int, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "null" {
		return math.ZeroInt(), nil
	}
	if strings.HasPrefix(s, "0x") {
		bi, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return math.Int{}, fmt.Errorf("invalid hex amount %q", s)
		}
		return math.NewIntFromBigInt(bi), nil
	}
	v, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

// ParseDispatchError decodes the JSON rendering of a runtime DispatchError.
// Module errors may carry a resolved "name" next to index and error.
func ParseDispatchError(raw json.RawMessage) (DispatchError, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return DispatchError{Kind: capitalize(s)}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return DispatchError{}, fmt.Errorf("invalid dispatch error %s", string(raw))
	}
	for k, v := range obj {
		if !strings.EqualFold(k, "module") {
			d := DispatchError{Kind: capitalize(k)}
			var inner string
			if json.Unmarshal(v, &inner) == nil {
				d.Name = inner
			}
			return d, nil
		}

		var m struct {
			Index json.RawMessage `json:"index"`
			Error json.RawMessage `json:"error"`
			Name  string          `json:"name"`
		}
		if err := json.Unmarshal(v, &m); err != nil {
			return DispatchError{}, fmt.Errorf("invalid module error %s", string(v))
		}
		idx, err := ParseAmount(m.Index)
		if err != nil {
			return DispatchError{}, err
		}
		d := DispatchError{Kind: "Module", ModuleIndex: uint8(idx.Uint64()), Name: m.Name}
		// The error field is either a plain index or the 4-byte encoded
		// error whose first byte is the index.
		es := strings.Trim(string(m.Error), `"`)
		if strings.HasPrefix(es, "0x") && len(es) >= 4 {
			b, err := strconv.ParseUint(es[2:4], 16, 8)
			if err != nil {
				return DispatchError{}, fmt.Errorf("invalid module error index %q", es)
			}
			d.ErrorIndex = uint8(b)
		} else if es != "" {
			e, err := ParseAmount(m.Error)
			if err != nil {
				return DispatchError{}, err
			}
			d.ErrorIndex = uint8(e.Uint64())
		}
		return d, nil
	}
	return DispatchError{}, fmt.Errorf("empty dispatch error")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
