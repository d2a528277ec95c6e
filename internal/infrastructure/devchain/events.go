package devchain

import (
	"encoding/json"
	"fmt"
	"strconv"

	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// newEvent renders fields the way sidecar does: integers as decimal
// strings, accounts as hex strings.
func newEvent(pallet, method string, fields ...any) chain.Event {
	data := make([]json.RawMessage, len(fields))
	for i, f := range fields {
		data[i] = renderField(f)
	}
	return chain.Event{Pallet: pallet, Method: method, Data: data}
}

func renderField(f any) json.RawMessage {
	var v any
	switch t := f.(type) {
	case json.RawMessage:
		return t
	case math.Int:
		v = t.String()
	case uint32:
		v = strconv.FormatUint(uint64(t), 10)
	case uint64:
		v = strconv.FormatUint(t, 10)
	case chain.Address:
		v = t.String()
	case []uint32:
		ids := make([]string, len(t))
		for i, id := range t {
			ids[i] = strconv.FormatUint(uint64(id), 10)
		}
		v = ids
	case []any:
		items := make([]json.RawMessage, len(t))
		for i, it := range t {
			items[i] = renderField(it)
		}
		v = items
	default:
		v = t
	}
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("devchain: render %T: %v", f, err))
	}
	return b
}

func dispatchResult(err *dispatchError) json.RawMessage {
	if err == nil {
		return json.RawMessage(`{"ok":null}`)
	}
	return json.RawMessage(`{"err":` + string(err.JSON()) + `}`)
}

var dispatchInfo = json.RawMessage(`{"weight":{"refTime":"0","proofSize":"0"},"class":"Normal","paysFee":"Yes"}`)

func extrinsicSuccess() chain.Event {
	return newEvent("system", "ExtrinsicSuccess", dispatchInfo)
}

func extrinsicFailed(err *dispatchError) chain.Event {
	return newEvent("system", "ExtrinsicFailed", err.JSON(), dispatchInfo)
}
