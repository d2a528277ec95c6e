package chain

import "encoding/json"

// ExtrinsicState is the outcome of a submitted call as seen in its events.
type ExtrinsicState int

const (
	ExtrinsicUndefined ExtrinsicState = iota
	ExtrinsicSuccess
	ExtrinsicFailed
)

func (s ExtrinsicState) String() string {
	switch s {
	case ExtrinsicSuccess:
		return "ExtrinsicSuccess"
	case ExtrinsicFailed:
		return "ExtrinsicFailed"
	default:
		return "ExtrinsicUndefined"
	}
}

// EventResult is the typed outcome extracted from a finalized extrinsic.
type EventResult struct {
	State   ExtrinsicState
	Event   *Event
	Payload Payload
	Failure *DispatchError
}

// Data returns the raw fields of the matched event, if any.
func (r EventResult) Data() []json.RawMessage {
	if r.Event == nil {
		return nil
	}
	return r.Event.Data
}

// ErrorName returns the failure reason, or "" on success.
func (r EventResult) ErrorName() string {
	if r.Failure == nil {
		return ""
	}
	return r.Failure.String()
}

// ExtractResult looks for pallet.method among the events of a finalized
// extrinsic, optionally requiring the event to mention who. A matching
// event yields ExtrinsicSuccess with its typed payload. Otherwise a
// system.ExtrinsicFailed, or a sudo result carrying an error, yields
// ExtrinsicFailed with the dispatch error. When neither is present the
// state is ExtrinsicUndefined.
func ExtractResult(events []Event, pallet, method string, who ...Address) EventResult {
	for i := range events {
		ev := events[i]
		if !ev.Is(pallet, method) {
			continue
		}
		if len(who) > 0 && who[0] != "" && !ev.Mentions(who[0]) {
			continue
		}
		payload, err := Decode(ev)
		if err != nil {
			payload = Unknown{Event: ev}
		}
		if sr, ok := payload.(SudoResult); ok && sr.Err != nil {
			return EventResult{State: ExtrinsicFailed, Event: &ev, Payload: payload, Failure: sr.Err}
		}
		return EventResult{State: ExtrinsicSuccess, Event: &ev, Payload: payload}
	}

	for i := range events {
		ev := events[i]
		if ev.Is("system", "ExtrinsicFailed") {
			fail := DispatchError{Kind: "Unknown"}
			if p, err := Decode(ev); err == nil {
				fail = p.(ExtrinsicFailedEvent).Error
			}
			return EventResult{State: ExtrinsicFailed, Event: &ev, Payload: ExtrinsicFailedEvent{Error: fail}, Failure: &fail}
		}
	}

	for i := range events {
		ev := events[i]
		if !ev.Is("sudo", "Sudid") && !ev.Is("sudo", "SudoAsDone") {
			continue
		}
		if p, err := Decode(ev); err == nil {
			if sr := p.(SudoResult); sr.Err != nil {
				return EventResult{State: ExtrinsicFailed, Event: &ev, Payload: sr, Failure: sr.Err}
			}
		}
	}

	return EventResult{State: ExtrinsicUndefined}
}

// FilterEvents returns every event matching pallet.method, in order.
func FilterEvents(events []Event, pallet, method string) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Is(pallet, method) {
			out = append(out, ev)
		}
	}
	return out
}
