package devchain

import (
	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// origin is who a call is dispatched as.
type origin struct {
	root bool
	who  chain.Address
}

func signed(who chain.Address) origin { return origin{who: who} }

var rootOrigin = origin{root: true}

// execution applies calls to a working state within one block.
type execution struct {
	s      *state
	cfg    *config
	height uint64
	events []chain.Event
}

func (x *execution) emit(e chain.Event) {
	x.events = append(x.events, e)
}

// try dispatches call on a copy of the state and keeps the copy only if
// the dispatch succeeds. Events of a failed dispatch are dropped.
func (x *execution) try(o origin, call chain.Call) *dispatchError {
	saved, mark := x.s, len(x.events)
	x.s = saved.clone()
	if err := x.dispatch(o, call); err != nil {
		x.s = saved
		x.events = x.events[:mark]
		return err
	}
	return nil
}

func (x *execution) dispatch(o origin, call chain.Call) *dispatchError {
	switch normalize(call.Pallet) {
	case "tokens":
		return x.tokens(o, call)
	case "xyk":
		return x.xyk(o, call)
	case "sudo":
		return x.sudo(o, call)
	case "utility":
		return x.utility(o, call)
	case "bootstrap":
		return x.bootstrap(o, call)
	case "rolldown":
		return x.rolldown(o, call)
	case "sequencerstaking":
		return x.sequencerStaking(o, call)
	}
	return otherErr("%s is not supported", call)
}

func requireRoot(o origin) *dispatchError {
	if !o.root {
		return errBadOrigin
	}
	return nil
}

func requireSigned(o origin) *dispatchError {
	if o.root || o.who == "" {
		return errBadOrigin
	}
	return nil
}

func (x *execution) tokens(o origin, call chain.Call) *dispatchError {
	a := newArgs(call)
	switch normalize(call.Name) {
	case "mint":
		id, who, amount := a.currency("currency_id"), a.account("who"), a.amount("amount")
		if a.err != nil {
			return a.err
		}
		if err := requireRoot(o); err != nil {
			return err
		}
		if !x.s.currencyExists(id) {
			return moduleErr("tokens", "TokenIdNotExists")
		}
		x.s.credit(who, id, amount)
		x.emit(newEvent("tokens", "Minted", id, who, amount))

	case "create":
		who, amount := a.account("who"), a.amount("amount")
		if a.err != nil {
			return a.err
		}
		if err := requireRoot(o); err != nil {
			return err
		}
		id := x.s.newCurrency()
		x.s.credit(who, id, amount)
		x.emit(newEvent("tokens", "Created", id, who, amount))

	case "transfer", "transferkeepalive":
		dest, id, amount := a.account("dest"), a.currency("currency_id"), a.amount("amount")
		if a.err != nil {
			return a.err
		}
		if err := requireSigned(o); err != nil {
			return err
		}
		if err := x.s.transfer(o.who, dest, id, amount); err != nil {
			return err
		}
		x.emit(newEvent("tokens", "Transfer", id, o.who, dest, amount))

	case "transferall":
		dest, id := a.account("dest"), a.currency("currency_id")
		if a.err != nil {
			return a.err
		}
		if err := requireSigned(o); err != nil {
			return err
		}
		amount := x.s.free(o.who, id)
		if err := x.s.transfer(o.who, dest, id, amount); err != nil {
			return err
		}
		x.emit(newEvent("tokens", "Transfer", id, o.who, dest, amount))

	default:
		return otherErr("%s is not supported", call)
	}
	return nil
}

func (x *execution) sudo(o origin, call chain.Call) *dispatchError {
	if err := requireSigned(o); err != nil {
		return err
	}
	if x.s.sudo == "" || o.who != x.s.sudo {
		return moduleErr("sudo", "RequireSudo")
	}

	a := newArgs(call)
	switch normalize(call.Name) {
	case "sudo", "sudouncheckedweight":
		inner := a.call("call")
		if a.err != nil {
			return a.err
		}
		err := x.try(rootOrigin, inner)
		x.emit(newEvent("sudo", "Sudid", dispatchResult(err)))

	case "sudoas":
		who, inner := a.account("who"), a.call("call")
		if a.err != nil {
			return a.err
		}
		err := x.try(signed(who), inner)
		x.emit(newEvent("sudo", "SudoAsDone", dispatchResult(err)))

	default:
		return otherErr("%s is not supported", call)
	}
	return nil
}

func (x *execution) utility(o origin, call chain.Call) *dispatchError {
	a := newArgs(call)
	items := a.calls("calls")
	if a.err != nil {
		return a.err
	}

	switch normalize(call.Name) {
	case "batchall":
		for _, inner := range items {
			if err := x.dispatch(o, inner); err != nil {
				return err
			}
			x.emit(newEvent("utility", "ItemCompleted"))
		}
		x.emit(newEvent("utility", "BatchCompleted"))

	case "batch":
		for i, inner := range items {
			if err := x.try(o, inner); err != nil {
				x.emit(newEvent("utility", "BatchInterrupted", uint32(i), err.JSON()))
				return nil
			}
			x.emit(newEvent("utility", "ItemCompleted"))
		}
		x.emit(newEvent("utility", "BatchCompleted"))

	default:
		return otherErr("%s is not supported", call)
	}
	return nil
}

// args reads named call arguments, keeping the first error.
type args struct {
	of  chain.Call
	err *dispatchError
}

func newArgs(call chain.Call) *args {
	return &args{of: call}
}

func (a *args) get(name string) (chain.Arg, bool) {
	if a.err != nil {
		return chain.Arg{}, false
	}
	arg, ok := a.of.Arg(name)
	if !ok {
		a.err = otherErr("%s: missing argument %s", a.of, name)
	}
	return arg, ok
}

func (a *args) amount(name string) math.Int {
	arg, ok := a.get(name)
	if !ok {
		return math.ZeroInt()
	}
	return uintOf(a, arg)
}

func uintOf(a *args, arg chain.Arg) math.Int {
	if arg.Uint.IsNil() || arg.Uint.IsNegative() {
		a.err = otherErr("%s: argument %s is not an unsigned integer", a.of, arg.Name)
		return math.ZeroInt()
	}
	return arg.Uint
}

func (a *args) u64(name string) uint64 {
	v := a.amount(name)
	if a.err == nil && !v.IsUint64() {
		a.err = otherErr("%s: argument %s out of range", a.of, name)
		return 0
	}
	if a.err != nil {
		return 0
	}
	return v.Uint64()
}

func (a *args) currency(name string) uint32 {
	arg, ok := a.get(name)
	if !ok {
		return 0
	}
	return currencyOf(a, arg)
}

func currencyOf(a *args, arg chain.Arg) uint32 {
	v := uintOf(a, arg)
	if a.err != nil {
		return 0
	}
	if !v.IsUint64() || v.Uint64() > uint64(^uint32(0)) {
		a.err = otherErr("%s: currency %s out of range", a.of, v)
		return 0
	}
	return uint32(v.Uint64())
}

func (a *args) account(name string) chain.Address {
	arg, ok := a.get(name)
	if !ok {
		return ""
	}
	if arg.Kind != chain.KindAccount {
		a.err = otherErr("%s: argument %s is not an account", a.of, name)
		return ""
	}
	return arg.Account
}

func (a *args) boolean(name string) bool {
	arg, ok := a.get(name)
	return ok && arg.Bool
}

func (a *args) call(name string) chain.Call {
	arg, ok := a.get(name)
	if !ok {
		return chain.Call{}
	}
	if arg.Kind != chain.KindCall || arg.Call == nil {
		a.err = otherErr("%s: argument %s is not a call", a.of, name)
		return chain.Call{}
	}
	return *arg.Call
}

func (a *args) calls(name string) []chain.Call {
	arg, ok := a.get(name)
	if !ok {
		return nil
	}
	out := make([]chain.Call, 0, len(arg.Items))
	for _, it := range arg.Items {
		if it.Kind != chain.KindCall || it.Call == nil {
			a.err = otherErr("%s: %s holds a non-call item", a.of, name)
			return nil
		}
		out = append(out, *it.Call)
	}
	return out
}

// enum reads a unit enum such as the L1 selector.
func (a *args) enum(name string) uint8 {
	arg, ok := a.get(name)
	if !ok {
		return 0
	}
	return arg.Variant
}
