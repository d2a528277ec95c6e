package calls

import "github.com/b-harvest/gasp-e2e/internal/domain/chain"

// Sudo dispatches call with root origin.
func Sudo(call chain.Call) chain.Call {
	return chain.NewCall("sudo", "sudo", chain.Nested("call", call))
}

// SudoAs dispatches call signed as who.
func SudoAs(who chain.Address, call chain.Call) chain.Call {
	return chain.NewCall("sudo", "sudo_as", chain.Account("who", who), chain.Nested("call", call))
}

// BatchAll dispatches calls atomically: one failure reverts them all.
func BatchAll(calls ...chain.Call) chain.Call {
	items := make([]chain.Arg, len(calls))
	for i, c := range calls {
		items[i] = chain.Nested("", c)
	}
	return chain.NewCall("utility", "batch_all", chain.Vec("calls", items...))
}
