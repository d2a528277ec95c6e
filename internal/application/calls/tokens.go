// Package calls builds the runtime calls the harness submits. Each builder
// returns a chain.Call whose argument names follow the runtime metadata so
// the SCALE encoder and the dev chain can both read them.
package calls

import (
	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// Mint issues amount of an existing currency to who. Sudo only.
func Mint(currency chain.CurrencyID, who chain.Address, amount math.Int) chain.Call {
	return chain.NewCall("tokens", "mint",
		chain.Currency("currency_id", currency),
		chain.Account("who", who),
		chain.U128("amount", amount),
	)
}

// CreateToken registers a new currency and issues amount of it to who.
// Sudo only.
func CreateToken(who chain.Address, amount math.Int) chain.Call {
	return chain.NewCall("tokens", "create",
		chain.Account("who", who),
		chain.U128("amount", amount),
	)
}

// Transfer moves amount of currency to dest.
func Transfer(dest chain.Address, currency chain.CurrencyID, amount math.Int) chain.Call {
	return chain.NewCall("tokens", "transfer",
		chain.Account("dest", dest),
		chain.Currency("currency_id", currency),
		chain.U128("amount", amount),
	)
}

// TransferAll moves the whole free balance of currency to dest.
func TransferAll(dest chain.Address, currency chain.CurrencyID, keepAlive bool) chain.Call {
	return chain.NewCall("tokens", "transfer_all",
		chain.Account("dest", dest),
		chain.Currency("currency_id", currency),
		chain.Bool("keep_alive", keepAlive),
	)
}
