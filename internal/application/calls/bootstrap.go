package calls

import (
	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// ScheduleBootstrapParams describes a bootstrap event.
type ScheduleBootstrapParams struct {
	FirstToken       chain.CurrencyID
	SecondToken      chain.CurrencyID
	StartBlock       uint32
	WhitelistLength  uint32
	PublicLength     uint32
	MaxRatio         [2]math.Int
	PromoteBootstrap bool
}

// ScheduleBootstrap is dispatched with root origin.
func ScheduleBootstrap(p ScheduleBootstrapParams) chain.Call {
	ratio := chain.None("max_first_to_second_ratio")
	if !p.MaxRatio[0].IsNil() && !p.MaxRatio[1].IsNil() {
		ratio = chain.Some("max_first_to_second_ratio", chain.Tuple("",
			chain.U128("", p.MaxRatio[0]),
			chain.U128("", p.MaxRatio[1]),
		))
	}
	return chain.NewCall("bootstrap", "schedule_bootstrap",
		chain.Currency("first_token_id", p.FirstToken),
		chain.Currency("second_token_id", p.SecondToken),
		chain.U32("ido_start", p.StartBlock),
		chain.Some("whitelist_phase_length", chain.U32("", p.WhitelistLength)),
		chain.U32("public_phase_length", p.PublicLength),
		ratio,
		chain.Bool("promote_bootstrap_pool", p.PromoteBootstrap),
	)
}

func Provision(token chain.CurrencyID, amount math.Int) chain.Call {
	return chain.NewCall("bootstrap", "provision",
		chain.Currency("token_id", token),
		chain.U128("amount", amount),
	)
}

func ProvisionVested(token chain.CurrencyID, amount math.Int) chain.Call {
	return chain.NewCall("bootstrap", "provision_vested",
		chain.Currency("token_id", token),
		chain.U128("amount", amount),
	)
}

func ClaimLiquidityTokens() chain.Call {
	return chain.NewCall("bootstrap", "claim_liquidity_tokens")
}

func ClaimAndActivateLiquidityTokens() chain.Call {
	return chain.NewCall("bootstrap", "claim_and_activate_liquidity_tokens")
}

func PreFinalizeBootstrap() chain.Call {
	return chain.NewCall("bootstrap", "pre_finalize")
}

func FinalizeBootstrap() chain.Call {
	return chain.NewCall("bootstrap", "finalize")
}

func CancelBootstrap() chain.Call {
	return chain.NewCall("bootstrap", "cancel_bootstrap")
}

func UpdatePromoteBootstrapPool(promote bool) chain.Call {
	return chain.NewCall("bootstrap", "update_promote_bootstrap_pool",
		chain.Bool("promote_bootstrap_pool", promote),
	)
}
