package devchain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/b-harvest/gasp-e2e/internal/infrastructure/scale"
)

type palletInfo struct {
	name   string
	index  uint8
	calls  []string
	errors []string
}

// pallets is the runtime layout of the dev chain. Call and error indices
// are positions in the lists.
var pallets = []palletInfo{
	{name: "system", index: 0},
	{name: "utility", index: 4, calls: []string{"batch", "as_derivative", "batch_all"}},
	{name: "sudo", index: 6, calls: []string{"sudo", "sudo_unchecked_weight", "set_key", "sudo_as"}, errors: []string{"RequireSudo"}},
	{name: "tokens", index: 10,
		calls:  []string{"transfer", "transfer_all", "transfer_keep_alive", "force_transfer", "set_balance", "create", "mint"},
		errors: []string{"BalanceTooLow", "AmountIntoBalanceFailed", "LiquidityRestrictions", "MaxLocksExceeded", "KeepAlive", "ExistentialDeposit", "DeadAccount", "TokenIdNotExists", "TooManyReserves"},
	},
	{name: "xyk", index: 13,
		calls: []string{"create_pool", "sell_asset", "multiswap_sell_asset", "buy_asset", "multiswap_buy_asset", "mint_liquidity", "mint_liquidity_using_vesting_native_tokens", "burn_liquidity"},
		errors: []string{"PoolAlreadyExists", "NotEnoughAssets", "NoSuchPool", "NoSuchLiquidityAsset", "NotEnoughReserve", "ZeroAmount",
			"InsufficientInputAmount", "InsufficientOutputAmount", "SameAsset", "AssetAlreadyExists", "AssetDoesNotExists", "DivisionByZero",
			"UnexpectedFailure", "NotPairedWithNativeAsset", "SecondAssetAmountExceededExpectations", "MathOverflow", "LiquidityTokenCreationFailed",
			"NotEnoughRewardsEarned", "NotAPromotedPool", "PastTimeCalculation", "PoolAlreadyPromoted", "SoldAmountTooLow", "FunctionNotAvailableForThisToken",
			"DisallowedPool", "LiquidityCheckpointMathError", "CalculateRewardsMathError", "CalculateCumulativeWorkMaxRatioMathError",
			"CalculateRewardsAllMathError", "NoRights", "MultiSwapCantHaveSameTokenConsequetively", "TradingBlockedByMaintenanceMode", "PoolIsEmpty"},
	},
	{name: "bootstrap", index: 14,
		calls: []string{"provision", "whitelist_accounts", "schedule_bootstrap", "cancel_bootstrap", "update_promote_bootstrap_pool",
			"claim_liquidity_tokens", "claim_and_activate_liquidity_tokens", "pre_finalize", "finalize", "claim_liquidity_tokens_for_account", "provision_vested"},
		errors: []string{"UnsupportedTokenId", "NotEnoughAssets", "NotEnoughVestedAssets", "MathOverflow", "Unauthorized", "BootstrapStartInThePast",
			"PhaseLengthCannotBeZero", "AlreadyStarted", "ValuationRatio", "FirstProvisionInSecondTokenId", "PoolAlreadyExists",
			"NotFinishedYet", "NothingToClaim", "WrongRatio", "BootstrapNotReadyToBeFinished", "SameToken", "TokenIdDoesNotExists",
			"TokensActivationFailed", "BootstrapNotSchduled", "BootstrapFinished", "TooManyProvisions", "NotPreFinalized", "BootstrapMustBePreFinalized"},
	},
	{name: "rolldown", index: 20,
		calls: []string{"update_l2_from_l1", "force_update_l2_from_l1", "cancel_requests_from_l1", "withdraw", "force_cancel_requests_from_l1"},
		errors: []string{"OperationFailed", "ReadRightsExhausted", "CancelRightsExhausted", "EmptyUpdate", "AddressDeserializationFailure",
			"RequestDoesNotExist", "NotEnoughAssets", "BalanceOverflow", "L1AssetCreationFailed", "MathOverflow", "TooManyRequests",
			"InvalidUpdate", "L1AssetNotFound", "WrongRequestId", "OnlySelectedSequencerisAllowedToUpdate", "SequencerLastUpdateStillInDisputePeriod",
			"SequencerAwaitingCancelResolution", "MultipleUpdatesInSingleBlock", "BlockedByMaintenanceMode", "UnsupportedAsset"},
	},
	{name: "sequencer_staking", index: 21,
		calls:  []string{"provide_sequencer_stake", "leave_active_sequencers", "unstake", "set_sequencer_configuration"},
		errors: []string{"OperationFailed", "MathOverflow", "SequencerIsNotInActiveSet", "SequencerAlreadyInActiveSet", "CantUnstakeWhileInActiveSet", "NotEnoughSequencerStake"},
	},
}

type registry struct {
	byName map[string]*palletInfo
}

var layout = newRegistry()

func newRegistry() *registry {
	r := &registry{byName: make(map[string]*palletInfo, len(pallets))}
	for i := range pallets {
		r.byName[normalize(pallets[i].name)] = &pallets[i]
	}
	return r
}

func normalize(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}

// ResolveCall implements scale.CallResolver so that submitted calls are
// encoded and signed exactly as for a live node.
func (r *registry) ResolveCall(pallet, call string) (scale.CallInfo, error) {
	p, ok := r.byName[normalize(pallet)]
	if !ok {
		return scale.CallInfo{}, fmt.Errorf("unknown pallet %q", pallet)
	}
	for i, c := range p.calls {
		if normalize(c) == normalize(call) {
			return scale.CallInfo{PalletIndex: p.index, CallIndex: uint8(i)}, nil
		}
	}
	return scale.CallInfo{}, fmt.Errorf("unknown call %s.%s", pallet, call)
}

// dispatchError is a failed dispatch, rendered the way sidecar renders a
// runtime DispatchError.
type dispatchError struct {
	kind   string
	pallet string
	name   string
}

func (e *dispatchError) Error() string {
	if e.kind == "Module" {
		return e.pallet + "." + e.name
	}
	if e.name != "" {
		return e.kind + ": " + e.name
	}
	return e.kind
}

func (e *dispatchError) JSON() json.RawMessage {
	var v any
	switch e.kind {
	case "Module":
		p := layout.byName[normalize(e.pallet)]
		idx := 0
		for i, n := range p.errors {
			if n == e.name {
				idx = i
				break
			}
		}
		v = map[string]any{"module": map[string]any{
			"index": fmt.Sprint(p.index),
			"error": fmt.Sprintf("0x%02x000000", idx),
			"name":  e.name,
		}}
	case "Other":
		v = map[string]any{"other": e.name}
	default:
		v = map[string]any{strings.ToLower(e.kind[:1]) + e.kind[1:]: nil}
	}
	b, _ := json.Marshal(v)
	return b
}

func moduleErr(pallet, name string) *dispatchError {
	p, ok := layout.byName[normalize(pallet)]
	if !ok {
		panic("devchain: unknown pallet " + pallet)
	}
	for _, n := range p.errors {
		if n == name {
			return &dispatchError{kind: "Module", pallet: p.name, name: name}
		}
	}
	panic("devchain: unknown error " + pallet + "." + name)
}

var errBadOrigin = &dispatchError{kind: "BadOrigin"}

func otherErr(format string, args ...any) *dispatchError {
	return &dispatchError{kind: "Other", name: fmt.Sprintf(format, args...)}
}
