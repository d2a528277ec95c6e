package devchain

import (
	"sort"
	"strconv"

	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// l1Names are the storage renderings of the L1 enum.
var l1Names = []string{"Ethereum", "Arbitrum"}

func l1Name(l1 uint8) string {
	if int(l1) < len(l1Names) {
		return l1Names[l1]
	}
	return "L1(" + strconv.Itoa(int(l1)) + ")"
}

func parseL1Key(s string) (uint8, bool) {
	for i, n := range l1Names {
		if normalize(n) == normalize(s) {
			return uint8(i), true
		}
	}
	return 0, false
}

func (x *execution) sequencerStaking(o origin, call chain.Call) *dispatchError {
	if err := requireSigned(o); err != nil {
		return err
	}
	a := newArgs(call)
	switch normalize(call.Name) {
	case "providesequencerstake":
		l1, amount := a.enum("chain"), a.amount("stake_amount")
		if a.err != nil {
			return a.err
		}
		key := rightsKey{l1: l1, addr: o.who}
		stake, ok := x.s.stakes[key]
		if !ok {
			stake = math.ZeroInt()
		}
		total := stake.Add(amount)
		if total.LT(x.cfg.minSequencerStake) {
			return moduleErr("sequencer_staking", "NotEnoughSequencerStake")
		}
		if x.s.reserve(o.who, nativeCurrency, amount) != nil {
			return moduleErr("sequencer_staking", "OperationFailed")
		}
		x.s.stakes[key] = total
		if _, active := x.s.rights[key]; !active {
			x.s.rights[key] = sequencerRights{read: 1, cancel: 1}
			x.emit(newEvent("sequencerStaking", "SequencerJoinedActiveSet", l1Name(l1), o.who))
		}
		return nil
	}
	return otherErr("%s is not supported", call)
}

func (x *execution) rolldown(o origin, call chain.Call) *dispatchError {
	if err := requireSigned(o); err != nil {
		return err
	}
	a := newArgs(call)
	switch normalize(call.Name) {
	case "updatel2froml1":
		requests, _ := a.get("requests")
		if a.err != nil {
			return a.err
		}
		return x.updateL2FromL1(o.who, requests)

	case "withdraw":
		l1 := a.enum("chain")
		recipient, token, amount := a.account("recipient"), a.account("token_address"), a.amount("amount")
		if a.err != nil {
			return a.err
		}
		id, ok := x.s.assets[assetKey{l1: l1, token: token}]
		if !ok {
			return moduleErr("rolldown", "L1AssetNotFound")
		}
		if x.s.debit(o.who, id, amount) != nil {
			return moduleErr("rolldown", "NotEnoughAssets")
		}
		x.s.l2Origin[l1]++
		requestID := x.s.l2Origin[l1]
		x.emit(newEvent("rolldown", "WithdrawalRequestCreated", l1Name(l1), recipient, token, amount, requestID))
		return nil
	}
	return otherErr("%s is not supported", call)
}

func (x *execution) updateL2FromL1(sequencer chain.Address, requests chain.Arg) *dispatchError {
	l1Arg, _ := requests.Field("chain")
	l1 := l1Arg.Variant
	key := rightsKey{l1: l1, addr: sequencer}

	rights, ok := x.s.rights[key]
	if !ok {
		return moduleErr("rolldown", "OnlySelectedSequencerisAllowedToUpdate")
	}
	if rights.read == 0 {
		return moduleErr("rolldown", "ReadRightsExhausted")
	}

	update := pendingUpdate{
		l1:        l1,
		sequencer: sequencer,
		at:        x.height + x.cfg.disputePeriod,
		lastID:    x.s.lastProcessed[l1],
	}
	a := &args{of: chain.NewCall("rolldown", "update_l2_from_l1")}
	seen := 0

	deposits, _ := requests.Field("pending_deposits")
	for _, d := range deposits.Items {
		reqArg, _ := d.Field("request_id")
		idArg, _ := reqArg.Field("id")
		recipient, _ := d.Field("deposit_recipient")
		token, _ := d.Field("token_address")
		amountArg, _ := d.Field("amount")
		id := uintOf(a, idArg)
		amount := uintOf(a, amountArg)
		if a.err != nil {
			return moduleErr("rolldown", "InvalidUpdate")
		}
		if !id.IsUint64() || id.Uint64() <= update.lastID {
			return moduleErr("rolldown", "WrongRequestId")
		}
		update.lastID = id.Uint64()
		update.deposits = append(update.deposits, pendingDeposit{
			requestID: id.Uint64(),
			recipient: recipient.Account,
			token:     token.Account,
			amount:    amount,
		})
		seen++
	}

	for _, field := range []string{"pending_withdrawal_resolutions", "pending_cancel_resolutions", "pending_l2_updates_to_remove"} {
		items, _ := requests.Field(field)
		for _, it := range items.Items {
			reqArg, _ := it.Field("request_id")
			idArg, _ := reqArg.Field("id")
			id := uintOf(a, idArg)
			if a.err != nil {
				return moduleErr("rolldown", "InvalidUpdate")
			}
			if !id.IsUint64() || id.Uint64() <= update.lastID {
				return moduleErr("rolldown", "WrongRequestId")
			}
			update.lastID = id.Uint64()
			seen++
		}
	}
	if seen == 0 {
		return moduleErr("rolldown", "EmptyUpdate")
	}

	rights.read--
	x.s.rights[key] = rights
	x.s.pending = append(x.s.pending, update)

	x.emit(newEvent("rolldown", "L1ReadStored", []any{
		sequencer,
		update.at,
		map[string]string{"start": strconv.FormatUint(x.s.lastProcessed[l1]+1, 10), "end": strconv.FormatUint(update.lastID, 10)},
		l1Name(l1),
	}))
	return nil
}

// processRolldown applies the updates whose dispute period ends at the
// current block. Deposits show up as tokens.Deposited during
// initialization.
func (x *execution) processRolldown() {
	var keep []pendingUpdate
	due := make([]pendingUpdate, 0)
	for _, u := range x.s.pending {
		if u.at <= x.height {
			due = append(due, u)
		} else {
			keep = append(keep, u)
		}
	}
	if len(due) == 0 {
		return
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	x.s.pending = keep

	for _, u := range due {
		for _, d := range u.deposits {
			ak := assetKey{l1: u.l1, token: d.token}
			id, ok := x.s.assets[ak]
			if !ok {
				id = x.s.newCurrency()
				x.s.assets[ak] = id
				x.emit(newEvent("assetRegistry", "RegisteredAsset", id, d.token))
			}
			x.s.credit(d.recipient, id, d.amount)
			x.emit(newEvent("tokens", "Deposited", id, d.recipient, d.amount))
		}
		if u.lastID > x.s.lastProcessed[u.l1] {
			x.s.lastProcessed[u.l1] = u.lastID
		}
		key := rightsKey{l1: u.l1, addr: u.sequencer}
		if r, ok := x.s.rights[key]; ok {
			r.read++
			x.s.rights[key] = r
		}
		x.emit(newEvent("rolldown", "RequestProcessedOnL2", l1Name(u.l1), u.lastID))
	}
}
