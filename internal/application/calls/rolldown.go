package calls

import (
	"fmt"
	"strings"

	"cosmossdk.io/math"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// L1 identifies the settlement layer a rollup message belongs to.
type L1 uint8

const (
	Ethereum L1 = iota
	Arbitrum
)

func (l L1) String() string {
	switch l {
	case Ethereum:
		return "Ethereum"
	case Arbitrum:
		return "Arbitrum"
	default:
		return fmt.Sprintf("L1(%d)", uint8(l))
	}
}

// ParseL1 accepts the storage rendering of an L1 name.
func ParseL1(s string) (L1, error) {
	switch strings.ToLower(s) {
	case "ethereum", "":
		return Ethereum, nil
	case "arbitrum":
		return Arbitrum, nil
	default:
		return 0, fmt.Errorf("unknown L1 %q", s)
	}
}

// Arg encodes the L1 as a unit enum.
func (l L1) Arg(name string) chain.Arg {
	return chain.Enum(name, uint8(l))
}

const (
	originL1 uint8 = iota
	originL2
)

func requestID(id uint64) chain.Arg {
	return chain.Tuple("request_id",
		chain.Enum("origin", originL1),
		chain.U128("id", math.NewIntFromUint64(id)),
	)
}

// L2Update accumulates L1 messages for a rolldown.update_l2_from_l1 call.
type L2Update struct {
	l1                    L1
	deposits              []chain.Arg
	withdrawalResolutions []chain.Arg
	cancelResolutions     []chain.Arg
	updatesToRemove       []chain.Arg
}

// NewL2Update starts an empty update for l1.
func NewL2Update(l1 L1) *L2Update {
	return &L2Update{l1: l1}
}

// WithDeposit credits amount of the token at erc20 to recipient. The L1
// block hash is derived from the recipient, padded to 32 bytes.
func (u *L2Update) WithDeposit(requestIdx uint64, recipient, erc20 chain.Address, amount math.Int) *L2Update {
	u.deposits = append(u.deposits, chain.Tuple("",
		requestID(requestIdx),
		chain.Account("deposit_recipient", recipient),
		chain.Account("token_address", erc20),
		chain.U128("amount", amount),
		chain.H256("block_hash", recipient.Bytes()),
	))
	return u
}

// WithWithdrawalResolution resolves the L2 withdrawal l2RequestID.
func (u *L2Update) WithWithdrawalResolution(requestIdx, l2RequestID uint64, status bool, timestamp uint64) *L2Update {
	u.withdrawalResolutions = append(u.withdrawalResolutions, chain.Tuple("",
		requestID(requestIdx),
		chain.U128("l2_request_id", math.NewIntFromUint64(l2RequestID)),
		chain.Bool("status", status),
		chain.U128("timestamp", math.NewIntFromUint64(timestamp)),
	))
	return u
}

// WithCancelResolution resolves a cancelled L2 update.
func (u *L2Update) WithCancelResolution(requestIdx, l2RequestID uint64, justified bool, timestamp uint64) *L2Update {
	u.cancelResolutions = append(u.cancelResolutions, chain.Tuple("",
		requestID(requestIdx),
		chain.U128("l2_request_id", math.NewIntFromUint64(l2RequestID)),
		chain.Bool("cancel_justified", justified),
		chain.U128("timestamp", math.NewIntFromUint64(timestamp)),
	))
	return u
}

// WithUpdatesToRemove drops already processed L2 updates.
func (u *L2Update) WithUpdatesToRemove(requestIdx uint64, ids []uint64, timestamp uint64) *L2Update {
	items := make([]chain.Arg, len(ids))
	for i, id := range ids {
		items[i] = chain.U128("", math.NewIntFromUint64(id))
	}
	u.updatesToRemove = append(u.updatesToRemove, chain.Tuple("",
		requestID(requestIdx),
		chain.Vec("l2_updates_to_remove", items...),
		chain.U128("timestamp", math.NewIntFromUint64(timestamp)),
	))
	return u
}

// Build returns the update_l2_from_l1 call.
func (u *L2Update) Build() chain.Call {
	return chain.NewCall("rolldown", "update_l2_from_l1",
		chain.Tuple("requests",
			u.l1.Arg("chain"),
			chain.Vec("pending_deposits", u.deposits...),
			chain.Vec("pending_withdrawal_resolutions", u.withdrawalResolutions...),
			chain.Vec("pending_cancel_resolutions", u.cancelResolutions...),
			chain.Vec("pending_l2_updates_to_remove", u.updatesToRemove...),
		),
	)
}

// Withdraw burns amount of the L2 representation of token and requests its
// release to recipient on l1.
func Withdraw(l1 L1, recipient, token chain.Address, amount math.Int) chain.Call {
	return chain.NewCall("rolldown", "withdraw",
		l1.Arg("chain"),
		chain.Account("recipient", recipient),
		chain.Account("token_address", token),
		chain.U128("amount", amount),
	)
}

// ProvideSequencerStake bonds amount to become a sequencer for l1.
func ProvideSequencerStake(l1 L1, amount math.Int) chain.Call {
	return chain.NewCall("sequencer_staking", "provide_sequencer_stake",
		l1.Arg("chain"),
		chain.U128("stake_amount", amount),
	)
}
