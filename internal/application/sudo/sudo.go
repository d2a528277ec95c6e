// Package sudo dispatches privileged calls through the sudo key holder.
package sudo

import (
	"context"

	"github.com/b-harvest/gasp-e2e/internal/application/calls"
	"github.com/b-harvest/gasp-e2e/internal/application/wallet"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// Service submits calls signed by the sudo key.
type Service struct {
	key *wallet.User
}

// New returns a Service signing with key, which must hold the sudo key.
func New(key *wallet.User) *Service {
	return &Service{key: key}
}

// Key returns the sudo user.
func (s *Service) Key() *wallet.User {
	return s.key
}

// AsSudoFinalized dispatches call with root origin and requires sudo.Sudid
// to report success.
func (s *Service) AsSudoFinalized(ctx context.Context, call chain.Call) (*chain.TxResult, error) {
	return s.submit(ctx, calls.Sudo(call), "sudo", "Sudid")
}

// SudoAs dispatches call signed as who and requires sudo.SudoAsDone to
// report success.
func (s *Service) SudoAs(ctx context.Context, who *wallet.User, call chain.Call) (*chain.TxResult, error) {
	return s.submit(ctx, calls.SudoAs(who.Address(), call), "sudo", "SudoAsDone")
}

// BatchAsSudoFinalized submits calls as one utility.batch_all signed by the
// sudo key. Each call is usually already wrapped with Sudo or As. Every
// sudo result in the batch must be ok.
func (s *Service) BatchAsSudoFinalized(ctx context.Context, batch ...chain.Call) (*chain.TxResult, error) {
	return s.submit(ctx, calls.BatchAll(batch...), "utility", "BatchCompleted")
}

// Sudo wraps call for root dispatch inside a batch.
func Sudo(call chain.Call) chain.Call {
	return calls.Sudo(call)
}

// As wraps call for dispatch as who inside a batch.
func As(who *wallet.User, call chain.Call) chain.Call {
	return calls.SudoAs(who.Address(), call)
}

func (s *Service) submit(ctx context.Context, call chain.Call, pallet, method string) (*chain.TxResult, error) {
	res, err := s.key.Submit(ctx, call)
	if err != nil {
		return nil, err
	}
	out := chain.ExtractResult(res.Events, pallet, method)
	if out.State == chain.ExtrinsicSuccess {
		if failed := firstSudoFailure(res.Events); failed != nil {
			out = chain.EventResult{State: chain.ExtrinsicFailed, Failure: failed}
		}
	}
	if out.State != chain.ExtrinsicSuccess {
		return res, &wallet.TransactionRejectedError{
			Call:     call.Method(),
			Expected: pallet + "." + method,
			State:    out.State,
			Reason:   out.ErrorName(),
			TxHash:   res.Hash,
		}
	}
	return res, nil
}

func firstSudoFailure(events []chain.Event) *chain.DispatchError {
	for _, ev := range events {
		if !ev.Is("sudo", "Sudid") && !ev.Is("sudo", "SudoAsDone") {
			continue
		}
		p, err := chain.Decode(ev)
		if err != nil {
			continue
		}
		if sr := p.(chain.SudoResult); sr.Err != nil {
			return sr.Err
		}
	}
	return nil
}
