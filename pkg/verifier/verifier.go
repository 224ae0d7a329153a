package verifier

import (
	"context"
	"errors"
	"sync"

	"github.com/sony/gobreaker"

	"github.com/bisq-network/bisqeasyd/internal/core/domain"
	"github.com/bisq-network/bisqeasyd/pkg/explorer"
)

// ConfirmationState classifies the settlement status of a payment proof.
type ConfirmationState string

const (
	StatePending   ConfirmationState = "PENDING"
	StateInMempool ConfirmationState = "IN_MEMPOOL"
	StateConfirmed ConfirmationState = "CONFIRMED"
	StateFailed    ConfirmationState = "FAILED"
)

// Failure reasons for ambiguous output matching. Zero or multiple outputs
// paying the destination address can never be silently treated as confirmed,
// they require manual resolution.
const (
	ReasonNoOutputForAddress        = "no output for address"
	ReasonMultipleOutputsForAddress = "multiple outputs for address"
)

// ConfirmationStatus is the outcome of a payment proof lookup. A confirmed
// output whose value differs from the expected one is still Confirmed but
// flagged as amount-mismatched.
type ConfirmationStatus struct {
	State          ConfirmationState
	Reason         string
	OutputValue    uint64
	AmountMismatch bool
}

// Proof identifies what to verify: the proof value (txid on the main chain,
// preimage on lightning) plus the contracted destination and amount to
// reconcile against.
type Proof struct {
	Value         string
	Rail          domain.SettlementRail
	Destination   string
	ExpectedValue uint64
}

// Service resolves payment proofs against an external transaction-lookup
// service. Confirmed results are cached by proof value for the process
// lifetime, proofs are immutable once confirmed.
type Service interface {
	// Status resolves the proof synchronously.
	Status(ctx context.Context, proof Proof) ConfirmationStatus
	// RequestStatus resolves the proof without blocking the caller.
	RequestStatus(ctx context.Context, proof Proof) <-chan ConfirmationStatus
}

type verifier struct {
	explorerSvc explorer.Service
	cb          *gobreaker.CircuitBreaker

	lock  sync.RWMutex
	cache map[string]ConfirmationStatus
}

// NewService returns a verifier backed by the given explorer. The cache is
// owned by the returned instance, construct it once per process and share it
// across trade-scoped users.
func NewService(explorerSvc explorer.Service) Service {
	return &verifier{
		explorerSvc: explorerSvc,
		cb:          newCircuitBreaker(),
		cache:       map[string]ConfirmationStatus{},
	}
}

func (v *verifier) Status(ctx context.Context, proof Proof) ConfirmationStatus {
	if status, ok := v.cachedStatus(proof.Value); ok {
		return status
	}
	if err := ctx.Err(); err != nil {
		return ConfirmationStatus{State: StateFailed, Reason: err.Error()}
	}

	// A lightning preimage cannot be looked up on a block explorer, handing
	// it over is the settlement proof itself.
	if proof.Rail == domain.RailLightning {
		status := ConfirmationStatus{
			State:       StateConfirmed,
			OutputValue: proof.ExpectedValue,
		}
		v.cacheStatus(proof.Value, status)
		return status
	}

	itx, err := v.cb.Execute(func() (interface{}, error) {
		return v.explorerSvc.GetTransaction(proof.Value)
	})
	if err != nil {
		if errors.Is(err, explorer.ErrTransactionNotFound) {
			return ConfirmationStatus{State: StatePending}
		}
		return ConfirmationStatus{State: StateFailed, Reason: err.Error()}
	}
	tx := itx.(*explorer.Tx)

	output, reason := matchOutput(tx.Outputs, proof.Destination)
	if len(reason) > 0 {
		return ConfirmationStatus{State: StateFailed, Reason: reason}
	}

	if !tx.Confirmed {
		return ConfirmationStatus{State: StateInMempool, OutputValue: output.Value}
	}

	status := ConfirmationStatus{
		State:          StateConfirmed,
		OutputValue:    output.Value,
		AmountMismatch: output.Value != proof.ExpectedValue,
	}
	v.cacheStatus(proof.Value, status)
	return status
}

func (v *verifier) RequestStatus(
	ctx context.Context, proof Proof,
) <-chan ConfirmationStatus {
	chStatus := make(chan ConfirmationStatus, 1)
	go func() {
		defer close(chStatus)
		chStatus <- v.Status(ctx, proof)
	}()
	return chStatus
}

// matchOutput filters the transaction outputs by destination address.
// Exactly one match is the success path, anything else is a failure that
// requires manual resolution.
func matchOutput(
	outputs []explorer.TxOutput, destination string,
) (explorer.TxOutput, string) {
	matches := make([]explorer.TxOutput, 0, 1)
	for _, out := range outputs {
		if out.Address == destination {
			matches = append(matches, out)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], ""
	case 0:
		return explorer.TxOutput{}, ReasonNoOutputForAddress
	default:
		return explorer.TxOutput{}, ReasonMultipleOutputsForAddress
	}
}

func (v *verifier) cachedStatus(proofValue string) (ConfirmationStatus, bool) {
	v.lock.RLock()
	defer v.lock.RUnlock()
	status, ok := v.cache[proofValue]
	return status, ok
}

func (v *verifier) cacheStatus(proofValue string, status ConfirmationStatus) {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.cache[proofValue] = status
}
