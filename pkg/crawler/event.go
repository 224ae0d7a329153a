package crawler

import "github.com/bisq-network/bisqeasyd/pkg/verifier"

// EventType ...
type EventType int

const (
	// ProofPending means the proof is not visible to the explorer yet, or
	// still sits in the mempool. Polling continues.
	ProofPending EventType = iota
	// ProofConfirmed means the settlement got confirmed, possibly with a
	// mismatching output value.
	ProofConfirmed
	// ProofFailed means the lookup failed or the output matching was
	// ambiguous. Polling continues, transient failures recover on their own.
	ProofFailed
	// CloseSignal signals the crawler shut down.
	CloseSignal
)

var typeStrings = map[EventType]string{
	ProofPending:   "ProofPending",
	ProofConfirmed: "ProofConfirmed",
	ProofFailed:    "ProofFailed",
	CloseSignal:    "CloseSignal",
}

func (et EventType) String() string {
	if s, ok := typeStrings[et]; ok {
		return s
	}
	return "Unknown"
}

// ProofEvent carries the outcome of one verification poll for a trade.
type ProofEvent struct {
	EventType EventType
	TradeId   string
	Proof     string
	Status    verifier.ConfirmationStatus
}

// Type implements the Event interface.
func (p ProofEvent) Type() EventType {
	return p.EventType
}

// CloseEvent is sent on the event channel right before it gets closed.
type CloseEvent struct{}

// Type implements the Event interface.
func (q CloseEvent) Type() EventType {
	return CloseSignal
}
