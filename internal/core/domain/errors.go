package domain

import "errors"

var (
	// ErrIllegalTransition is thrown when an action or message does not match
	// the expected next status for the trade's role. The trade is left
	// untouched.
	ErrIllegalTransition = errors.New("illegal trade state transition")
	// ErrTradeTerminal is thrown when trying to progress a trade that already
	// reached Completed, Cancelled or Failed.
	ErrTradeTerminal = errors.New("trade is in a terminal state")
	// ErrInvalidRole is thrown when an action is attempted by the wrong side
	// of the trade.
	ErrInvalidRole = errors.New("action not allowed for trade role")
	// ErrInvalidRail is thrown for actions that the trade's settlement rail
	// does not support, like exchanging a BTC address on lightning.
	ErrInvalidRail = errors.New("action not supported by settlement rail")
	// ErrMismatchNotAcknowledged is thrown when completing a trade whose
	// confirmed output value differs from the contracted amount without the
	// explicit acknowledgment of the mismatch.
	ErrMismatchNotAcknowledged = errors.New("amount mismatch must be acknowledged to complete the trade")
	// ErrMessageTradeMismatch ...
	ErrMessageTradeMismatch = errors.New("message does not belong to this trade")
	// ErrMessageFromSelf is thrown when applying a protocol message stamped
	// with the local role. Messages only ever drive the peer's transitions.
	ErrMessageFromSelf = errors.New("message sender role matches local role")
	// ErrUnknownMessageType ...
	ErrUnknownMessageType = errors.New("unknown protocol message type")
	// ErrMissingPaymentProof ...
	ErrMissingPaymentProof = errors.New("payment proof must not be empty")
	// ErrMissingBtcAddress ...
	ErrMissingBtcAddress = errors.New("btc address must not be empty")
)
