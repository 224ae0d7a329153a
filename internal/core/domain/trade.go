package domain

import (
	"fmt"
	"time"
)

// ProvideAddress brings a main-chain buyer trade from AddressRequested to
// AddressProvided, recording the address the seller must pay to.
func (t *Trade) ProvideAddress(address string) (bool, error) {
	if t.isPast(TradeStatusCodeAddressProvided) {
		return true, nil
	}
	if t.IsTerminal() {
		return false, ErrTradeTerminal
	}
	if t.Role != RoleBuyer {
		return false, ErrInvalidRole
	}
	if t.Rail != RailMainChain {
		return false, ErrInvalidRail
	}
	if len(address) <= 0 {
		return false, ErrMissingBtcAddress
	}
	if t.Status.Code != TradeStatusCodeAddressRequested {
		return false, t.illegalTransition("provide address")
	}

	t.BtcAddress = address
	t.Status.Code = TradeStatusCodeAddressProvided
	t.appendLog("btc address provided")
	return true, nil
}

// StartFiatSent brings a buyer trade to FiatSentPendingBanCheck. The ban
// check on the seller's account data must pass before ConfirmFiatSent is
// allowed; a positive match cancels the trade instead.
func (t *Trade) StartFiatSent() (bool, error) {
	if t.isPast(TradeStatusCodeFiatSentPendingBanCheck) {
		return true, nil
	}
	if t.IsTerminal() {
		return false, ErrTradeTerminal
	}
	if t.Role != RoleBuyer {
		return false, ErrInvalidRole
	}
	expected := TradeStatusCodeAddressProvided
	if t.Rail == RailLightning {
		expected = TradeStatusCodeInit
	}
	if t.Status.Code != expected {
		return false, t.illegalTransition("start fiat payment")
	}

	t.Status.Code = TradeStatusCodeFiatSentPendingBanCheck
	t.appendLog("fiat payment announced, checking counterparty account data")
	return true, nil
}

// ConfirmFiatSent completes the buyer's fiat leg after the ban check passed,
// moving the trade through FiatSent to AwaitingFiatReceiptConfirmation.
func (t *Trade) ConfirmFiatSent() (bool, error) {
	if t.isPast(TradeStatusCodeFiatSent) {
		return true, nil
	}
	if t.IsTerminal() {
		return false, ErrTradeTerminal
	}
	if t.Role != RoleBuyer {
		return false, ErrInvalidRole
	}
	if t.Status.Code != TradeStatusCodeFiatSentPendingBanCheck {
		return false, t.illegalTransition("confirm fiat sent")
	}

	t.Status.Code = TradeStatusCodeFiatSent
	t.appendLog("fiat payment sent")
	t.Status.Code = TradeStatusCodeAwaitingFiatReceiptConfirmation
	t.appendLog("awaiting fiat receipt confirmation from seller")
	return true, nil
}

// SetAddressProvided applies the buyer's BtcAddressProvided message to a
// seller trade, which then waits for the fiat payment.
func (t *Trade) SetAddressProvided(address string) (bool, error) {
	if t.isPast(TradeStatusCodeAwaitingFiatSent) {
		return true, nil
	}
	if t.IsTerminal() {
		return false, ErrTradeTerminal
	}
	if t.Role != RoleSeller {
		return false, ErrInvalidRole
	}
	if t.Rail != RailMainChain {
		return false, ErrInvalidRail
	}
	if len(address) <= 0 {
		return false, ErrMissingBtcAddress
	}
	if t.Status.Code != TradeStatusCodeAddressRequested {
		return false, t.illegalTransition("record peer address")
	}

	t.BtcAddress = address
	t.Status.Code = TradeStatusCodeAwaitingFiatSent
	t.appendLog("buyer provided btc address, awaiting fiat payment")
	return true, nil
}

// SetFiatSent applies the buyer's FiatSent message to a seller trade.
func (t *Trade) SetFiatSent() (bool, error) {
	if t.isPast(TradeStatusCodeFiatSent) {
		return true, nil
	}
	if t.IsTerminal() {
		return false, ErrTradeTerminal
	}
	if t.Role != RoleSeller {
		return false, ErrInvalidRole
	}
	if t.Status.Code != TradeStatusCodeAwaitingFiatSent {
		return false, t.illegalTransition("record fiat sent")
	}

	t.Status.Code = TradeStatusCodeFiatSent
	t.appendLog("buyer reported fiat payment sent")
	return true, nil
}

// ConfirmFiatReceipt is the seller acknowledging the fiat payment arrived.
func (t *Trade) ConfirmFiatReceipt() (bool, error) {
	if t.isPast(TradeStatusCodeFiatReceiptConfirmed) {
		return true, nil
	}
	if t.IsTerminal() {
		return false, ErrTradeTerminal
	}
	if t.Role != RoleSeller {
		return false, ErrInvalidRole
	}
	if t.Status.Code != TradeStatusCodeFiatSent {
		return false, t.illegalTransition("confirm fiat receipt")
	}

	t.Status.Code = TradeStatusCodeFiatReceiptConfirmed
	t.appendLog("fiat receipt confirmed")
	return true, nil
}

// SetFiatReceiptConfirmed applies the seller's FiatReceiptConfirmed message
// to a buyer trade.
func (t *Trade) SetFiatReceiptConfirmed() (bool, error) {
	if t.isPast(TradeStatusCodeFiatReceiptConfirmed) {
		return true, nil
	}
	if t.IsTerminal() {
		return false, ErrTradeTerminal
	}
	if t.Role != RoleBuyer {
		return false, ErrInvalidRole
	}
	if t.Status.Code != TradeStatusCodeAwaitingFiatReceiptConfirmation {
		return false, t.illegalTransition("record fiat receipt confirmation")
	}

	t.Status.Code = TradeStatusCodeFiatReceiptConfirmed
	t.appendLog("seller confirmed fiat receipt")
	return true, nil
}

// ConfirmBtcSent is the seller handing over the payment proof (txid on the
// main chain, preimage on lightning) after paying the BTC leg. The trade
// then waits for settlement confirmation.
func (t *Trade) ConfirmBtcSent(paymentProof string) (bool, error) {
	if t.isPast(TradeStatusCodeBtcSent) {
		return true, nil
	}
	if t.IsTerminal() {
		return false, ErrTradeTerminal
	}
	if t.Role != RoleSeller {
		return false, ErrInvalidRole
	}
	if len(paymentProof) <= 0 {
		return false, ErrMissingPaymentProof
	}
	if t.Status.Code != TradeStatusCodeFiatReceiptConfirmed {
		return false, t.illegalTransition("confirm btc sent")
	}

	t.PaymentProof = paymentProof
	t.Status.Code = TradeStatusCodeBtcSent
	t.appendLog("btc payment sent")
	t.Status.Code = TradeStatusCodeAwaitingBtcConfirmation
	t.appendLog("awaiting btc confirmation")
	return true, nil
}

// SetBtcSent applies the seller's BtcSent message to a buyer trade, storing
// the payment proof to be verified. The fiat receipt confirmation may still
// be in flight, both orders of arrival are accepted.
func (t *Trade) SetBtcSent(paymentProof string) (bool, error) {
	if t.isPast(TradeStatusCodeAwaitingBtcConfirmation) {
		return true, nil
	}
	if t.IsTerminal() {
		return false, ErrTradeTerminal
	}
	if t.Role != RoleBuyer {
		return false, ErrInvalidRole
	}
	if len(paymentProof) <= 0 {
		return false, ErrMissingPaymentProof
	}
	if t.Status.Code != TradeStatusCodeAwaitingFiatReceiptConfirmation &&
		t.Status.Code != TradeStatusCodeFiatReceiptConfirmed {
		return false, t.illegalTransition("record btc sent")
	}

	t.PaymentProof = paymentProof
	t.Status.Code = TradeStatusCodeAwaitingBtcConfirmation
	t.appendLog("seller sent btc, awaiting confirmation")
	return true, nil
}

// ConfirmBtc records the verified settlement outcome and brings the trade to
// BtcConfirmed. A value differing from the contracted base amount flags the
// trade as amount-mismatched; completing it then requires an explicit
// acknowledgment.
func (t *Trade) ConfirmBtc(outputValue uint64, amountMismatch bool) (bool, error) {
	if t.isPast(TradeStatusCodeBtcConfirmed) {
		return true, nil
	}
	if t.IsTerminal() {
		return false, ErrTradeTerminal
	}
	if t.Status.Code != TradeStatusCodeAwaitingBtcConfirmation {
		return false, t.illegalTransition("confirm btc")
	}

	t.ProofOutputValue = outputValue
	t.AmountMismatch = amountMismatch
	t.Status.Code = TradeStatusCodeBtcConfirmed
	if amountMismatch {
		t.appendLog(fmt.Sprintf(
			"btc confirmed with mismatching amount: got %d sats, expected %d sats",
			outputValue, t.BaseAmount,
		))
	} else {
		t.appendLog("btc confirmed")
	}
	return true, nil
}

// SetBtcConfirmed applies the peer's BtcConfirmed message. The peer's
// verifier resolved the confirmation first, the local trade follows and
// takes over the verified output details, including a mismatch flag.
func (t *Trade) SetBtcConfirmed(outputValue uint64, amountMismatch bool) (bool, error) {
	if t.isPast(TradeStatusCodeBtcConfirmed) {
		return true, nil
	}
	if t.IsTerminal() {
		return false, ErrTradeTerminal
	}
	if t.Status.Code != TradeStatusCodeAwaitingBtcConfirmation {
		return false, t.illegalTransition("record btc confirmation")
	}

	t.ProofOutputValue = outputValue
	t.AmountMismatch = amountMismatch
	t.Status.Code = TradeStatusCodeBtcConfirmed
	t.appendLog("peer reported btc confirmed")
	return true, nil
}

// Complete brings a confirmed trade to the Completed terminal status. A
// trade flagged as amount-mismatched refuses to complete unless the caller
// acknowledges the mismatch.
func (t *Trade) Complete(acknowledgeMismatch bool) (bool, error) {
	if t.Status.Code == TradeStatusCodeCompleted {
		return true, nil
	}
	if t.IsTerminal() {
		return false, ErrTradeTerminal
	}
	if t.Status.Code != TradeStatusCodeBtcConfirmed {
		return false, t.illegalTransition("complete")
	}
	if t.AmountMismatch && !acknowledgeMismatch {
		return false, ErrMismatchNotAcknowledged
	}

	t.Status = CompletedStatus
	t.CompletionTime = time.Now().Unix()
	t.appendLog("trade completed")
	return true, nil
}

// Cancel brings the trade to the Cancelled terminal status from any
// non-terminal one.
func (t *Trade) Cancel(reason string) (bool, error) {
	if t.IsCancelled() {
		return true, nil
	}
	if t.IsTerminal() {
		return false, ErrTradeTerminal
	}

	t.Status = CancelledStatus
	t.CancelReason = reason
	t.CompletionTime = time.Now().Unix()
	t.appendLog("trade cancelled: " + reason)
	return true, nil
}

// Fail marks the trade as failed because of an unrecoverable protocol error.
func (t *Trade) Fail(reason string) (bool, error) {
	if t.IsFailed() {
		return true, nil
	}
	if t.IsTerminal() {
		return false, ErrTradeTerminal
	}

	t.Status = FailedStatus
	t.FailReason = reason
	t.CompletionTime = time.Now().Unix()
	t.appendLog("trade failed: " + reason)
	return true, nil
}

// IsBuyer returns whether the local party is the BTC buyer.
func (t *Trade) IsBuyer() bool {
	return t.Role == RoleBuyer
}

// IsSeller returns whether the local party is the BTC seller.
func (t *Trade) IsSeller() bool {
	return t.Role == RoleSeller
}

// IsCompleted returns whether the trade reached the Completed status.
func (t *Trade) IsCompleted() bool {
	return t.Status.Code == TradeStatusCodeCompleted
}

// IsCancelled returns whether the trade has been cancelled.
func (t *Trade) IsCancelled() bool {
	return t.Status.Code == TradeStatusCodeCancelled
}

// IsFailed returns whether the trade failed.
func (t *Trade) IsFailed() bool {
	return t.Status.Code == TradeStatusCodeFailed
}

// IsTerminal returns whether the trade reached any terminal status.
func (t *Trade) IsTerminal() bool {
	return t.Status.Code >= TradeStatusCodeCompleted
}

// IsAwaitingBtcConfirmation returns whether the trade waits for the
// settlement confirmation poll to resolve.
func (t *Trade) IsAwaitingBtcConfirmation() bool {
	return t.Status.Code == TradeStatusCodeAwaitingBtcConfirmation
}

func (t *Trade) isPast(statusCode int) bool {
	return t.Status.Code >= statusCode && !t.IsTerminal()
}

func (t *Trade) illegalTransition(action string) error {
	return fmt.Errorf(
		"%w: cannot %s while in status %d", ErrIllegalTransition, action, t.Status.Code,
	)
}

func (t *Trade) appendLog(text string) {
	t.Log = append(t.Log, LogEntry{Timestamp: time.Now().Unix(), Text: text})
}
