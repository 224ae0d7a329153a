package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"

	"github.com/bisq-network/bisqeasyd/internal/core/domain"
	"github.com/bisq-network/bisqeasyd/pkg/crawler"
	"github.com/bisq-network/bisqeasyd/pkg/verifier"
)

// onProtocolMessage applies a peer message to the local trade under the same
// per-trade lock used by local actions, so that UI actions and incoming
// messages never interleave on one trade. Follow-up messages are sent after
// the lock is released.
func (s *tradeService) onProtocolMessage(msg domain.ProtocolMessage) {
	ctx := context.Background()

	trade, changed, err := func() (*domain.Trade, bool, error) {
		unlock := s.lockTrade(msg.TradeId)
		defer unlock()

		trade, err := s.tradeRepository.GetTrade(ctx, msg.TradeId)
		if err != nil || trade == nil {
			log.WithField("trade", msg.TradeId).Debugf(
				"dropping %s message for unknown trade", msg.Type,
			)
			return nil, false, nil
		}
		if msg.Sender == trade.Role {
			// own message echoed back by the transport
			return nil, false, nil
		}
		if trade.IsTerminal() {
			log.WithField("trade", msg.TradeId).Debugf(
				"dropping %s message for terminal trade", msg.Type,
			)
			return nil, false, nil
		}

		return s.applyTransition(ctx, msg.TradeId,
			func(t *domain.Trade) (bool, error) {
				if _, err := domain.ApplyMessage(t, msg); err != nil {
					return false, err
				}
				// the peer's verifier resolved first, follow to completion unless
				// an amount mismatch needs an explicit acknowledgment
				if t.Status.Code == domain.TradeStatusCodeBtcConfirmed && !t.AmountMismatch {
					return t.Complete(false)
				}
				return true, nil
			},
		)
	}()
	if err != nil {
		logEntry := log.WithField("trade", msg.TradeId).WithError(err)
		if errors.Is(err, domain.ErrIllegalTransition) {
			logEntry.Warnf("rejected out-of-order %s message", msg.Type)
		} else {
			logEntry.Warnf("failed to apply %s message", msg.Type)
		}
		return
	}
	if trade == nil {
		return
	}
	if !changed {
		log.WithField("trade", msg.TradeId).Debugf(
			"duplicate %s message ignored", msg.Type,
		)
		return
	}

	log.WithField("trade", msg.TradeId).Debugf("applied %s message", msg.Type)

	switch msg.Type {
	case domain.MsgBtcSent:
		if trade.IsAwaitingBtcConfirmation() {
			s.startObserving(trade)
		}
	case domain.MsgTradeCancelled:
		s.stopObserving(trade)
	case domain.MsgBtcConfirmed:
		s.stopObserving(trade)
		if trade.IsCompleted() {
			s.sendSystemMessage(trade, "Trade completed")
		} else if trade.AmountMismatch {
			s.sendSystemMessage(trade, fmt.Sprintf(
				"The BTC payment got confirmed but its amount of %s does not match "+
					"the trade amount of %s. Review it and confirm to close the trade.",
				btcutil.Amount(trade.ProofOutputValue).String(),
				btcutil.Amount(trade.BaseAmount).String(),
			))
		}
	}
}

// handleProofEvents drains the crawler's event channel and advances trades
// whose settlement got resolved.
func (s *tradeService) handleProofEvents() {
	for event := range s.crawlerSvc.GetEventChannel() {
		switch event.Type() {
		case crawler.ProofConfirmed:
			s.btcConfirmed(context.Background(), event.(crawler.ProofEvent))
		case crawler.ProofFailed:
			s.proofFailed(context.Background(), event.(crawler.ProofEvent))
		case crawler.ProofPending:
			e := event.(crawler.ProofEvent)
			log.WithField("trade", e.TradeId).Debugf(
				"proof %s not confirmed yet", e.Proof,
			)
		case crawler.CloseSignal:
			return
		}
	}
}

// proofFailed handles an unresolvable verification outcome. Only an
// ambiguous output match is unrecoverable and fails the trade, transient
// explorer errors keep the poll running.
func (s *tradeService) proofFailed(ctx context.Context, e crawler.ProofEvent) {
	if e.Status.Reason != verifier.ReasonNoOutputForAddress &&
		e.Status.Reason != verifier.ReasonMultipleOutputsForAddress {
		log.WithField("trade", e.TradeId).Warnf(
			"verification of proof %s failed: %s", e.Proof, e.Status.Reason,
		)
		return
	}

	trade, changed, err := func() (*domain.Trade, bool, error) {
		unlock := s.lockTrade(e.TradeId)
		defer unlock()

		trade, err := s.tradeRepository.GetTrade(ctx, e.TradeId)
		if err != nil || trade == nil {
			return nil, false, nil
		}
		if trade.IsTerminal() {
			return trade, false, nil
		}

		return s.applyTransition(ctx, e.TradeId,
			func(t *domain.Trade) (bool, error) {
				return t.Fail(e.Status.Reason)
			},
		)
	}()
	if err != nil {
		log.WithError(err).WithField("trade", e.TradeId).Warn(
			"failed to record proof failure",
		)
		return
	}
	if trade == nil {
		return
	}

	s.stopObserving(trade)

	if changed {
		s.sendSystemMessage(trade, "Trade failed: "+e.Status.Reason)
	}
}

// btcConfirmed is the transition driven by the confirmation poll rather than
// by a user action or peer message. When the confirmed value matches the
// contract the trade auto-completes, a mismatch parks it in BtcConfirmed
// until the user acknowledges via CompleteTrade.
func (s *tradeService) btcConfirmed(ctx context.Context, e crawler.ProofEvent) {
	trade, changed, err := func() (*domain.Trade, bool, error) {
		unlock := s.lockTrade(e.TradeId)
		defer unlock()

		trade, err := s.tradeRepository.GetTrade(ctx, e.TradeId)
		if err != nil || trade == nil {
			return nil, false, nil
		}
		if trade.IsTerminal() {
			return trade, false, nil
		}

		return s.applyTransition(ctx, e.TradeId,
			func(t *domain.Trade) (bool, error) {
				if _, err := t.ConfirmBtc(
					e.Status.OutputValue, e.Status.AmountMismatch,
				); err != nil {
					return false, err
				}
				if !t.AmountMismatch {
					return t.Complete(false)
				}
				return true, nil
			},
		)
	}()
	if err != nil {
		log.WithError(err).WithField("trade", e.TradeId).Warn(
			"failed to record btc confirmation",
		)
		return
	}
	if trade == nil {
		return
	}

	// polling stops once the proof resolved, the result is cached anyway
	s.stopObserving(trade)

	if !changed {
		return
	}

	msg := domain.NewProtocolMessage(e.TradeId, trade.Role, domain.MsgBtcConfirmed)
	msg.OutputValue = trade.ProofOutputValue
	msg.AmountMismatch = trade.AmountMismatch
	s.sendProtocolMessage(trade, msg)

	if trade.AmountMismatch {
		s.sendSystemMessage(trade, fmt.Sprintf(
			"The BTC payment got confirmed but its amount of %s does not match "+
				"the trade amount of %s. Review it and confirm to close the trade.",
			btcutil.Amount(trade.ProofOutputValue).String(),
			btcutil.Amount(trade.BaseAmount).String(),
		))
		return
	}

	s.sendTradeLog(trade, fmt.Sprintf(
		"BTC payment of %s confirmed", btcutil.Amount(trade.BaseAmount).String(),
	))
	s.sendSystemMessage(trade, "Trade completed")
}
