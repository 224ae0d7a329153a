package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"

	"github.com/bisq-network/bisqeasyd/internal/core/domain"
	"github.com/bisq-network/bisqeasyd/internal/core/ports"
	"github.com/bisq-network/bisqeasyd/pkg/crawler"
	"github.com/bisq-network/bisqeasyd/pkg/verifier"
)

// TakeOfferParams are the terms of an accepted offer a trade is created
// from.
type TakeOfferParams struct {
	OfferId         string
	Role            domain.Role
	Rail            domain.SettlementRail
	BaseAmount      uint64
	QuoteAmount     uint64
	QuoteCurrency   string
	MakerProfileId  string
	TakerProfileId  string
	BaseMethod      string
	QuoteMethod     string
	PeerProfileId   string
	PeerAccountData string
}

// TradeService owns the set of active trades and dispatches role-specific
// actions against them. All mutations of one trade are serialized, different
// trades progress independently.
type TradeService interface {
	Start() error
	Stop()
	TakeOffer(ctx context.Context, params TakeOfferParams) (*domain.Trade, error)
	GetTrade(ctx context.Context, tradeId string) (*domain.Trade, error)
	ListTrades(ctx context.Context) ([]*domain.Trade, error)
	BuyerSendBtcAddress(ctx context.Context, tradeId, address string) error
	BuyerConfirmFiatSent(ctx context.Context, tradeId string) error
	SellerConfirmFiatReceipt(ctx context.Context, tradeId string) error
	SellerConfirmBtcSent(ctx context.Context, tradeId, paymentProof string) error
	CompleteTrade(ctx context.Context, tradeId string, acknowledgeMismatch bool) error
	CancelTrade(ctx context.Context, tradeId, reason string) error
	RemoveTrade(ctx context.Context, tradeId string) error
}

type tradeService struct {
	tradeRepository domain.TradeRepository
	messenger       ports.Messenger
	moderator       ports.Moderator
	banList         ports.BanList
	crawlerSvc      crawler.Service

	locks sync.Map
}

// NewTradeService returns a TradeService with all the needed collaborators.
func NewTradeService(
	tradeRepository domain.TradeRepository,
	messenger ports.Messenger,
	moderator ports.Moderator,
	banList ports.BanList,
	crawlerSvc crawler.Service,
) TradeService {
	return &tradeService{
		tradeRepository: tradeRepository,
		messenger:       messenger,
		moderator:       moderator,
		banList:         banList,
		crawlerSvc:      crawlerSvc,
	}
}

// Start runs the crawler and its event loop, subscribes to peer messages and
// resumes confirmation polling for trades loaded from storage.
func (s *tradeService) Start() error {
	go s.crawlerSvc.Start()
	go s.handleProofEvents()

	if err := s.messenger.SubscribeProtocolMessages(s.onProtocolMessage); err != nil {
		return fmt.Errorf("subscribing protocol messages: %w", err)
	}

	trades, err := s.tradeRepository.GetAllTrades(context.Background())
	if err != nil {
		return fmt.Errorf("loading trades: %w", err)
	}
	for _, trade := range trades {
		if trade.IsAwaitingBtcConfirmation() {
			s.startObserving(trade)
		}
	}

	log.Infof("trade service started with %d stored trades", len(trades))
	return nil
}

// Stop stops all confirmation polling and tears down the messaging
// subscription.
func (s *tradeService) Stop() {
	s.crawlerSvc.Stop()
	s.messenger.Close()
}

func (s *tradeService) TakeOffer(
	ctx context.Context, params TakeOfferParams,
) (*domain.Trade, error) {
	contract := domain.NewContract(
		params.OfferId, params.MakerProfileId, params.TakerProfileId,
		params.BaseMethod, params.QuoteMethod,
		params.BaseAmount, params.QuoteAmount,
	)
	trade := domain.NewTrade(
		params.Role, params.Rail,
		params.BaseAmount, params.QuoteAmount, params.QuoteCurrency,
		params.PeerProfileId, params.PeerAccountData, contract,
	)

	if err := s.tradeRepository.AddTrade(ctx, trade); err != nil {
		return nil, err
	}

	s.sendSystemMessage(trade, fmt.Sprintf(
		"Offer %s taken: %s for %d %s",
		params.OfferId,
		btcutil.Amount(trade.BaseAmount).String(),
		trade.QuoteAmount, trade.QuoteCurrency,
	))

	log.WithField("trade", trade.Id).Infof(
		"trade created as %s on %s rail", trade.Role, trade.Rail,
	)
	return trade, nil
}

func (s *tradeService) GetTrade(
	ctx context.Context, tradeId string,
) (*domain.Trade, error) {
	return s.tradeRepository.GetTrade(ctx, tradeId)
}

func (s *tradeService) ListTrades(ctx context.Context) ([]*domain.Trade, error) {
	return s.tradeRepository.GetAllTrades(ctx)
}

func (s *tradeService) BuyerSendBtcAddress(
	ctx context.Context, tradeId, address string,
) error {
	trade, changed, err := s.applyLocked(ctx, tradeId,
		func(t *domain.Trade) (bool, error) {
			return t.ProvideAddress(address)
		},
	)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	msg := domain.NewProtocolMessage(tradeId, trade.Role, domain.MsgBtcAddressProvided)
	msg.BtcAddress = address
	s.sendProtocolMessage(trade, msg)
	s.sendTradeLog(trade, "Buyer provided the BTC address "+address)
	return nil
}

func (s *tradeService) BuyerConfirmFiatSent(
	ctx context.Context, tradeId string,
) error {
	trade, changed, err := s.applyLocked(ctx, tradeId,
		func(t *domain.Trade) (bool, error) {
			return t.StartFiatSent()
		},
	)
	if err != nil {
		return err
	}
	// A retry that already passed the ban-check status must run the check
	// again instead of returning early.
	if !changed && trade.Status.Code != domain.TradeStatusCodeFiatSentPendingBanCheck {
		return nil
	}

	// Safety rail: a seller with banned account data never receives the fiat
	// confirmation, the trade is cancelled and the profile reported instead.
	if s.banList.IsBanned(trade.PeerAccountData) {
		return s.cancelBannedTrade(ctx, trade)
	}

	trade, _, err = s.applyLocked(ctx, tradeId,
		func(t *domain.Trade) (bool, error) {
			return t.ConfirmFiatSent()
		},
	)
	if err != nil {
		return err
	}

	msg := domain.NewProtocolMessage(tradeId, trade.Role, domain.MsgFiatSent)
	s.sendProtocolMessage(trade, msg)
	s.sendTradeLog(trade, fmt.Sprintf(
		"Buyer sent %d %s", trade.QuoteAmount, trade.QuoteCurrency,
	))
	return nil
}

func (s *tradeService) SellerConfirmFiatReceipt(
	ctx context.Context, tradeId string,
) error {
	trade, changed, err := s.applyLocked(ctx, tradeId,
		func(t *domain.Trade) (bool, error) {
			return t.ConfirmFiatReceipt()
		},
	)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	msg := domain.NewProtocolMessage(tradeId, trade.Role, domain.MsgFiatReceiptConfirmed)
	s.sendProtocolMessage(trade, msg)
	s.sendTradeLog(trade, "Seller confirmed the fiat receipt")
	return nil
}

func (s *tradeService) SellerConfirmBtcSent(
	ctx context.Context, tradeId, paymentProof string,
) error {
	trade, changed, err := s.applyLocked(ctx, tradeId,
		func(t *domain.Trade) (bool, error) {
			return t.ConfirmBtcSent(paymentProof)
		},
	)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	msg := domain.NewProtocolMessage(tradeId, trade.Role, domain.MsgBtcSent)
	msg.PaymentProof = paymentProof
	s.sendProtocolMessage(trade, msg)
	s.sendTradeLog(trade, "Seller sent the BTC, payment proof: "+paymentProof)

	s.startObserving(trade)
	return nil
}

func (s *tradeService) CompleteTrade(
	ctx context.Context, tradeId string, acknowledgeMismatch bool,
) error {
	trade, changed, err := s.applyLocked(ctx, tradeId,
		func(t *domain.Trade) (bool, error) {
			return t.Complete(acknowledgeMismatch)
		},
	)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	s.stopObserving(trade)
	s.sendSystemMessage(trade, "Trade completed")
	return nil
}

func (s *tradeService) CancelTrade(
	ctx context.Context, tradeId, reason string,
) error {
	trade, changed, err := s.applyLocked(ctx, tradeId,
		func(t *domain.Trade) (bool, error) {
			return t.Cancel(reason)
		},
	)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	s.stopObserving(trade)

	msg := domain.NewProtocolMessage(tradeId, trade.Role, domain.MsgTradeCancelled)
	msg.Reason = reason
	s.sendProtocolMessage(trade, msg)
	s.sendSystemMessage(trade, "Trade cancelled: "+reason)
	return nil
}

func (s *tradeService) RemoveTrade(ctx context.Context, tradeId string) error {
	unlock := s.lockTrade(tradeId)
	defer unlock()

	trade, err := s.tradeRepository.GetTrade(ctx, tradeId)
	if err != nil {
		return err
	}
	if trade == nil {
		return ErrTradeNotFound
	}
	if !trade.IsTerminal() {
		return ErrTradeNotRemovable
	}

	s.stopObserving(trade)
	return s.tradeRepository.DeleteTrade(ctx, tradeId)
}

// cancelBannedTrade force-cancels a trade whose counterparty matched the ban
// list and reports the profile. Failing to report never resurrects the
// trade.
func (s *tradeService) cancelBannedTrade(
	ctx context.Context, trade *domain.Trade,
) error {
	const reason = "banned payment account data detected"

	trade, _, err := s.applyLocked(ctx, trade.Id,
		func(t *domain.Trade) (bool, error) {
			return t.Cancel(reason)
		},
	)
	if err != nil {
		return err
	}

	msg := domain.NewProtocolMessage(trade.Id, trade.Role, domain.MsgTradeCancelled)
	msg.Reason = reason
	s.sendProtocolMessage(trade, msg)
	s.sendSystemMessage(trade, "Trade cancelled: "+reason)

	if err := s.moderator.ReportUserProfile(
		trade.PeerProfileId,
		fmt.Sprintf("banned account data used in trade %s", trade.Id),
	); err != nil {
		log.WithError(err).WithField("trade", trade.Id).Warn(
			"failed to report banned counterparty",
		)
	}

	return ErrBannedCounterparty
}

// applyLocked runs a single state transition under the trade's lock and
// reports whether the trade actually changed, so that duplicate requests
// don't re-emit protocol messages. Messages are sent by the callers after
// the lock is released, a handler delivering synchronously to the peer
// must never run while a trade lock is held.
func (s *tradeService) applyLocked(
	ctx context.Context, tradeId string,
	transition func(t *domain.Trade) (bool, error),
) (*domain.Trade, bool, error) {
	unlock := s.lockTrade(tradeId)
	defer unlock()

	return s.applyTransition(ctx, tradeId, transition)
}

// applyTransition is applyLocked without the locking, for callers already
// holding the trade's lock.
func (s *tradeService) applyTransition(
	ctx context.Context, tradeId string,
	transition func(t *domain.Trade) (bool, error),
) (*domain.Trade, bool, error) {
	trade, err := s.tradeRepository.GetTrade(ctx, tradeId)
	if err != nil {
		return nil, false, err
	}
	if trade == nil {
		return nil, false, ErrTradeNotFound
	}

	var updated *domain.Trade
	var changed bool

	if err := s.tradeRepository.UpdateTrade(ctx, tradeId,
		func(t *domain.Trade) (*domain.Trade, error) {
			statusBefore := t.Status
			if _, err := transition(t); err != nil {
				return nil, err
			}
			changed = t.Status != statusBefore
			updated = t
			return t, nil
		},
	); err != nil {
		return nil, false, err
	}

	return updated, changed, nil
}

func (s *tradeService) lockTrade(tradeId string) func() {
	value, _ := s.locks.LoadOrStore(tradeId, &sync.Mutex{})
	lock := value.(*sync.Mutex)
	lock.Lock()
	return lock.Unlock
}

func (s *tradeService) startObserving(trade *domain.Trade) {
	if len(trade.PaymentProof) <= 0 {
		return
	}
	s.crawlerSvc.AddObservable(&crawler.ProofObservable{
		TradeId: trade.Id,
		Proof: verifier.Proof{
			Value:         trade.PaymentProof,
			Rail:          trade.Rail,
			Destination:   trade.BtcAddress,
			ExpectedValue: trade.BaseAmount,
		},
	})
}

func (s *tradeService) stopObserving(trade *domain.Trade) {
	if len(trade.PaymentProof) <= 0 {
		return
	}
	s.crawlerSvc.RemoveObservable(&crawler.ProofObservable{
		TradeId: trade.Id,
		Proof:   verifier.Proof{Value: trade.PaymentProof},
	})
}

func (s *tradeService) sendProtocolMessage(
	trade *domain.Trade, msg domain.ProtocolMessage,
) {
	if err := s.messenger.SendProtocolMessage(msg); err != nil {
		log.WithError(err).WithField("trade", trade.Id).Warnf(
			"failed to deliver %s message", msg.Type,
		)
	}
}

func (s *tradeService) sendTradeLog(trade *domain.Trade, text string) {
	if err := s.messenger.SendTradeLogMessage(text, trade.Id); err != nil {
		log.WithError(err).WithField("trade", trade.Id).Warn(
			"failed to deliver trade log message",
		)
	}
}

func (s *tradeService) sendSystemMessage(trade *domain.Trade, text string) {
	if err := s.messenger.SendSystemMessage(text, trade.Id); err != nil {
		log.WithError(err).WithField("trade", trade.Id).Warn(
			"failed to deliver system message",
		)
	}
}
