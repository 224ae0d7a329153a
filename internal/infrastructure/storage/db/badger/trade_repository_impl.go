package dbbadger

import (
	"context"
	"errors"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bisq-network/bisqeasyd/internal/core/domain"
)

type tradeRepositoryImpl struct {
	db *DbManager
}

// NewTradeRepositoryImpl returns a badger-backed TradeRepository.
func NewTradeRepositoryImpl(db *DbManager) domain.TradeRepository {
	return tradeRepositoryImpl{db: db}
}

func (t tradeRepositoryImpl) AddTrade(
	_ context.Context, trade *domain.Trade,
) error {
	if err := t.db.Store.Insert(trade.Id, *trade); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return errors.New("trade already exists")
		}
		return err
	}
	return nil
}

func (t tradeRepositoryImpl) GetTrade(
	_ context.Context, tradeId string,
) (*domain.Trade, error) {
	return t.getTrade(tradeId)
}

func (t tradeRepositoryImpl) GetAllTrades(
	_ context.Context,
) ([]*domain.Trade, error) {
	var tr []domain.Trade
	if err := t.db.Store.Find(&tr, nil); err != nil {
		return nil, err
	}

	trades := make([]*domain.Trade, 0, len(tr))
	for i := range tr {
		trades = append(trades, &tr[i])
	}
	return trades, nil
}

func (t tradeRepositoryImpl) GetTradeByPaymentProof(
	_ context.Context, paymentProof string,
) (*domain.Trade, error) {
	query := badgerhold.Where("PaymentProof").Eq(paymentProof)

	var trades []domain.Trade
	if err := t.db.Store.Find(&trades, query); err != nil {
		return nil, err
	}
	if len(trades) <= 0 {
		return nil, nil
	}

	return &trades[0], nil
}

func (t tradeRepositoryImpl) UpdateTrade(
	ctx context.Context,
	tradeId string,
	updateFn func(t *domain.Trade) (*domain.Trade, error),
) error {
	currentTrade, err := t.getTrade(tradeId)
	if err != nil {
		return err
	}
	if currentTrade == nil {
		return errors.New("trade not found")
	}

	updatedTrade, err := updateFn(currentTrade)
	if err != nil {
		return err
	}

	return t.db.Store.Update(updatedTrade.Id, *updatedTrade)
}

func (t tradeRepositoryImpl) DeleteTrade(
	_ context.Context, tradeId string,
) error {
	return t.db.Store.Delete(tradeId, domain.Trade{})
}

func (t tradeRepositoryImpl) getTrade(tradeId string) (*domain.Trade, error) {
	var trade domain.Trade
	if err := t.db.Store.Get(tradeId, &trade); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trade, nil
}
