package inmemory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/bisq-network/bisqeasyd/internal/core/domain"
)

type tradeInmemoryStore struct {
	trades map[string]domain.Trade
	locker *sync.Mutex
}

// NewTradeStore returns the in-memory store backing the inmemory
// TradeRepository implementation.
func NewTradeStore() *tradeInmemoryStore {
	return &tradeInmemoryStore{
		trades: map[string]domain.Trade{},
		locker: &sync.Mutex{},
	}
}

type tradeRepositoryImpl struct {
	store *tradeInmemoryStore
}

// NewTradeRepositoryImpl returns a new inmemory TradeRepository
// implementation.
func NewTradeRepositoryImpl(store *tradeInmemoryStore) domain.TradeRepository {
	return &tradeRepositoryImpl{store}
}

func (r tradeRepositoryImpl) AddTrade(
	_ context.Context, trade *domain.Trade,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if _, ok := r.store.trades[trade.Id]; ok {
		return errors.New("trade already exists")
	}

	copied, err := copyTrade(trade)
	if err != nil {
		return err
	}
	r.store.trades[trade.Id] = *copied
	return nil
}

func (r tradeRepositoryImpl) GetTrade(
	_ context.Context, tradeId string,
) (*domain.Trade, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	return r.getTrade(tradeId)
}

func (r tradeRepositoryImpl) GetAllTrades(
	_ context.Context,
) ([]*domain.Trade, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	trades := make([]*domain.Trade, 0, len(r.store.trades))
	for id := range r.store.trades {
		trade, err := r.getTrade(id)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

func (r tradeRepositoryImpl) GetTradeByPaymentProof(
	_ context.Context, paymentProof string,
) (*domain.Trade, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	for id, trade := range r.store.trades {
		if trade.PaymentProof == paymentProof {
			return r.getTrade(id)
		}
	}
	return nil, nil
}

func (r tradeRepositoryImpl) UpdateTrade(
	_ context.Context,
	tradeId string,
	updateFn func(t *domain.Trade) (*domain.Trade, error),
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	currentTrade, err := r.getTrade(tradeId)
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

	r.store.trades[tradeId] = *updatedTrade
	return nil
}

func (r tradeRepositoryImpl) DeleteTrade(
	_ context.Context, tradeId string,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	delete(r.store.trades, tradeId)
	return nil
}

// getTrade returns a deep copy so that callers never mutate the stored trade
// outside of UpdateTrade.
func (r tradeRepositoryImpl) getTrade(tradeId string) (*domain.Trade, error) {
	trade, ok := r.store.trades[tradeId]
	if !ok {
		return nil, nil
	}
	return copyTrade(&trade)
}

func copyTrade(trade *domain.Trade) (*domain.Trade, error) {
	buf, err := json.Marshal(trade)
	if err != nil {
		return nil, err
	}
	copied := &domain.Trade{}
	if err := json.Unmarshal(buf, copied); err != nil {
		return nil, err
	}
	return copied, nil
}
