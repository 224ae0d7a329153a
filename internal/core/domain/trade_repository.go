package domain

import "context"

// TradeRepository is the abstraction for any kind of database intended to
// persist Trades. Trades survive process restarts and are removed only when
// the user explicitly closes a terminal trade.
type TradeRepository interface {
	// AddTrade persists a newly created trade.
	AddTrade(ctx context.Context, trade *Trade) error
	// GetTrade returns the trade with the given id.
	GetTrade(ctx context.Context, tradeId string) (*Trade, error)
	// GetAllTrades returns all the trades stored in the repository.
	GetAllTrades(ctx context.Context) ([]*Trade, error)
	// GetTradeByPaymentProof returns the trade whose payment proof matches
	// the given value.
	GetTradeByPaymentProof(ctx context.Context, paymentProof string) (*Trade, error)
	// UpdateTrade allows to commit multiple changes to the same trade in a
	// transactional way.
	UpdateTrade(
		ctx context.Context,
		tradeId string,
		updateFn func(t *Trade) (*Trade, error),
	) error
	// DeleteTrade removes the trade with the given id from the repository.
	DeleteTrade(ctx context.Context, tradeId string) error
}
