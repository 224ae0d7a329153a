package application

import "errors"

var (
	// ErrTradeNotFound ...
	ErrTradeNotFound = errors.New("trade not found")
	// ErrBannedCounterparty is returned when the seller's payment account
	// data matches the moderation blocklist. The trade is cancelled
	// automatically, this is not user-overridable.
	ErrBannedCounterparty = errors.New("counterparty account data is banned")
	// ErrTradeNotRemovable is returned when removing a trade that did not
	// reach a terminal status yet.
	ErrTradeNotRemovable = errors.New("only completed, cancelled or failed trades can be removed")
)
