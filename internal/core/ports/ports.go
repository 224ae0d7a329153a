package ports

import (
	"github.com/bisq-network/bisqeasyd/internal/core/domain"
)

// Messenger is the boundary towards the chat system used to exchange
// protocol messages and human-readable trade log entries with the peer.
// Delivery is at-least-once with ordering preserved per channel.
type Messenger interface {
	// SendSystemMessage delivers an informational chat message to the open
	// trade channel. Fire-and-forget.
	SendSystemMessage(text, channel string) error
	// SendTradeLogMessage delivers an encoded trade log entry to the trade
	// channel. Fire-and-forget.
	SendTradeLogMessage(encodedText, channel string) error
	// SendProtocolMessage delivers a protocol message to the peer.
	SendProtocolMessage(msg domain.ProtocolMessage) error
	// SubscribeProtocolMessages registers the handler invoked for every
	// protocol message received from peers.
	SubscribeProtocolMessages(handler func(msg domain.ProtocolMessage)) error
	// Close tears down the underlying connection.
	Close()
}

// Moderator is the boundary towards the moderation service used to report
// counterparties with banned account data. Fire-and-forget.
type Moderator interface {
	ReportUserProfile(profileId, message string) error
}

// BanList answers whether some payment account data belongs to the
// moderation blocklist of known-fraudulent identifiers.
type BanList interface {
	IsBanned(accountData string) bool
}
