package domain

import "time"

// MessageType enumerates the protocol messages exchanged between peers.
type MessageType string

const (
	MsgBtcAddressProvided   MessageType = "BTC_ADDRESS_PROVIDED"
	MsgFiatSent             MessageType = "FIAT_SENT"
	MsgFiatReceiptConfirmed MessageType = "FIAT_RECEIPT_CONFIRMED"
	MsgBtcSent              MessageType = "BTC_SENT"
	MsgBtcConfirmed         MessageType = "BTC_CONFIRMED"
	MsgTradeCancelled       MessageType = "TRADE_CANCELLED"
)

// ProtocolMessage is a typed event sent to the peer after a successful local
// transition. Each type maps to exactly one transition rule on the receiving
// role.
type ProtocolMessage struct {
	TradeId        string
	Sender         Role
	Type           MessageType
	BtcAddress     string `json:",omitempty"`
	PaymentProof   string `json:",omitempty"`
	Reason         string `json:",omitempty"`
	OutputValue    uint64 `json:",omitempty"`
	AmountMismatch bool   `json:",omitempty"`
	Timestamp      int64
}

// NewProtocolMessage stamps a message with the local role and current time.
func NewProtocolMessage(tradeId string, sender Role, msgType MessageType) ProtocolMessage {
	return ProtocolMessage{
		TradeId:   tradeId,
		Sender:    sender,
		Type:      msgType,
		Timestamp: time.Now().Unix(),
	}
}

// ApplyMessage applies an incoming peer message to the local trade. A message
// whose transition was already applied is a no-op returning (true, nil),
// while one that would skip protocol steps is rejected with
// ErrIllegalTransition without mutating the trade.
func ApplyMessage(t *Trade, msg ProtocolMessage) (bool, error) {
	if msg.TradeId != t.Id {
		return false, ErrMessageTradeMismatch
	}
	if msg.Sender == t.Role {
		return false, ErrMessageFromSelf
	}

	switch msg.Type {
	case MsgBtcAddressProvided:
		return t.SetAddressProvided(msg.BtcAddress)
	case MsgFiatSent:
		return t.SetFiatSent()
	case MsgFiatReceiptConfirmed:
		return t.SetFiatReceiptConfirmed()
	case MsgBtcSent:
		return t.SetBtcSent(msg.PaymentProof)
	case MsgBtcConfirmed:
		return t.SetBtcConfirmed(msg.OutputValue, msg.AmountMismatch)
	case MsgTradeCancelled:
		return t.Cancel(msg.Reason)
	default:
		return false, ErrUnknownMessageType
	}
}
