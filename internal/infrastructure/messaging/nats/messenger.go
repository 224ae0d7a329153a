package natsmessenger

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/bisq-network/bisqeasyd/internal/core/domain"
)

const (
	tradeSubjectPrefix = "bisqeasy.trade"
	chatSubjectPrefix  = "bisqeasy.chat"
	moderationSubject  = "bisqeasy.moderation.reports"
)

// Messenger delivers protocol and chat messages over NATS subjects. NATS
// preserves publish order per subject, which satisfies the per-channel
// ordering the protocol relies on. It also implements the moderation
// reporting boundary on a dedicated subject.
type Messenger struct {
	conn *nats.Conn
	sub  *nats.Subscription
}

// NewMessenger connects to the given NATS endpoint.
func NewMessenger(natsURL string) (*Messenger, error) {
	conn, err := nats.Connect(natsURL, nats.Name("bisqeasyd"))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return &Messenger{conn: conn}, nil
}

func (m *Messenger) SendProtocolMessage(msg domain.ProtocolMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("%s.%s", tradeSubjectPrefix, msg.TradeId)
	return m.conn.Publish(subject, payload)
}

func (m *Messenger) SendSystemMessage(text, channel string) error {
	subject := fmt.Sprintf("%s.%s.system", chatSubjectPrefix, channel)
	return m.conn.Publish(subject, []byte(text))
}

func (m *Messenger) SendTradeLogMessage(encodedText, channel string) error {
	subject := fmt.Sprintf("%s.%s.log", chatSubjectPrefix, channel)
	return m.conn.Publish(subject, []byte(encodedText))
}

func (m *Messenger) SubscribeProtocolMessages(
	handler func(msg domain.ProtocolMessage),
) error {
	sub, err := m.conn.Subscribe(
		tradeSubjectPrefix+".>",
		func(natsMsg *nats.Msg) {
			var msg domain.ProtocolMessage
			if err := json.Unmarshal(natsMsg.Data, &msg); err != nil {
				log.WithError(err).Warnf(
					"dropping malformed message on subject %s", natsMsg.Subject,
				)
				return
			}
			handler(msg)
		},
	)
	if err != nil {
		return err
	}
	m.sub = sub
	return nil
}

// ReportUserProfile implements the ports.Moderator interface.
func (m *Messenger) ReportUserProfile(profileId, message string) error {
	payload, err := json.Marshal(map[string]string{
		"profileId": profileId,
		"message":   message,
	})
	if err != nil {
		return err
	}
	return m.conn.Publish(moderationSubject, payload)
}

func (m *Messenger) Close() {
	if m.sub != nil {
		// nolint:errcheck
		m.sub.Unsubscribe()
	}
	if err := m.conn.Drain(); err != nil {
		m.conn.Close()
	}
}
