package loopback

import (
	"sync"

	"github.com/bisq-network/bisqeasyd/internal/core/domain"
	"github.com/bisq-network/bisqeasyd/internal/core/ports"
)

// Bus connects messengers living in the same process. Delivery is
// synchronous and in publish order, which makes it handy for tests and for
// running both sides of a trade locally. A message is never delivered back
// to the messenger that published it.
type Bus struct {
	mtx        sync.Mutex
	messengers []*messenger
	chatLog    map[string][]string
	reports    []Report
}

// Report is a recorded moderation report.
type Report struct {
	ProfileId string
	Message   string
}

// NewBus returns an empty in-process message bus.
func NewBus() *Bus {
	return &Bus{chatLog: map[string][]string{}}
}

// ChatMessages returns the chat messages recorded for a channel.
func (b *Bus) ChatMessages(channel string) []string {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return append([]string{}, b.chatLog[channel]...)
}

// Reports returns the recorded moderation reports.
func (b *Bus) Reports() []Report {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return append([]Report{}, b.reports...)
}

// NewMessenger returns a messenger attached to the bus.
func (b *Bus) NewMessenger() ports.Messenger {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	m := &messenger{bus: b}
	b.messengers = append(b.messengers, m)
	return m
}

// NewModerator returns a moderator recording reports on the bus.
func (b *Bus) NewModerator() ports.Moderator {
	return &moderator{bus: b}
}

type messenger struct {
	bus     *Bus
	handler func(msg domain.ProtocolMessage)
}

func (m *messenger) SendProtocolMessage(msg domain.ProtocolMessage) error {
	m.bus.mtx.Lock()
	peers := make([]*messenger, 0, len(m.bus.messengers))
	for _, peer := range m.bus.messengers {
		if peer != m && peer.handler != nil {
			peers = append(peers, peer)
		}
	}
	m.bus.mtx.Unlock()

	for _, peer := range peers {
		peer.handler(msg)
	}
	return nil
}

func (m *messenger) SendSystemMessage(text, channel string) error {
	m.bus.mtx.Lock()
	defer m.bus.mtx.Unlock()
	m.bus.chatLog[channel] = append(m.bus.chatLog[channel], text)
	return nil
}

func (m *messenger) SendTradeLogMessage(encodedText, channel string) error {
	return m.SendSystemMessage(encodedText, channel)
}

func (m *messenger) SubscribeProtocolMessages(
	handler func(msg domain.ProtocolMessage),
) error {
	m.bus.mtx.Lock()
	defer m.bus.mtx.Unlock()
	m.handler = handler
	return nil
}

func (m *messenger) Close() {}

type moderator struct {
	bus *Bus
}

func (m *moderator) ReportUserProfile(profileId, message string) error {
	m.bus.mtx.Lock()
	defer m.bus.mtx.Unlock()
	m.bus.reports = append(m.bus.reports, Report{profileId, message})
	return nil
}
