package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// InitStatus is the status of a freshly taken lightning trade.
	InitStatus = TradeStatus{Code: TradeStatusCodeInit}
	// AddressRequestedStatus is the initial status of a main-chain trade,
	// waiting for the buyer to provide a BTC address.
	AddressRequestedStatus = TradeStatus{Code: TradeStatusCodeAddressRequested}
	// AwaitingFiatSentStatus is the seller waiting for the buyer to start the
	// fiat payment.
	AwaitingFiatSentStatus = TradeStatus{Code: TradeStatusCodeAwaitingFiatSent}
	// CompletedStatus is the happy-path terminal status.
	CompletedStatus = TradeStatus{Code: TradeStatusCodeCompleted}
	// CancelledStatus is the terminal status of a trade aborted by either
	// party or by the ban safety rail.
	CancelledStatus = TradeStatus{Code: TradeStatusCodeCancelled}
	// FailedStatus is the terminal status of a trade hit by an unrecoverable
	// protocol error.
	FailedStatus = TradeStatus{Code: TradeStatusCodeFailed, Failed: true}
)

// TradeStatus represents the different statuses that a trade can assume.
type TradeStatus struct {
	Code   int
	Failed bool
}

// TradeContract holds the terms both parties agreed to when the offer was
// taken. It is owned by its Trade and never mutated after construction.
type TradeContract struct {
	OfferId        string
	MakerProfileId string
	TakerProfileId string
	BaseMethod     string
	QuoteMethod    string
	Price          string
	TakenAt        int64
}

// LogEntry is one line of the per-trade event log. Entries are append-only
// and written by the state machine on every successful transition.
type LogEntry struct {
	Timestamp int64
	Text      string
}

// Trade is the data structure representing one negotiated exchange instance
// for the local party. Both peers share the same trade id but each owns its
// role-specific copy.
type Trade struct {
	Id               string
	Role             Role
	Rail             SettlementRail
	BaseAmount       uint64
	QuoteAmount      uint64
	QuoteCurrency    string
	Status           TradeStatus
	Contract         TradeContract
	PeerProfileId    string
	PeerAccountData  string
	BtcAddress       string
	PaymentProof     string
	ProofOutputValue uint64
	AmountMismatch   bool
	CancelReason     string
	FailReason       string
	CreationTime     int64
	CompletionTime   int64
	Log              []LogEntry
}

// NewTrade returns a trade with the initial status for the given role and
// settlement rail. The id is derived from the contract so that both peers
// compute the same one without exchanging it.
func NewTrade(
	role Role, rail SettlementRail,
	baseAmount, quoteAmount uint64, quoteCurrency string,
	peerProfileId, peerAccountData string, contract TradeContract,
) *Trade {
	t := &Trade{
		Id:              tradeId(contract),
		Role:            role,
		Rail:            rail,
		BaseAmount:      baseAmount,
		QuoteAmount:     quoteAmount,
		QuoteCurrency:   quoteCurrency,
		Status:          initialStatus(role, rail),
		Contract:        contract,
		PeerProfileId:   peerProfileId,
		PeerAccountData: peerAccountData,
		CreationTime:    time.Now().Unix(),
	}
	t.appendLog("trade created")
	return t
}

// NewContract returns the immutable terms of a taken offer. The price is
// derived from the amounts as quote units per base unit.
func NewContract(
	offerId, makerProfileId, takerProfileId string,
	baseMethod, quoteMethod string,
	baseAmount, quoteAmount uint64,
) TradeContract {
	price := "0"
	if baseAmount > 0 {
		price = decimal.NewFromInt(int64(quoteAmount)).Div(
			decimal.NewFromInt(int64(baseAmount)),
		).Truncate(8).String()
	}
	return TradeContract{
		OfferId:        offerId,
		MakerProfileId: makerProfileId,
		TakerProfileId: takerProfileId,
		BaseMethod:     baseMethod,
		QuoteMethod:    quoteMethod,
		Price:          price,
		TakenAt:        time.Now().Unix(),
	}
}

func tradeId(contract TradeContract) string {
	return uuid.NewSHA1(
		uuid.NameSpaceOID, []byte(contract.OfferId+":"+contract.TakerProfileId),
	).String()
}

func initialStatus(role Role, rail SettlementRail) TradeStatus {
	if rail == RailLightning {
		if role == RoleSeller {
			return AwaitingFiatSentStatus
		}
		return InitStatus
	}
	return AddressRequestedStatus
}
