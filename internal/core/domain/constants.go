package domain

// Role identifies the side a party takes in a trade. It is set when the
// trade is created and never changes afterwards.
type Role string

const (
	RoleBuyer  Role = "BUYER"
	RoleSeller Role = "SELLER"
)

// SettlementRail is the BTC transport mechanism agreed in the contract.
type SettlementRail string

const (
	RailMainChain SettlementRail = "MAIN_CHAIN"
	RailLightning SettlementRail = "LIGHTNING"
)

// Status codes of a trade. Codes grow monotonically along each role's path
// so that re-applying a past transition can be detected with a simple
// comparison. The lightning rail has no address exchange, its graph goes
// straight from Init to the fiat leg.
const (
	TradeStatusCodeInit                            = 0
	TradeStatusCodeAddressRequested                = 10
	TradeStatusCodeAwaitingFiatSent                = 15
	TradeStatusCodeAddressProvided                 = 20
	TradeStatusCodeFiatSentPendingBanCheck         = 30
	TradeStatusCodeFiatSent                        = 40
	TradeStatusCodeAwaitingFiatReceiptConfirmation = 50
	TradeStatusCodeFiatReceiptConfirmed            = 55
	TradeStatusCodeBtcSent                         = 60
	TradeStatusCodeAwaitingBtcConfirmation         = 70
	TradeStatusCodeBtcConfirmed                    = 80
	TradeStatusCodeCompleted                       = 90
	TradeStatusCodeCancelled                       = 100
	TradeStatusCodeFailed                          = 110
)
