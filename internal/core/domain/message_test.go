package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bisq-network/bisqeasyd/internal/core/domain"
)

func TestApplyMessage(t *testing.T) {
	t.Parallel()

	seller := newTrade(domain.RoleSeller, domain.RailMainChain)

	msg := domain.NewProtocolMessage(seller.Id, domain.RoleBuyer, domain.MsgBtcAddressProvided)
	msg.BtcAddress = testAddress

	ok, err := domain.ApplyMessage(seller, msg)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.TradeStatusCodeAwaitingFiatSent, seller.Status.Code)
	require.Equal(t, testAddress, seller.BtcAddress)
}

func TestApplyMessageDuplicateIsNoOp(t *testing.T) {
	t.Parallel()

	seller := newTrade(domain.RoleSeller, domain.RailMainChain)

	msg := domain.NewProtocolMessage(seller.Id, domain.RoleBuyer, domain.MsgBtcAddressProvided)
	msg.BtcAddress = testAddress

	ok, err := domain.ApplyMessage(seller, msg)
	require.NoError(t, err)
	require.True(t, ok)

	logBefore := len(seller.Log)

	// redelivery of the same message must not change anything
	ok, err = domain.ApplyMessage(seller, msg)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.TradeStatusCodeAwaitingFiatSent, seller.Status.Code)
	require.Len(t, seller.Log, logBefore)
}

func TestApplyMessageSkippingStepsRejected(t *testing.T) {
	t.Parallel()

	seller := newTrade(domain.RoleSeller, domain.RailMainChain)

	// FiatSent before the address exchange skips a protocol step
	msg := domain.NewProtocolMessage(seller.Id, domain.RoleBuyer, domain.MsgFiatSent)

	statusBefore := seller.Status
	ok, err := domain.ApplyMessage(seller, msg)
	require.ErrorIs(t, err, domain.ErrIllegalTransition)
	require.False(t, ok)
	require.Equal(t, statusBefore, seller.Status)
}

func TestApplyMessageRejectsWrongTradeAndSelf(t *testing.T) {
	t.Parallel()

	seller := newTrade(domain.RoleSeller, domain.RailMainChain)

	wrongTrade := domain.NewProtocolMessage(
		"another-trade", domain.RoleBuyer, domain.MsgFiatSent,
	)
	_, err := domain.ApplyMessage(seller, wrongTrade)
	require.ErrorIs(t, err, domain.ErrMessageTradeMismatch)

	fromSelf := domain.NewProtocolMessage(seller.Id, domain.RoleSeller, domain.MsgFiatSent)
	_, err = domain.ApplyMessage(seller, fromSelf)
	require.ErrorIs(t, err, domain.ErrMessageFromSelf)
}

func TestApplyMessageUnknownType(t *testing.T) {
	t.Parallel()

	seller := newTrade(domain.RoleSeller, domain.RailMainChain)

	msg := domain.NewProtocolMessage(seller.Id, domain.RoleBuyer, "BOGUS")
	_, err := domain.ApplyMessage(seller, msg)
	require.ErrorIs(t, err, domain.ErrUnknownMessageType)
}

func TestApplyCancelMessage(t *testing.T) {
	t.Parallel()

	seller := newSellerAwaitingFiat()

	msg := domain.NewProtocolMessage(seller.Id, domain.RoleBuyer, domain.MsgTradeCancelled)
	msg.Reason = "found a better offer"

	ok, err := domain.ApplyMessage(seller, msg)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, seller.IsCancelled())
	require.Equal(t, "found a better offer", seller.CancelReason)
}
