package inmemory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bisq-network/bisqeasyd/internal/core/domain"
	"github.com/bisq-network/bisqeasyd/internal/infrastructure/storage/db/inmemory"
)

func TestTradeRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := inmemory.NewTradeRepositoryImpl(inmemory.NewTradeStore())

	trade := newTestTrade()
	require.NoError(t, repo.AddTrade(ctx, trade))

	stored, err := repo.GetTrade(ctx, trade.Id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, trade, stored)

	// adding the same trade twice must fail
	require.Error(t, repo.AddTrade(ctx, trade))
}

func TestGetTradeNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := inmemory.NewTradeRepositoryImpl(inmemory.NewTradeStore())

	trade, err := repo.GetTrade(ctx, "unknown")
	require.NoError(t, err)
	require.Nil(t, trade)
}

func TestStoredTradeIsIsolatedFromCaller(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := inmemory.NewTradeRepositoryImpl(inmemory.NewTradeStore())

	trade := newTestTrade()
	require.NoError(t, repo.AddTrade(ctx, trade))

	// mutating the trade returned by a read must not leak into the store
	read, err := repo.GetTrade(ctx, trade.Id)
	require.NoError(t, err)
	read.Status = domain.CancelledStatus

	stored, err := repo.GetTrade(ctx, trade.Id)
	require.NoError(t, err)
	require.Equal(t, trade.Status, stored.Status)
}

func TestUpdateTrade(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := inmemory.NewTradeRepositoryImpl(inmemory.NewTradeStore())

	trade := newTestTrade()
	require.NoError(t, repo.AddTrade(ctx, trade))

	err := repo.UpdateTrade(ctx, trade.Id, func(t *domain.Trade) (*domain.Trade, error) {
		if _, err := t.ProvideAddress("bc1qsomeaddress"); err != nil {
			return nil, err
		}
		return t, nil
	})
	require.NoError(t, err)

	stored, err := repo.GetTrade(ctx, trade.Id)
	require.NoError(t, err)
	require.Equal(t, domain.TradeStatusCodeAddressProvided, stored.Status.Code)
	require.Equal(t, "bc1qsomeaddress", stored.BtcAddress)
}

func TestUpdateTradeRollsBackOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := inmemory.NewTradeRepositoryImpl(inmemory.NewTradeStore())

	trade := newTestTrade()
	require.NoError(t, repo.AddTrade(ctx, trade))

	// the seller action is invalid for a buyer trade, nothing must be stored
	err := repo.UpdateTrade(ctx, trade.Id, func(t *domain.Trade) (*domain.Trade, error) {
		if _, err := t.ConfirmFiatReceipt(); err != nil {
			return nil, err
		}
		return t, nil
	})
	require.ErrorIs(t, err, domain.ErrInvalidRole)

	stored, err := repo.GetTrade(ctx, trade.Id)
	require.NoError(t, err)
	require.Equal(t, trade.Status, stored.Status)
}

func TestGetTradeByPaymentProof(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := inmemory.NewTradeRepositoryImpl(inmemory.NewTradeStore())

	trade := newTestSellerTradeWithProof("deadbeef")
	require.NoError(t, repo.AddTrade(ctx, trade))

	found, err := repo.GetTradeByPaymentProof(ctx, "deadbeef")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, trade.Id, found.Id)

	missing, err := repo.GetTradeByPaymentProof(ctx, "cafebabe")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestDeleteTrade(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := inmemory.NewTradeRepositoryImpl(inmemory.NewTradeStore())

	trade := newTestTrade()
	require.NoError(t, repo.AddTrade(ctx, trade))
	require.NoError(t, repo.DeleteTrade(ctx, trade.Id))

	stored, err := repo.GetTrade(ctx, trade.Id)
	require.NoError(t, err)
	require.Nil(t, stored)

	trades, err := repo.GetAllTrades(ctx)
	require.NoError(t, err)
	require.Empty(t, trades)
}

func newTestTrade() *domain.Trade {
	contract := domain.NewContract(
		"offer-1", "maker-profile", "taker-profile",
		"BTC_MAINCHAIN", "SEPA", 1000000, 650,
	)
	return domain.NewTrade(
		domain.RoleBuyer, domain.RailMainChain, 1000000, 650, "EUR",
		"peer-profile", "IBAN DE00 0000", contract,
	)
}

func newTestSellerTradeWithProof(proof string) *domain.Trade {
	contract := domain.NewContract(
		"offer-2", "maker-profile", "taker-profile",
		"BTC_MAINCHAIN", "SEPA", 1000000, 650,
	)
	trade := domain.NewTrade(
		domain.RoleSeller, domain.RailMainChain, 1000000, 650, "EUR",
		"peer-profile", "IBAN DE00 0000", contract,
	)
	trade.PaymentProof = proof
	return trade
}
