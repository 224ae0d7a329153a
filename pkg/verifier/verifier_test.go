package verifier_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bisq-network/bisqeasyd/internal/core/domain"
	"github.com/bisq-network/bisqeasyd/pkg/explorer"
	"github.com/bisq-network/bisqeasyd/pkg/verifier"
)

const (
	testTxid     = "aa00000000000000000000000000000000000000000000000000000000000000"
	testAddress  = "bc1qdestination"
	otherAddress = "bc1qchange"
)

func TestStatusConfirmedSingleOutput(t *testing.T) {
	t.Parallel()

	explorerSvc := &stubExplorer{
		txs: map[string]*explorer.Tx{
			testTxid: {
				Txid:      testTxid,
				Confirmed: true,
				Outputs: []explorer.TxOutput{
					{Address: otherAddress, Value: 42},
					{Address: testAddress, Value: 1000000},
				},
			},
		},
	}
	verifierSvc := verifier.NewService(explorerSvc)

	status := verifierSvc.Status(context.Background(), newProof(1000000))
	require.Equal(t, verifier.StateConfirmed, status.State)
	require.Equal(t, uint64(1000000), status.OutputValue)
	require.False(t, status.AmountMismatch)
}

func TestStatusConfirmedWithAmountMismatch(t *testing.T) {
	t.Parallel()

	explorerSvc := &stubExplorer{
		txs: map[string]*explorer.Tx{
			testTxid: {
				Txid:      testTxid,
				Confirmed: true,
				Outputs:   []explorer.TxOutput{{Address: testAddress, Value: 999000}},
			},
		},
	}
	verifierSvc := verifier.NewService(explorerSvc)

	status := verifierSvc.Status(context.Background(), newProof(1000000))
	require.Equal(t, verifier.StateConfirmed, status.State)
	require.Equal(t, uint64(999000), status.OutputValue)
	require.True(t, status.AmountMismatch)
}

func TestStatusAmbiguousOutputMatching(t *testing.T) {
	tests := []struct {
		name           string
		outputs        []explorer.TxOutput
		expectedReason string
	}{
		{
			name:           "no_output_for_address",
			outputs:        []explorer.TxOutput{{Address: otherAddress, Value: 1000000}},
			expectedReason: verifier.ReasonNoOutputForAddress,
		},
		{
			name: "multiple_outputs_for_address",
			outputs: []explorer.TxOutput{
				{Address: testAddress, Value: 500000},
				{Address: testAddress, Value: 500000},
			},
			expectedReason: verifier.ReasonMultipleOutputsForAddress,
		},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			explorerSvc := &stubExplorer{
				txs: map[string]*explorer.Tx{
					testTxid: {Txid: testTxid, Confirmed: true, Outputs: tt.outputs},
				},
			}
			verifierSvc := verifier.NewService(explorerSvc)

			status := verifierSvc.Status(context.Background(), newProof(1000000))
			require.Equal(t, verifier.StateFailed, status.State)
			require.Equal(t, tt.expectedReason, status.Reason)
		})
	}
}

func TestStatusPendingAndInMempool(t *testing.T) {
	t.Parallel()

	explorerSvc := &stubExplorer{txs: map[string]*explorer.Tx{}}
	verifierSvc := verifier.NewService(explorerSvc)

	// unknown to the explorer
	status := verifierSvc.Status(context.Background(), newProof(1000000))
	require.Equal(t, verifier.StatePending, status.State)

	// visible but unconfirmed
	explorerSvc.setTx(&explorer.Tx{
		Txid:      testTxid,
		Confirmed: false,
		Outputs:   []explorer.TxOutput{{Address: testAddress, Value: 1000000}},
	})
	status = verifierSvc.Status(context.Background(), newProof(1000000))
	require.Equal(t, verifier.StateInMempool, status.State)
	require.Equal(t, uint64(1000000), status.OutputValue)
}

func TestStatusLightningConfirmedOnReport(t *testing.T) {
	t.Parallel()

	explorerSvc := &stubExplorer{txs: map[string]*explorer.Tx{}}
	verifierSvc := verifier.NewService(explorerSvc)

	proof := verifier.Proof{
		Value:         "preimage-0011",
		Rail:          domain.RailLightning,
		ExpectedValue: 1000000,
	}
	status := verifierSvc.Status(context.Background(), proof)
	require.Equal(t, verifier.StateConfirmed, status.State)
	require.Equal(t, uint64(1000000), status.OutputValue)
	require.False(t, status.AmountMismatch)

	// the explorer is never involved on lightning
	require.Zero(t, explorerSvc.callCount())
}

func TestConfirmedStatusIsCached(t *testing.T) {
	t.Parallel()

	explorerSvc := &stubExplorer{
		txs: map[string]*explorer.Tx{
			testTxid: {
				Txid:      testTxid,
				Confirmed: true,
				Outputs:   []explorer.TxOutput{{Address: testAddress, Value: 1000000}},
			},
		},
	}
	verifierSvc := verifier.NewService(explorerSvc)

	first := verifierSvc.Status(context.Background(), newProof(1000000))
	require.Equal(t, verifier.StateConfirmed, first.State)
	require.Equal(t, 1, explorerSvc.callCount())

	second := verifierSvc.Status(context.Background(), newProof(1000000))
	require.Equal(t, first, second)
	require.Equal(t, 1, explorerSvc.callCount())
}

func TestPendingStatusIsNotCached(t *testing.T) {
	t.Parallel()

	explorerSvc := &stubExplorer{txs: map[string]*explorer.Tx{}}
	verifierSvc := verifier.NewService(explorerSvc)

	status := verifierSvc.Status(context.Background(), newProof(1000000))
	require.Equal(t, verifier.StatePending, status.State)

	// once the tx confirms, the next poll must pick it up
	explorerSvc.setTx(&explorer.Tx{
		Txid:      testTxid,
		Confirmed: true,
		Outputs:   []explorer.TxOutput{{Address: testAddress, Value: 1000000}},
	})
	status = verifierSvc.Status(context.Background(), newProof(1000000))
	require.Equal(t, verifier.StateConfirmed, status.State)
	require.Equal(t, 2, explorerSvc.callCount())
}

func TestStatusExplorerFailure(t *testing.T) {
	t.Parallel()

	explorerSvc := &stubExplorer{err: errors.New("explorer is down")}
	verifierSvc := verifier.NewService(explorerSvc)

	status := verifierSvc.Status(context.Background(), newProof(1000000))
	require.Equal(t, verifier.StateFailed, status.State)
	require.Equal(t, "explorer is down", status.Reason)
}

func TestRequestStatus(t *testing.T) {
	t.Parallel()

	explorerSvc := &stubExplorer{
		txs: map[string]*explorer.Tx{
			testTxid: {
				Txid:      testTxid,
				Confirmed: true,
				Outputs:   []explorer.TxOutput{{Address: testAddress, Value: 1000000}},
			},
		},
	}
	verifierSvc := verifier.NewService(explorerSvc)

	status := <-verifierSvc.RequestStatus(context.Background(), newProof(1000000))
	require.Equal(t, verifier.StateConfirmed, status.State)
}

func newProof(expectedValue uint64) verifier.Proof {
	return verifier.Proof{
		Value:         testTxid,
		Rail:          domain.RailMainChain,
		Destination:   testAddress,
		ExpectedValue: expectedValue,
	}
}

type stubExplorer struct {
	mtx   sync.Mutex
	txs   map[string]*explorer.Tx
	err   error
	calls int
}

func (s *stubExplorer) GetTransaction(txid string) (*explorer.Tx, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	tx, ok := s.txs[txid]
	if !ok {
		return nil, explorer.ErrTransactionNotFound
	}
	return tx, nil
}

func (s *stubExplorer) setTx(tx *explorer.Tx) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.txs[tx.Txid] = tx
}

func (s *stubExplorer) callCount() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.calls
}
