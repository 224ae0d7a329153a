package crawler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bisq-network/bisqeasyd/internal/core/domain"
	"github.com/bisq-network/bisqeasyd/pkg/crawler"
	"github.com/bisq-network/bisqeasyd/pkg/verifier"
)

func TestCrawlerEmitsProofEvents(t *testing.T) {
	verifierSvc := &stubVerifier{
		status: verifier.ConfirmationStatus{State: verifier.StatePending},
	}
	crawlerSvc := newTestCrawler(verifierSvc)
	go crawlerSvc.Start()

	crawlerSvc.AddObservable(&crawler.ProofObservable{
		TradeId: "trade-1",
		Proof:   proofFixture(),
	})
	require.True(t, crawlerSvc.IsObserving(proofFixture().Value))

	event := nextProofEvent(t, crawlerSvc)
	require.Equal(t, crawler.ProofPending, event.EventType)
	require.Equal(t, "trade-1", event.TradeId)
	require.Equal(t, proofFixture().Value, event.Proof)

	// once the verifier resolves, the next poll reports the confirmation
	verifierSvc.setStatus(verifier.ConfirmationStatus{
		State:       verifier.StateConfirmed,
		OutputValue: 1000000,
	})
	confirmed := false
	for i := 0; i < 100 && !confirmed; i++ {
		event := nextProofEvent(t, crawlerSvc)
		confirmed = event.EventType == crawler.ProofConfirmed
	}
	require.True(t, confirmed)

	crawlerSvc.Stop()
}

func TestCrawlerAddObservableIsIdempotent(t *testing.T) {
	verifierSvc := &stubVerifier{
		status: verifier.ConfirmationStatus{State: verifier.StatePending},
	}
	crawlerSvc := newTestCrawler(verifierSvc)
	go crawlerSvc.Start()

	observable := &crawler.ProofObservable{TradeId: "trade-1", Proof: proofFixture()}
	crawlerSvc.AddObservable(observable)
	crawlerSvc.AddObservable(observable)
	require.True(t, crawlerSvc.IsObserving(observable.Proof.Value))

	crawlerSvc.RemoveObservable(observable)
	require.False(t, crawlerSvc.IsObserving(observable.Proof.Value))

	crawlerSvc.Stop()
}

func TestCrawlerStopEmitsCloseEvent(t *testing.T) {
	verifierSvc := &stubVerifier{
		status: verifier.ConfirmationStatus{State: verifier.StatePending},
	}
	crawlerSvc := newTestCrawler(verifierSvc)
	go crawlerSvc.Start()

	crawlerSvc.Stop()

	select {
	case event := <-crawlerSvc.GetEventChannel():
		require.Equal(t, crawler.CloseSignal, event.Type())
	case <-time.After(3 * time.Second):
		t.Fatal("no close event emitted in time")
	}
}

func newTestCrawler(verifierSvc verifier.Service) crawler.Service {
	return crawler.NewService(crawler.Opts{
		VerifierSvc:    verifierSvc,
		Interval:       20 * time.Millisecond,
		RequestsPerSec: 100,
		ErrorHandler:   func(err error) {},
	})
}

func nextProofEvent(t *testing.T, crawlerSvc crawler.Service) crawler.ProofEvent {
	t.Helper()

	select {
	case event := <-crawlerSvc.GetEventChannel():
		proofEvent, ok := event.(crawler.ProofEvent)
		require.True(t, ok)
		return proofEvent
	case <-time.After(3 * time.Second):
		t.Fatal("no event emitted in time")
		return crawler.ProofEvent{}
	}
}

func proofFixture() verifier.Proof {
	return verifier.Proof{
		Value:         "aa00000000000000000000000000000000000000000000000000000000000000",
		Rail:          domain.RailMainChain,
		Destination:   "bc1qdestination",
		ExpectedValue: 1000000,
	}
}

type stubVerifier struct {
	mtx    sync.Mutex
	status verifier.ConfirmationStatus
}

func (s *stubVerifier) Status(
	_ context.Context, _ verifier.Proof,
) verifier.ConfirmationStatus {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.status
}

func (s *stubVerifier) RequestStatus(
	ctx context.Context, proof verifier.Proof,
) <-chan verifier.ConfirmationStatus {
	chStatus := make(chan verifier.ConfirmationStatus, 1)
	chStatus <- s.Status(ctx, proof)
	close(chStatus)
	return chStatus
}

func (s *stubVerifier) setStatus(status verifier.ConfirmationStatus) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.status = status
}
