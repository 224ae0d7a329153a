package crawler

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/bisq-network/bisqeasyd/pkg/verifier"
)

const (
	New       Status = "NEW"
	Waiting   Status = "WAITING"
	Processed Status = "PROCESSED"
)

type Status string

type observableStatus struct {
	sync.RWMutex
	status Status
}

func newObservableStatus() *observableStatus {
	return &observableStatus{status: New}
}

func (o *observableStatus) Get() Status {
	o.RLock()
	defer o.RUnlock()
	return o.status
}

func (o *observableStatus) Set(status Status) {
	o.Lock()
	defer o.Unlock()
	o.status = status
}

// ProofObservable polls the verifier for the confirmation status of a
// trade's payment proof.
type ProofObservable struct {
	TradeId string
	Proof   verifier.Proof
}

func (p *ProofObservable) observe(
	verifierSvc verifier.Service,
	errChan chan error,
	eventChan chan Event,
	observableStatus *observableStatus,
	rateLimiter *rate.Limiter,
) {
	if p == nil {
		return
	}

	observableStatus.Set(Waiting)
	if err := rateLimiter.Wait(context.Background()); err != nil {
		errChan <- err
		return
	}

	status := verifierSvc.Status(context.Background(), p.Proof)

	observableStatus.Set(Processed)

	eventType := ProofPending
	switch status.State {
	case verifier.StateConfirmed:
		eventType = ProofConfirmed
	case verifier.StateFailed:
		eventType = ProofFailed
	}

	eventChan <- ProofEvent{
		EventType: eventType,
		TradeId:   p.TradeId,
		Proof:     p.Proof.Value,
		Status:    status,
	}
}

func (p *ProofObservable) key() string {
	return p.Proof.Value
}

type observableHandler struct {
	observable       Observable
	verifierSvc      verifier.Service
	wg               *sync.WaitGroup
	ticker           *time.Ticker
	eventChan        chan Event
	errChan          chan error
	stopChan         chan int
	observableStatus *observableStatus
	rateLimiter      *rate.Limiter
}

func newObservableHandler(
	observable Observable,
	verifierSvc verifier.Service,
	wg *sync.WaitGroup,
	interval time.Duration,
	eventChan chan Event,
	errChan chan error,
	rateLimiter *rate.Limiter,
) *observableHandler {
	ticker := time.NewTicker(interval)
	stopChan := make(chan int, 1)

	return &observableHandler{
		observable,
		verifierSvc,
		wg,
		ticker,
		eventChan,
		errChan,
		stopChan,
		newObservableStatus(),
		rateLimiter,
	}
}

func (oh *observableHandler) start() {
	oh.logAction("start")
	oh.wg.Add(1)
	for {
		select {
		case <-oh.ticker.C:
			// skip the tick if the previous poll is still in flight
			if oh.observableStatus.Get() != Waiting {
				oh.observable.observe(
					oh.verifierSvc,
					oh.errChan,
					oh.eventChan,
					oh.observableStatus,
					oh.rateLimiter,
				)
			}
		case <-oh.stopChan:
			oh.ticker.Stop()
			close(oh.stopChan)
			return
		}
	}
}

func (oh *observableHandler) stop() {
	oh.logAction("stop")
	oh.stopChan <- 1
	oh.wg.Done()
}

func (oh *observableHandler) logAction(action string) {
	log.Debugf("crawler %s observation of proof %s", action, oh.observable.key())
}
