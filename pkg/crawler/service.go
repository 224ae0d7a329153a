package crawler

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bisq-network/bisqeasyd/pkg/verifier"
)

const (
	eventQueueMaxSize = 100
	errorQueueMaxSize = 10
)

type proofCrawler struct {
	interval     time.Duration
	verifierSvc  verifier.Service
	errChan      chan error
	eventChan    chan Event
	observables  map[string]*observableHandler
	errorHandler func(err error)
	rateLimiter  *rate.Limiter
	mutex        *sync.RWMutex
	wg           *sync.WaitGroup
}

// Opts defines the parameters needed for creating a crawler service with the
// NewService method.
type Opts struct {
	VerifierSvc    verifier.Service
	Interval       time.Duration
	RequestsPerSec int
	ErrorHandler   func(err error)
}

// NewService returns a proof crawler ready to watch for settlement
// confirmations. Use the Start and Stop methods to manage it.
func NewService(opts Opts) Service {
	return &proofCrawler{
		interval:     opts.Interval,
		verifierSvc:  opts.VerifierSvc,
		errChan:      make(chan error, errorQueueMaxSize),
		eventChan:    make(chan Event, eventQueueMaxSize),
		observables:  map[string]*observableHandler{},
		errorHandler: opts.ErrorHandler,
		rateLimiter:  rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		mutex:        &sync.RWMutex{},
		wg:           &sync.WaitGroup{},
	}
}

// Start runs the error loop of the crawler. Observation goroutines are
// spawned per observable when added.
func (pc *proofCrawler) Start() {
	for err := range pc.errChan {
		go pc.errorHandler(err)
	}
}

// Stop stops all observations. Every handler checks its stop channel before
// the next poll, no event is emitted after the CloseEvent.
func (pc *proofCrawler) Stop() {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()
	for _, obsHandler := range pc.observables {
		go obsHandler.stop()
	}
	pc.observables = map[string]*observableHandler{}
	pc.wg.Wait()
	pc.eventChan <- CloseEvent{}
	close(pc.errChan)
}

// GetEventChannel returns the channel to listen for proof events.
func (pc *proofCrawler) GetEventChannel() chan Event {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()
	return pc.eventChan
}

// AddObservable starts watching the given observable unless it is watched
// already.
func (pc *proofCrawler) AddObservable(observable Observable) {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	if _, ok := pc.observables[observable.key()]; !ok {
		obsHandler := newObservableHandler(
			observable,
			pc.verifierSvc,
			pc.wg,
			pc.interval,
			pc.eventChan,
			pc.errChan,
			pc.rateLimiter,
		)

		pc.observables[observable.key()] = obsHandler
		go obsHandler.start()
	}
}

// RemoveObservable stops watching the given observable. Cancellation is
// cooperative, an in-flight poll finishes but no further one is scheduled.
func (pc *proofCrawler) RemoveObservable(observable Observable) {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	if obsHandler, ok := pc.observables[observable.key()]; ok {
		obsHandler.stop()
		delete(pc.observables, observable.key())
	}
}

// IsObserving returns whether a proof with the given key is being watched.
func (pc *proofCrawler) IsObserving(key string) bool {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()

	_, ok := pc.observables[key]
	return ok
}
