package crawler

import (
	"golang.org/x/time/rate"

	"github.com/bisq-network/bisqeasyd/pkg/verifier"
)

// Event are emitted through a channel during observation.
type Event interface {
	Type() EventType
}

// Observable represents a payment proof whose confirmation is awaited.
type Observable interface {
	observe(
		verifierSvc verifier.Service,
		errChan chan error,
		eventChan chan Event,
		observableStatus *observableStatus,
		rateLimiter *rate.Limiter,
	)
	key() string
}

// Service is the interface for the confirmation crawler.
type Service interface {
	Start()
	Stop()
	AddObservable(observable Observable)
	RemoveObservable(observable Observable)
	IsObserving(key string) bool
	GetEventChannel() chan Event
}
