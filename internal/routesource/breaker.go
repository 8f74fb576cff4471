package routesource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vyrodovalexey/gwcore/internal/observability"
	"github.com/vyrodovalexey/gwcore/internal/route"
	"github.com/vyrodovalexey/gwcore/internal/util"
)

// BreakerSource stops calling an upstream source after repeated
// failures. While the breaker is open fetches fail fast with
// util.ErrSourceUnavailable and the route cache keeps its snapshot.
type BreakerSource struct {
	source route.Source
	cb     *gobreaker.CircuitBreaker
	logger observability.Logger
}

// BreakerSettings configures a BreakerSource.
type BreakerSettings struct {
	// Threshold is the number of consecutive failures that opens the breaker.
	Threshold int
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// HalfOpenRequests is the number of probes allowed while half-open.
	HalfOpenRequests int
}

// BreakerOption is a functional option for configuring a BreakerSource.
type BreakerOption func(*BreakerSource)

// WithBreakerLogger sets the logger.
func WithBreakerLogger(logger observability.Logger) BreakerOption {
	return func(s *BreakerSource) {
		s.logger = logger
	}
}

// NewBreakerSource wraps source with a circuit breaker.
func NewBreakerSource(source route.Source, settings BreakerSettings, opts ...BreakerOption) *BreakerSource {
	s := &BreakerSource{
		source: source,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	threshold := safeIntToUint32(settings.Threshold)
	if threshold == 0 {
		threshold = 1
	}
	halfOpen := safeIntToUint32(settings.HalfOpenRequests)
	if halfOpen == 0 {
		halfOpen = 1
	}

	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        route.SourceName(source),
		MaxRequests: halfOpen,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A canceled fetch says nothing about the upstream's health.
		IsSuccessful: func(err error) bool {
			return err == nil || util.IsCanceled(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Info("route source circuit breaker state change",
				observability.String("source", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
		},
	})

	return s
}

// FetchAll fetches through the breaker.
func (s *BreakerSource) FetchAll(ctx context.Context) ([]*route.Route, error) {
	result, err := s.cb.Execute(func() (any, error) {
		return s.source.FetchAll(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s: %w", util.ErrSourceUnavailable, s.Name(), err)
	}
	if err != nil {
		return nil, err
	}
	routes, _ := result.([]*route.Route)
	return routes, nil
}

// State returns the breaker state.
func (s *BreakerSource) State() gobreaker.State {
	return s.cb.State()
}

// Name returns the name of the wrapped source.
func (s *BreakerSource) Name() string {
	return route.SourceName(s.source)
}

// safeIntToUint32 safely converts int to uint32.
func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}
