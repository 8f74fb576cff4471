package routesource

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/vyrodovalexey/gwcore/internal/observability"
	"github.com/vyrodovalexey/gwcore/internal/route"
	"github.com/vyrodovalexey/gwcore/internal/util"
)

// Default retry settings.
const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = 100 * time.Millisecond
	DefaultMaxBackoff     = 5 * time.Second
	DefaultJitterFactor   = 0.25
)

// RetrySettings configures a RetrySource.
type RetrySettings struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// InitialBackoff is the wait before the first retry. It doubles on
	// every further retry up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// JitterFactor adds up to this fraction of the backoff at random.
	JitterFactor float64
}

func (s RetrySettings) withDefaults() RetrySettings {
	if s.MaxRetries < 0 {
		s.MaxRetries = 0
	}
	if s.InitialBackoff <= 0 {
		s.InitialBackoff = DefaultInitialBackoff
	}
	if s.MaxBackoff <= 0 {
		s.MaxBackoff = DefaultMaxBackoff
	}
	if s.JitterFactor < 0 {
		s.JitterFactor = 0
	}
	if s.JitterFactor > 1 {
		s.JitterFactor = 1
	}
	return s
}

// RetrySource retries failed fetches of a wrapped source with
// exponential backoff. Invalid route definitions, an open circuit
// breaker and cancellation are returned at once.
type RetrySource struct {
	source   route.Source
	settings RetrySettings
	logger   observability.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// RetryOption is a functional option for configuring a RetrySource.
type RetryOption func(*RetrySource)

// WithRetryLogger sets the logger.
func WithRetryLogger(logger observability.Logger) RetryOption {
	return func(s *RetrySource) {
		s.logger = logger
	}
}

// NewRetrySource wraps source with retries.
func NewRetrySource(source route.Source, settings RetrySettings, opts ...RetryOption) *RetrySource {
	s := &RetrySource{
		source:   source,
		settings: settings.withDefaults(),
		logger:   observability.NopLogger(),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchAll fetches from the wrapped source, retrying transient failures.
func (s *RetrySource) FetchAll(ctx context.Context) ([]*route.Route, error) {
	var lastErr error
	for attempt := 0; attempt <= s.settings.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		routes, err := s.source.FetchAll(ctx)
		if err == nil {
			return routes, nil
		}
		lastErr = err

		if !retryable(ctx, err) || attempt == s.settings.MaxRetries {
			break
		}

		backoff := s.backoff(attempt)
		s.logger.Warn("route fetch failed, retrying",
			observability.String("source", s.Name()),
			observability.Int("attempt", attempt+1),
			observability.Duration("backoff", backoff),
			observability.Error(err),
		)

		if err := s.sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// Name returns the name of the wrapped source.
func (s *RetrySource) Name() string {
	return route.SourceName(s.source)
}

// backoff returns the wait before retry attempt+1.
func (s *RetrySource) backoff(attempt int) time.Duration {
	backoff := float64(s.settings.InitialBackoff) * math.Pow(2, float64(attempt))
	//nolint:gosec // jitter for retry timing is not security-sensitive
	backoff += backoff * s.settings.JitterFactor * rand.Float64()
	if backoff > float64(s.settings.MaxBackoff) {
		backoff = float64(s.settings.MaxBackoff)
	}
	return time.Duration(backoff)
}

func retryable(ctx context.Context, err error) bool {
	switch {
	case ctx.Err() != nil, util.IsCanceled(err):
		return false
	case errors.Is(err, util.ErrSourceUnavailable), errors.Is(err, util.ErrConfigInvalid):
		return false
	default:
		return true
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
