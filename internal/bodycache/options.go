package bodycache

import (
	"github.com/vyrodovalexey/gwcore/internal/observability"
)

// DefaultMaxBodySize is the largest body buffered when no limit is configured.
const DefaultMaxBodySize int64 = 10 << 20

type options struct {
	logger      observability.Logger
	metrics     *observability.Metrics
	maxBodySize int64
}

func defaultOptions() options {
	return options{
		logger:      observability.NopLogger(),
		maxBodySize: DefaultMaxBodySize,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option is a functional option shared by the components of this package.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithMaxBodySize limits the size of a buffered body. A non-positive
// value removes the limit.
func WithMaxBodySize(size int64) Option {
	return func(o *options) {
		o.maxBodySize = size
	}
}
