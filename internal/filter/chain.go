package filter

import (
	"github.com/vyrodovalexey/gwcore/internal/observability"
)

// Executor runs an ordered filter list followed by a terminal handler.
// An Executor is immutable and may serve many requests concurrently.
type Executor struct {
	filters []Filter
	handler Handler
	logger  observability.Logger
}

// ExecutorOption is a functional option for configuring an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the logger used to report panicking settle hooks.
func WithLogger(logger observability.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an executor over global and route filters merged
// by order.
func NewExecutor(handler Handler, global, route []Filter, opts ...ExecutorOption) *Executor {
	e := &Executor{
		filters: Merge(global, route),
		handler: handler,
		logger:  observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Filters returns the filters in execution order.
func (e *Executor) Filters() []Filter {
	out := make([]Filter, len(e.filters))
	copy(out, e.filters)
	return out
}

// Execute runs the chain for ex. Every settle hook registered during
// the call has run by the time Execute returns.
func (e *Executor) Execute(ex *Exchange) error {
	return e.invoke(0, ex)
}

// invoke runs stage index, then drains the hooks registered while it ran.
func (e *Executor) invoke(index int, ex *Exchange) (err error) {
	mark := ex.hooks.mark()
	completed := false

	defer func() {
		var panicked any
		if !completed {
			panicked = recover()
		}
		outcome := outcomeOf(ex.Context(), err, !completed)

		if hookPanic := ex.hooks.drain(mark, outcome); hookPanic != nil {
			e.logger.Error("settle hook panicked",
				observability.Int("stage", index),
				observability.String("outcome", outcome.String()),
				observability.Any("panic", hookPanic),
			)
			if panicked == nil {
				panicked = hookPanic
			}
		}

		if panicked != nil {
			panic(panicked)
		}
	}()

	if index >= len(e.filters) {
		err = e.handler.Handle(ex)
	} else {
		err = e.filters[index].Filter(ex, next{executor: e, index: index + 1})
	}
	completed = true
	return err
}

// next is the continuation passed to the filter at index-1.
type next struct {
	executor *Executor
	index    int
}

// Filter implements Chain.
func (n next) Filter(ex *Exchange) error {
	return n.executor.invoke(n.index, ex)
}
