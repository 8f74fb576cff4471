package filter

import (
	"context"

	"github.com/vyrodovalexey/gwcore/internal/util"
)

// Outcome is how a chain invocation settled.
type Outcome int

const (
	// OutcomeSuccess means the invocation returned no error.
	OutcomeSuccess Outcome = iota
	// OutcomeError means the invocation returned an error or panicked.
	OutcomeError
	// OutcomeCanceled means the request was cancelled or timed out.
	OutcomeCanceled
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeError:
		return "error"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Hook is a completion action. It receives the exchange it was
// registered on and the outcome of the invocation it was attached to.
type Hook func(ex *Exchange, outcome Outcome)

type registeredHook struct {
	ex   *Exchange
	hook Hook
}

// hookStack holds the hooks of one request, shared by all exchange copies.
type hookStack struct {
	hooks []registeredHook
}

func (s *hookStack) push(ex *Exchange, h Hook) {
	s.hooks = append(s.hooks, registeredHook{ex: ex, hook: h})
}

func (s *hookStack) mark() int {
	return len(s.hooks)
}

// drain runs and removes every hook above mark, newest first. All hooks
// run even if one panics; the first panic is returned.
func (s *hookStack) drain(mark int, outcome Outcome) (panicked any) {
	for len(s.hooks) > mark {
		last := len(s.hooks) - 1
		h := s.hooks[last]
		s.hooks[last] = registeredHook{}
		s.hooks = s.hooks[:last]

		if p := runHook(h, outcome); p != nil && panicked == nil {
			panicked = p
		}
	}
	return panicked
}

func runHook(h registeredHook, outcome Outcome) (panicked any) {
	defer func() {
		panicked = recover()
	}()
	h.hook(h.ex, outcome)
	return nil
}

// outcomeOf classifies the result of an invocation.
func outcomeOf(ctx context.Context, err error, panicked bool) Outcome {
	switch {
	case panicked:
		return OutcomeError
	case err == nil:
		return OutcomeSuccess
	case util.IsCanceled(err), ctx.Err() != nil:
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}
