// Package filter implements the per-request filter chain of the gateway.
//
// An Exchange carries the request, the response writer and a mutable
// attribute bag for the lifetime of one request. Filters are ordered by
// precedence (lower runs earlier) and each receives the rest of the
// chain as a continuation:
//
//	func (f *timing) Filter(ex *filter.Exchange, chain filter.Chain) error {
//	    start := time.Now()
//	    ex.OnSettle(func(ex *filter.Exchange, outcome filter.Outcome) {
//	        log.Printf("%s after %s", outcome, time.Since(start))
//	    })
//	    return chain.Filter(ex)
//	}
//
// A filter may pass the exchange on unchanged, pass a copy carrying a
// different request (WithRequest), return without calling the
// continuation, or register settle hooks. Hooks registered while a
// filter runs are executed, newest first, once that filter's invocation
// has returned: after every later filter and the terminal handler
// settled and before the hooks of earlier filters. They run on success,
// on error, on cancellation and when a later stage panics.
package filter
