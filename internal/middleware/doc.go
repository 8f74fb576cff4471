// Package middleware provides the HTTP middleware wrapped around the
// gateway handler.
//
//   - RequestID: request identifier injection and propagation
//   - Recovery: panic recovery with stack trace logging
//   - Logging: structured access logging
//
// # Usage
//
// Middleware functions follow the standard Go pattern and compose with
// Chain, outermost first:
//
//	handler := middleware.Chain(gatewayHandler,
//	    middleware.RequestID(nil),
//	    middleware.Logging(logger),
//	    middleware.Recovery(logger, metrics),
//	)
package middleware

import "net/http"

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain wraps h with mws so that mws[0] runs first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
