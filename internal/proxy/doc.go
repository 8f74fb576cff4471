// Package proxy hands an exchange off to the route's target URL.
//
// ReverseProxy implements filter.Handler, so it sits at the end of a
// filter chain. It forwards the active request of the exchange, which
// may be a decorated request replaying a cached body, and reports
// upstream failures as errors instead of writing an error response, so
// the caller decides how failures are rendered.
package proxy
