// Package util provides utility functions and types shared by the
// gateway core packages.
//
// # Context Helpers
//
// Context utilities for request-scoped data:
//
//	ctx = util.ContextWithRouteID(ctx, "orders")
//	routeID := util.RouteIDFromContext(ctx)
//
// # Error Types
//
// Structured error types for consistent error handling:
//
//   - RefreshError: a failed route table reload
//   - BufferAllocationError: a request body that could not be cached
//   - ConfigError, ValidationError: configuration problems
//   - Common sentinel errors: ErrNotFound, ErrBodyTooLarge, etc.
//
// # HTTP Utilities
//
// Response writer wrappers for status code capture:
//
//	w := util.NewStatusCapturingResponseWriter(responseWriter)
//	handler.ServeHTTP(w, r)
//	statusCode := w.StatusCode
//
// # Validation
//
// Input validation helpers for URLs, ports, headers and patterns:
//
//	err := util.ValidateURL("https://example.com")
//	err := util.ValidateHeaderName("X-Custom-Header")
package util
