package proxy

import (
	"errors"
	"fmt"
)

// Sentinel errors for proxy operations.
var (
	// ErrNoRoute indicates that the exchange carries no resolved route.
	ErrNoRoute = errors.New("no resolved route on exchange")

	// ErrInvalidTargetURL indicates that the route has no usable target.
	ErrInvalidTargetURL = errors.New("invalid target URL")

	// ErrProxyFailed indicates that the upstream request failed.
	ErrProxyFailed = errors.New("proxy request failed")
)

// ProxyError represents a proxy-related error with details.
type ProxyError struct {
	Op      string // Operation that failed
	Route   string // Route id if applicable
	Target  string // Target URL if applicable
	Message string // Human-readable message
	Cause   error  // Underlying error
}

// Error implements the error interface.
func (e *ProxyError) Error() string {
	msg := fmt.Sprintf("proxy error [%s]", e.Op)
	if e.Route != "" {
		msg += " route=" + e.Route
	}
	if e.Target != "" {
		msg += " target=" + e.Target
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ProxyError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ProxyError) Is(target error) bool {
	if target == ErrProxyFailed && e.Op == opForward {
		return true
	}
	_, ok := target.(*ProxyError)
	return ok || errors.Is(e.Cause, target)
}

const (
	opResolve = "resolve_route"
	opForward = "forward"
)

// NewProxyError creates a new ProxyError.
func NewProxyError(op, route, target, message string, cause error) *ProxyError {
	return &ProxyError{
		Op:      op,
		Route:   route,
		Target:  target,
		Message: message,
		Cause:   cause,
	}
}
