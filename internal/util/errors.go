// Package util provides utility functions and types for the gateway core.
//
// # Error Conventions
//
// This project follows a standardized error pattern across all packages:
//
//   - Sentinel errors (errors.New) for well-known, stable conditions
//     that callers check with errors.Is(). Example: ErrNotFound.
//   - Structured error types for context-rich errors that carry
//     additional fields (e.g., RefreshError, BufferAllocationError). Each
//     type implements Error(), Unwrap() (if wrapping), and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping that adds context to an
//     existing error without introducing a new type.
//
// All custom error types must implement:
//
//	Error() string           – human-readable message
//	Unwrap() error           – if the type wraps another error
//	Is(target error) bool    – for errors.Is() compatibility
package util

import (
	"context"
	"errors"
	"fmt"
)

// Common sentinel errors.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConfigInvalid     = errors.New("invalid configuration")
	ErrBodyTooLarge      = errors.New("request body too large")
	ErrDuplicateRoute    = errors.New("duplicate route id")
	ErrSourceUnavailable = errors.New("route source unavailable")
	ErrRefreshFailed     = errors.New("route refresh failed")
	ErrBufferAllocation  = errors.New("body buffer allocation failed")
)

// ConfigError represents a configuration-related error.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error at %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ConfigError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok || errors.Is(e.Cause, target)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with a cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// ValidationError represents a validation failure.
type ValidationError struct {
	Fields  map[string]string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s (fields: %v)", e.Message, e.Fields)
}

// Is checks if the error matches the target.
func (e *ValidationError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ValidationError)
	return ok
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message, Fields: make(map[string]string)}
}

// AddField adds a field error.
func (e *ValidationError) AddField(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// HasErrors reports whether any field errors were recorded.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// RouteNotFoundError represents a request no published route matched.
type RouteNotFoundError struct {
	Path   string
	Method string
}

// Error implements the error interface.
func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("no route found for %s %s", e.Method, e.Path)
}

// Is checks if the error matches the target.
func (e *RouteNotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	_, ok := target.(*RouteNotFoundError)
	return ok
}

// NewRouteNotFoundError creates a new RouteNotFoundError.
func NewRouteNotFoundError(method, path string) *RouteNotFoundError {
	return &RouteNotFoundError{Path: path, Method: method}
}

// RefreshError is a failed route table reload. It never reaches in-flight
// requests; it is only carried by refresh results.
type RefreshError struct {
	Source string
	Cause  error
}

// Error implements the error interface.
func (e *RefreshError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("refresh from %s failed: %v", e.Source, e.Cause)
	}
	return fmt.Sprintf("refresh failed: %v", e.Cause)
}

// Unwrap returns the underlying error.
func (e *RefreshError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *RefreshError) Is(target error) bool {
	if target == ErrRefreshFailed {
		return true
	}
	_, ok := target.(*RefreshError)
	return ok || errors.Is(e.Cause, target)
}

// NewRefreshError creates a new RefreshError.
func NewRefreshError(source string, cause error) *RefreshError {
	return &RefreshError{Source: source, Cause: cause}
}

// BufferAllocationError is returned when a request body could not be
// buffered, either because reading failed or a size limit was hit.
type BufferAllocationError struct {
	RouteID string
	Limit   int64
	Cause   error
}

// Error implements the error interface.
func (e *BufferAllocationError) Error() string {
	if e.Limit > 0 && errors.Is(e.Cause, ErrBodyTooLarge) {
		return fmt.Sprintf("caching body for route %s: exceeds limit of %d bytes", e.RouteID, e.Limit)
	}
	return fmt.Sprintf("caching body for route %s: %v", e.RouteID, e.Cause)
}

// Unwrap returns the underlying error.
func (e *BufferAllocationError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *BufferAllocationError) Is(target error) bool {
	if target == ErrBufferAllocation {
		return true
	}
	_, ok := target.(*BufferAllocationError)
	return ok || errors.Is(e.Cause, target)
}

// NewBufferAllocationError creates a new BufferAllocationError.
func NewBufferAllocationError(routeID string, limit int64, cause error) *BufferAllocationError {
	return &BufferAllocationError{RouteID: routeID, Limit: limit, Cause: cause}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsCanceled returns true if the error is a context cancellation or
// deadline expiry.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
