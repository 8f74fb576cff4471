package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/vyrodovalexey/gwcore/internal/util"
)

// Sentinel errors for gateway operations.
var (
	// ErrGatewayNotStopped indicates that the gateway is not in
	// stopped state when a start operation is attempted.
	ErrGatewayNotStopped = errors.New("gateway is not in stopped state")

	// ErrGatewayNotRunning indicates that the gateway is not
	// running when a stop operation is attempted.
	ErrGatewayNotRunning = errors.New("gateway is not running")

	// ErrNilConfig indicates that a nil configuration was provided.
	ErrNilConfig = errors.New("configuration is required")
)

// StatusClientClosedRequest is the non-standard status logged when the
// client went away before the response was produced.
const StatusClientClosedRequest = 499

// errorResponse is a rendered chain failure.
type errorResponse struct {
	status int
	body   string
}

// classify maps a chain error to the response the client receives.
func classify(ctx context.Context, err error) errorResponse {
	var notFound *util.RouteNotFoundError
	switch {
	case errors.As(err, &notFound) || errors.Is(err, util.ErrNotFound):
		return errorResponse{http.StatusNotFound, `{"error":"not found","message":"no matching route"}`}
	case errors.Is(err, util.ErrBodyTooLarge):
		return errorResponse{http.StatusRequestEntityTooLarge,
			`{"error":"request entity too large","message":"request body exceeds the configured limit"}`}
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		return errorResponse{StatusClientClosedRequest, `{"error":"client closed request"}`}
	case errors.Is(err, context.DeadlineExceeded):
		return errorResponse{http.StatusGatewayTimeout, `{"error":"gateway timeout","message":"upstream timed out"}`}
	case errors.Is(err, util.ErrBufferAllocation):
		return errorResponse{http.StatusBadRequest, `{"error":"bad request","message":"failed to read request body"}`}
	default:
		return errorResponse{http.StatusBadGateway, `{"error":"bad gateway","message":"failed to proxy request"}`}
	}
}

// write renders the response unless a response was already started.
func (e errorResponse) write(w *util.StatusCapturingResponseWriter) {
	if w.HeaderWritten {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.status)
	_, _ = io.WriteString(w, e.body)
}
