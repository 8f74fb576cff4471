package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/gwcore/internal/observability"
)

const (
	// RequestIDHeader is the header name for request ID.
	RequestIDHeader = "X-Request-ID"

	// maxRequestIDLength bounds client supplied ids.
	maxRequestIDLength = 128
)

// RequestID returns a middleware that assigns each request an id. A
// client supplied X-Request-ID is kept when it is printable and at most
// 128 bytes; otherwise generate is called, or a UUID is used when
// generate is nil. The id is put on the request context, forwarded
// upstream and echoed in the response.
func RequestID(generate func() string) Middleware {
	if generate == nil {
		generate = uuid.NewString
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if !validRequestID(requestID) {
				requestID = generate()
				r = r.Clone(r.Context())
				r.Header.Set(RequestIDHeader, requestID)
			}

			r = r.WithContext(observability.ContextWithRequestID(r.Context(), requestID))
			w.Header().Set(RequestIDHeader, requestID)

			next.ServeHTTP(w, r)
		})
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
