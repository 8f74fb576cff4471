package middleware

import (
	"errors"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/vyrodovalexey/gwcore/internal/observability"
	"github.com/vyrodovalexey/gwcore/internal/util"
)

// Recovery returns a middleware that recovers from panics. A 500 is
// written unless the response was already started. http.ErrAbortHandler
// is re-raised so the server aborts the connection.
func Recovery(logger observability.Logger, metrics *observability.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := util.NewStatusCapturingResponseWriter(w)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				logger.WithContext(r.Context()).Error("panic recovered",
					observability.String("path", r.URL.Path),
					observability.String("method", r.Method),
					observability.Any("error", rec),
					observability.String("stack", string(debug.Stack())),
				)
				metrics.RecordPanicRecovered()

				if sw.HeaderWritten {
					return
				}
				sw.Header().Set("Content-Type", "application/json")
				sw.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(sw, `{"error":"internal server error"}`)
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
