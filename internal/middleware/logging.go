package middleware

import (
	"net/http"
	"time"

	"github.com/vyrodovalexey/gwcore/internal/observability"
	"github.com/vyrodovalexey/gwcore/internal/util"
)

// Logging returns a middleware that writes one access log entry per
// request. Server errors are logged at warn level.
func Logging(logger observability.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := util.NewStatusCapturingResponseWriter(w)

			next.ServeHTTP(sw, r)

			fields := []observability.Field{
				observability.String("method", r.Method),
				observability.String("path", r.URL.Path),
				observability.String("query", r.URL.RawQuery),
				observability.Int("status", sw.StatusCode),
				observability.Int64("size", sw.BytesWritten),
				observability.Duration("duration", time.Since(start)),
				observability.String("remote_addr", r.RemoteAddr),
				observability.String("user_agent", r.UserAgent()),
			}

			l := logger.WithContext(r.Context())
			if sw.StatusCode >= http.StatusInternalServerError {
				l.Warn("http request", fields...)
				return
			}
			l.Info("http request", fields...)
		})
	}
}
