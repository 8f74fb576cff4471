package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/gwcore/internal/observability"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		method         string
		target         string
		handler        http.HandlerFunc
		expectedStatus int
		expectedLevel  zapcore.Level
		expectedSize   int64
	}{
		{
			name:   "logs successful GET request",
			method: http.MethodGet,
			target: "/api/users?page=1",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"users":[]}`))
			},
			expectedStatus: http.StatusOK,
			expectedLevel:  zapcore.InfoLevel,
			expectedSize:   12,
		},
		{
			name:   "implicit status on write",
			method: http.MethodPost,
			target: "/api/users",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"id":1}`))
			},
			expectedStatus: http.StatusOK,
			expectedLevel:  zapcore.InfoLevel,
			expectedSize:   8,
		},
		{
			name:   "server error logged at warn",
			method: http.MethodGet,
			target: "/api/error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			expectedStatus: http.StatusBadGateway,
			expectedLevel:  zapcore.WarnLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.DebugLevel)
			h := Logging(observability.NewLoggerFromZap(zap.New(core)))(tt.handler)

			req := httptest.NewRequest(tt.method, tt.target, nil)
			req = req.WithContext(observability.ContextWithRequestID(req.Context(), "rid-1"))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)

			entries := logs.FilterMessage("http request").All()
			require.Len(t, entries, 1)
			entry := entries[0]
			assert.Equal(t, tt.expectedLevel, entry.Level)

			fields := entry.ContextMap()
			assert.Equal(t, tt.method, fields["method"])
			assert.Equal(t, req.URL.Path, fields["path"])
			assert.Equal(t, req.URL.RawQuery, fields["query"])
			assert.Equal(t, int64(tt.expectedStatus), fields["status"])
			assert.Equal(t, tt.expectedSize, fields["size"])
			assert.Equal(t, "rid-1", fields["request_id"])
		})
	}
}
