package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/gwcore/internal/observability"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generates id when missing", incoming: "", keep: false},
		{name: "keeps valid incoming id", incoming: "req-123", keep: true},
		{name: "replaces oversized id", incoming: strings.Repeat("a", 129), keep: false},
		{name: "replaces id with spaces", incoming: "bad id", keep: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var ctxID, upstreamID string
			h := RequestID(func() string { return "generated" })(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					ctxID = observability.RequestIDFromContext(r.Context())
					upstreamID = r.Header.Get(RequestIDHeader)
				}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			want := "generated"
			if tt.keep {
				want = tt.incoming
			}
			assert.Equal(t, want, ctxID)
			assert.Equal(t, want, upstreamID)
			assert.Equal(t, want, rec.Header().Get(RequestIDHeader))
		})
	}
}

func TestRequestID_DefaultGenerator(t *testing.T) {
	t.Parallel()

	var got string
	h := RequestID(nil)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = observability.RequestIDFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(got)
	require.NoError(t, err)
}

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("first"), mark("second"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "handler"}, order)
}
