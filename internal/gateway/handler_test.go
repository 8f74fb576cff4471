package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/gwcore/internal/bodycache"
	"github.com/vyrodovalexey/gwcore/internal/filter"
	"github.com/vyrodovalexey/gwcore/internal/observability"
	"github.com/vyrodovalexey/gwcore/internal/route"
	"github.com/vyrodovalexey/gwcore/internal/util"
)

// staticRoutes serves a fixed snapshot.
type staticRoutes struct {
	snapshot atomic.Pointer[route.Snapshot]
}

func newStaticRoutes(t *testing.T, routes ...*route.Route) *staticRoutes {
	t.Helper()

	snap, err := route.NewSnapshot(routes, 1)
	require.NoError(t, err)

	s := &staticRoutes{}
	s.snapshot.Store(snap)
	return s
}

func (s *staticRoutes) Snapshot() *route.Snapshot { return s.snapshot.Load() }

func pathRoute(id, prefix string, filters ...filter.Filter) *route.Route {
	return &route.Route{
		ID: id,
		Predicate: route.PredicateFunc(func(ex *filter.Exchange) (bool, error) {
			return strings.HasPrefix(ex.Request().URL.Path, prefix), nil
		}),
		Filters: filters,
	}
}

// bodyCacheStack wires the global body cache filters the way the binary does.
type bodyCacheStack struct {
	registry *bodycache.Registry
	cacher   *bodycache.Cacher
	metrics  *observability.Metrics
}

func newBodyCacheStack(maxBody int64, enabled ...string) *bodyCacheStack {
	metrics := observability.NewMetrics("test")
	opts := []bodycache.Option{bodycache.WithMetrics(metrics), bodycache.WithMaxBodySize(maxBody)}

	s := &bodyCacheStack{
		registry: bodycache.NewRegistry(opts...),
		cacher:   bodycache.NewCacher(opts...),
		metrics:  metrics,
	}
	for _, id := range enabled {
		s.registry.Enable(id)
	}
	return s
}

func (s *bodyCacheStack) handlerOptions() []HandlerOption {
	return []HandlerOption{
		WithGlobalFilters(
			bodycache.NewReleaseFilter(),
			bodycache.NewAdaptFilter(s.registry, s.cacher),
		),
		WithHandlerMetrics(s.metrics),
	}
}

func TestHandler_NoRoute(t *testing.T) {
	t.Parallel()

	metrics := observability.NewMetrics("test")
	called := false
	target := filter.HandlerFunc(func(*filter.Exchange) error {
		called = true
		return nil
	})

	h := NewHandler(newStaticRoutes(t, pathRoute("orders", "/orders")), target, WithHandlerMetrics(metrics))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found","message":"no matching route"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, 1, mustGatherAndCount(t, metrics, "test_requests_total"))
}

func TestHandler_CachedBodyReachesTargetAndIsReleased(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("x", 42)
	stack := newBodyCacheStack(1024, "orders")

	var (
		received     string
		resolvedID   string
		routeInCtx   bool
		bufferLiveIn bool
	)
	target := filter.HandlerFunc(func(ex *filter.Exchange) error {
		data, err := io.ReadAll(ex.Request().Body)
		if err != nil {
			return err
		}
		received = string(data)
		if rt, ok := filter.Attribute[*route.Route](ex, filter.RouteAttr); ok {
			resolvedID = rt.ID
		}
		_, bufferLiveIn = bodycache.CachedBuffer(ex)
		routeInCtx = util.RouteIDFromContext(ex.Context()) == "orders"
		ex.Response().WriteHeader(http.StatusNoContent)
		return nil
	})

	h := NewHandler(newStaticRoutes(t, pathRoute("orders", "/orders")), target, stack.handlerOptions()...)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/1", strings.NewReader(body)))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, body, received)
	assert.Equal(t, "orders", resolvedID)
	assert.True(t, bufferLiveIn)
	assert.True(t, routeInCtx)

	reg := stack.metrics.Registry()
	assert.Equal(t, float64(1), gauge(t, reg, "test_body_cache_buffers_allocated_total"))
	assert.Equal(t, float64(1), gauge(t, reg, "test_body_cache_buffers_released_total"))
	assert.Equal(t, float64(0), gauge(t, reg, "test_body_cache_bytes_in_use"))
}

func TestHandler_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		enabled  bool
		body     string
		ctx      func() context.Context
		err      error
		expected int
	}{
		{
			name:     "body too large",
			enabled:  true,
			body:     strings.Repeat("x", 64),
			expected: http.StatusRequestEntityTooLarge,
		},
		{
			name:     "upstream failure",
			err:      errors.New("connection refused"),
			expected: http.StatusBadGateway,
		},
		{
			name:     "upstream timeout",
			err:      context.DeadlineExceeded,
			expected: http.StatusGatewayTimeout,
		},
		{
			name: "client went away",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			err:      context.Canceled,
			expected: StatusClientClosedRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var enabled []string
			if tt.enabled {
				enabled = append(enabled, "r")
			}
			stack := newBodyCacheStack(16, enabled...)

			target := filter.HandlerFunc(func(*filter.Exchange) error { return tt.err })
			h := NewHandler(newStaticRoutes(t, pathRoute("r", "/")), target, stack.handlerOptions()...)

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.ctx != nil {
				req = req.WithContext(tt.ctx())
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.expected, rec.Code)
			assert.Equal(t, float64(0), gauge(t, stack.metrics.Registry(), "test_body_cache_bytes_in_use"))
		})
	}
}

func TestHandler_ErrorAfterResponseStartedKeepsStatus(t *testing.T) {
	t.Parallel()

	target := filter.HandlerFunc(func(ex *filter.Exchange) error {
		ex.Response().WriteHeader(http.StatusOK)
		_, _ = io.WriteString(ex.Response(), "partial")
		return errors.New("stream broke")
	})
	h := NewHandler(newStaticRoutes(t, pathRoute("r", "/")), target)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
}

func TestHandler_RouteFiltersRunAfterGlobalFilters(t *testing.T) {
	t.Parallel()

	var order []string
	record := func(name string, o int) filter.Filter {
		return filter.WithOrder(filter.FilterFunc(func(ex *filter.Exchange, chain filter.Chain) error {
			order = append(order, name)
			return chain.Filter(ex)
		}), o)
	}

	target := filter.HandlerFunc(func(*filter.Exchange) error {
		order = append(order, "target")
		return nil
	})
	h := NewHandler(
		newStaticRoutes(t, pathRoute("r", "/", record("route-1", 1), record("route-early", -5))),
		target,
		WithGlobalFilters(record("global", 0)),
	)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"route-early", "global", "route-1", "target"}, order)
}

func TestHandler_PredicateBufferReleasedWhenNoRouteMatches(t *testing.T) {
	t.Parallel()

	stack := newBodyCacheStack(1024)
	reads := route.PredicateFunc(func(ex *filter.Exchange) (bool, error) {
		err := stack.cacher.CacheRequestBody(ex, "peek", true, func(*http.Request) error { return nil })
		return false, err
	})

	target := filter.HandlerFunc(func(*filter.Exchange) error { return nil })
	h := NewHandler(newStaticRoutes(t, &route.Route{ID: "peek", Predicate: reads}), target, stack.handlerOptions()...)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("payload")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	reg := stack.metrics.Registry()
	assert.Equal(t, float64(1), gauge(t, reg, "test_body_cache_buffers_released_total"))
	assert.Equal(t, float64(0), gauge(t, reg, "test_body_cache_bytes_in_use"))
}

func TestHandler_UsesOneSnapshotPerRequest(t *testing.T) {
	t.Parallel()

	routes := newStaticRoutes(t, pathRoute("v1", "/"))

	next, err := route.NewSnapshot([]*route.Route{pathRoute("v2", "/")}, 2)
	require.NoError(t, err)

	var seen string
	target := filter.HandlerFunc(func(ex *filter.Exchange) error {
		// A reload lands while the request is in flight.
		routes.snapshot.Store(next)
		rt, _ := filter.Attribute[*route.Route](ex, filter.RouteAttr)
		seen = rt.ID
		return nil
	})

	h := NewHandler(routes, target)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "v1", seen)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "v2", seen)
}

func TestHandler_FailureLogCarriesRouteAndDuration(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	target := filter.HandlerFunc(func(*filter.Exchange) error {
		time.Sleep(5 * time.Millisecond)
		return errors.New("connection refused")
	})
	h := NewHandler(newStaticRoutes(t, pathRoute("orders", "/orders")), target,
		WithHandlerLogger(observability.NewLoggerFromZap(zap.New(core))),
	)

	req := httptest.NewRequest(http.MethodGet, "/orders/7", nil)
	req = req.WithContext(observability.ContextWithRequestID(req.Context(), "rid-7"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "orders", fields["route"])
	assert.Equal(t, int64(http.StatusBadGateway), fields["status"])
	assert.Equal(t, "rid-7", fields["request_id"])
	duration, ok := fields["duration"].(time.Duration)
	require.True(t, ok)
	assert.GreaterOrEqual(t, duration, 5*time.Millisecond)
}

func TestHandler_RejectedLogHasNoRoute(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	target := filter.HandlerFunc(func(*filter.Exchange) error { return nil })
	h := NewHandler(newStaticRoutes(t, pathRoute("orders", "/orders")), target,
		WithHandlerLogger(observability.NewLoggerFromZap(zap.New(core))),
	)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users", nil))

	entries := logs.FilterMessage("request rejected").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "", entries[0].ContextMap()["route"])
	assert.Equal(t, int64(http.StatusNotFound), entries[0].ContextMap()["status"])
}
