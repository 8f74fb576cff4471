package gateway

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/gwcore/internal/bodycache"
	"github.com/vyrodovalexey/gwcore/internal/filter"
	"github.com/vyrodovalexey/gwcore/internal/observability"
	"github.com/vyrodovalexey/gwcore/internal/route"
	"github.com/vyrodovalexey/gwcore/internal/util"
)

// SnapshotProvider supplies the current route snapshot.
type SnapshotProvider interface {
	Snapshot() *route.Snapshot
}

// Handler runs requests through the filter chain of their route.
type Handler struct {
	routes  SnapshotProvider
	target  filter.Handler
	global  []filter.Filter
	logger  observability.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// HandlerOption is a functional option for configuring the handler.
type HandlerOption func(*Handler)

// WithGlobalFilters sets the filters applied to every route.
func WithGlobalFilters(filters ...filter.Filter) HandlerOption {
	return func(h *Handler) {
		h.global = filters
	}
}

// WithHandlerLogger sets the logger.
func WithHandlerLogger(logger observability.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithHandlerMetrics sets the metrics sink.
func WithHandlerMetrics(metrics *observability.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

// WithHandlerTracer sets the tracer.
func WithHandlerTracer(tracer trace.Tracer) HandlerOption {
	return func(h *Handler) {
		h.tracer = tracer
	}
}

// NewHandler creates a handler resolving routes from routes and handing
// matched requests to target.
func NewHandler(routes SnapshotProvider, target filter.Handler, opts ...HandlerOption) *Handler {
	h := &Handler{
		routes: routes,
		target: target,
		logger: observability.NopLogger(),
		tracer: otel.Tracer("gwcore/gateway"),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// ServeHTTP implements http.Handler. The route is resolved against the
// snapshot current when the request arrived; a reload during the
// request does not affect it.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "gateway.request",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
		),
	)
	defer span.End()

	ctx = util.ContextWithStartTime(ctx, time.Now())
	r = r.WithContext(ctx)

	sw := util.NewStatusCapturingResponseWriter(w)
	ex := filter.NewExchange(sw, r)

	snapshot := h.routes.Snapshot()
	span.SetAttributes(attribute.Int64("gateway.snapshot.generation", int64(snapshot.Generation()))) //nolint:gosec // generation fits

	rt, err := snapshot.Lookup(ex)
	if err == nil {
		span.SetAttributes(attribute.String("gateway.route", rt.ID))
		ex.Attributes().Put(filter.RouteAttr, rt)
		ex = ex.WithRequest(ex.Request().WithContext(util.ContextWithRouteID(ctx, rt.ID)))

		executor := filter.NewExecutor(h.target, h.global, rt.Filters, filter.WithLogger(h.logger))
		err = executor.Execute(ex)
	}

	// Predicates may have cached a body for a request that never reached
	// a chain. Inside a chain this is a no-op.
	bodycache.Discard(ex)

	reqCtx := ex.Context()
	if err != nil {
		resp := classify(r.Context(), err)
		h.logFailure(reqCtx, r, resp.status, err)
		resp.write(sw)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(attribute.Int("http.response.status_code", sw.StatusCode))
	h.metrics.RecordRequest(r.Method, util.RouteIDFromContext(reqCtx), sw.StatusCode, util.ElapsedTime(reqCtx))
}

func (h *Handler) logFailure(ctx context.Context, r *http.Request, status int, err error) {
	fields := []observability.Field{
		observability.String("method", r.Method),
		observability.String("path", r.URL.Path),
		observability.String("route", util.RouteIDFromContext(ctx)),
		observability.Int("status", status),
		observability.Duration("duration", util.ElapsedTime(ctx)),
		observability.Error(err),
	}

	logger := h.logger.WithContext(ctx)
	switch {
	case status == StatusClientClosedRequest:
		logger.Debug("client closed request", fields...)
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", fields...)
	default:
		logger.Debug("request rejected", fields...)
	}
}
