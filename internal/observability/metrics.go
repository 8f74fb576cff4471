package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute is the label value used for requests that do not
// match any published route, ensuring bounded cardinality.
const unmatchedRoute = "unmatched"

// Refresh result label values.
const (
	RefreshResultSuccess = "success"
	RefreshResultFailure = "failure"
)

// Metrics holds all Prometheus metrics for the gateway core.
//
// Every recording method is safe to call on a nil *Metrics, so
// components constructed without metrics (tests, embedded use) do not
// need to guard each call site.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	panicsRecovered prometheus.Counter

	refreshTotal       *prometheus.CounterVec
	refreshDuration    prometheus.Histogram
	refreshCoalesced   prometheus.Counter
	snapshotGeneration prometheus.Gauge
	snapshotRoutes     prometheus.Gauge

	bodyBuffersAllocated prometheus.Counter
	bodyBuffersReleased  prometheus.Counter
	bodyBytesInUse       prometheus.Gauge
	bodyCacheRoutes      prometheus.Gauge

	buildInfo *prometheus.GaugeVec
	registry  *prometheus.Registry
}

// NewMetrics creates a new Metrics instance backed by its own registry.
//
//nolint:funlen // metric initialization requires many declarations
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "gateway"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of requests processed by the filter chain",
		},
		[]string{"method", "route", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Filter chain duration in seconds",
			Buckets: []float64{
				.001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
		[]string{"method", "route", "status"},
	)

	m.panicsRecovered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panics_recovered_total",
			Help:      "Total number of panics recovered while serving requests",
		},
	)

	m.refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "route_cache",
			Name:      "refresh_total",
			Help: "Total number of route table " +
				"reloads by result",
		},
		[]string{"result"},
	)

	m.refreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "route_cache",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of route table reloads",
			Buckets: []float64{
				.005, .01, .05, .1, .25, .5, 1, 2.5, 5,
			},
		},
	)

	m.refreshCoalesced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "route_cache",
			Name:      "refresh_coalesced_total",
			Help: "Refresh triggers folded into an " +
				"already scheduled reload",
		},
	)

	m.snapshotGeneration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "route_cache",
			Name:      "snapshot_generation",
			Help:      "Generation of the published route snapshot",
		},
	)

	m.snapshotRoutes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "route_cache",
			Name:      "snapshot_routes",
			Help:      "Number of routes in the published snapshot",
		},
	)

	m.bodyBuffersAllocated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "body_cache",
			Name:      "buffers_allocated_total",
			Help:      "Total number of cached request body buffers allocated",
		},
	)

	m.bodyBuffersReleased = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "body_cache",
			Name:      "buffers_released_total",
			Help:      "Total number of cached request body buffers released",
		},
	)

	m.bodyBytesInUse = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "body_cache",
			Name:      "bytes_in_use",
			Help:      "Bytes held by allocated, not yet released body buffers",
		},
	)

	m.bodyCacheRoutes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "body_cache",
			Name:      "routes_enabled",
			Help:      "Number of routes with body caching enabled",
		},
	)

	m.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information for the gateway",
		},
		[]string{"version", "commit", "build_time"},
	)

	m.registerCollectors()

	return m
}

// registerCollectors registers all metric collectors with the
// Prometheus registry.
func (m *Metrics) registerCollectors() {
	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.panicsRecovered,
		m.refreshTotal,
		m.refreshDuration,
		m.refreshCoalesced,
		m.snapshotGeneration,
		m.snapshotRoutes,
		m.bodyBuffersAllocated,
		m.bodyBuffersReleased,
		m.bodyBytesInUse,
		m.bodyCacheRoutes,
		m.buildInfo,
	)

	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(
		collectors.NewProcessCollector(
			collectors.ProcessCollectorOpts{},
		),
	)
}

// RecordRequest records a request that went through the filter chain.
// The route parameter is the resolved route id, never the raw path.
func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = unmatchedRoute
	}
	statusStr := strconv.Itoa(status)
	m.requestsTotal.WithLabelValues(method, route, statusStr).Inc()
	m.requestDuration.WithLabelValues(method, route, statusStr).Observe(duration.Seconds())
}

// RecordPanicRecovered records a panic recovered by the HTTP stack.
func (m *Metrics) RecordPanicRecovered() {
	if m == nil {
		return
	}
	m.panicsRecovered.Inc()
}

// RecordRefresh records a completed route table reload.
func (m *Metrics) RecordRefresh(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(result).Inc()
	m.refreshDuration.Observe(duration.Seconds())
}

// RecordRefreshCoalesced records a trigger that did not start its own reload.
func (m *Metrics) RecordRefreshCoalesced() {
	if m == nil {
		return
	}
	m.refreshCoalesced.Inc()
}

// SetSnapshot records the generation and size of the published snapshot.
func (m *Metrics) SetSnapshot(generation uint64, routes int) {
	if m == nil {
		return
	}
	m.snapshotGeneration.Set(float64(generation))
	m.snapshotRoutes.Set(float64(routes))
}

// RecordBufferAllocated records a cached body buffer of size bytes.
func (m *Metrics) RecordBufferAllocated(size int) {
	if m == nil {
		return
	}
	m.bodyBuffersAllocated.Inc()
	m.bodyBytesInUse.Add(float64(size))
}

// RecordBufferReleased records the release of a cached body buffer.
func (m *Metrics) RecordBufferReleased(size int) {
	if m == nil {
		return
	}
	m.bodyBuffersReleased.Inc()
	m.bodyBytesInUse.Sub(float64(size))
}

// SetBodyCacheRoutes records how many routes have body caching enabled.
func (m *Metrics) SetBodyCacheRoutes(n int) {
	if m == nil {
		return
	}
	m.bodyCacheRoutes.Set(float64(n))
}

// SetBuildInfo sets the build information metric.
func (m *Metrics) SetBuildInfo(version, commit, buildTime string) {
	if m == nil {
		return
	}
	m.buildInfo.WithLabelValues(version, commit, buildTime).Set(1)
}

// RegisterCollector registers an additional collector with the registry.
func (m *Metrics) RegisterCollector(c prometheus.Collector) error {
	return m.registry.Register(c)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(
		m.registry,
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	)
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
