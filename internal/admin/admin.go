package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/vyrodovalexey/gwcore/internal/bodycache"
	"github.com/vyrodovalexey/gwcore/internal/event"
	"github.com/vyrodovalexey/gwcore/internal/filter"
	"github.com/vyrodovalexey/gwcore/internal/observability"
	"github.com/vyrodovalexey/gwcore/internal/route"
)

// TriggerSource is the source recorded on refresh triggers published by
// the admin endpoint.
const TriggerSource = "admin"

// Default refresh throttling.
const (
	DefaultRefreshRateLimit = 1.0
	DefaultRefreshBurst     = 5
)

// SnapshotProvider returns the route snapshot current at call time.
type SnapshotProvider interface {
	Snapshot() *route.Snapshot
}

// Handler serves the admin API.
type Handler struct {
	bus         *event.Bus
	routes      SnapshotProvider
	registry    *bodycache.Registry
	metrics     *observability.Metrics
	metricsPath string
	logger      observability.Logger
	limiter     *rate.Limiter
	health      *Health
	engine      *gin.Engine
}

// Option is a functional option for configuring the handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithMetrics exposes metrics on /metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

// WithMetricsPath serves metrics on path instead of /metrics.
func WithMetricsPath(path string) Option {
	return func(h *Handler) {
		if path != "" {
			h.metricsPath = path
		}
	}
}

// WithRegistry lets the body cache endpoints report registry state.
func WithRegistry(registry *bodycache.Registry) Option {
	return func(h *Handler) {
		h.registry = registry
	}
}

// WithRefreshRateLimit throttles the refresh endpoint to limit requests
// per second with the given burst. A non-positive limit disables
// throttling.
func WithRefreshRateLimit(limit float64, burst int) Option {
	return func(h *Handler) {
		if limit <= 0 {
			h.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst <= 0 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
}

// WithCheck adds a readiness check.
func WithCheck(check Check) Option {
	return func(h *Handler) {
		h.health.AddCheck(check)
	}
}

// NewHandler creates the admin handler. Triggers and body cache requests
// are published on bus; routes are read from routes.
func NewHandler(bus *event.Bus, routes SnapshotProvider, opts ...Option) *Handler {
	h := &Handler{
		bus:         bus,
		routes:      routes,
		metricsPath: "/metrics",
		logger:      observability.NopLogger(),
		limiter:     rate.NewLimiter(rate.Limit(DefaultRefreshRateLimit), DefaultRefreshBurst),
	}
	h.health = NewHealth(h.logger)

	for _, opt := range opts {
		opt(h)
	}
	h.health.logger = h.logger

	h.engine = gin.New()
	h.RegisterRoutes(h.engine)

	return h
}

// RegisterRoutes registers the admin routes on engine.
func (h *Handler) RegisterRoutes(engine *gin.Engine) {
	gw := engine.Group("/actuator/gateway")
	gw.POST("/refresh", h.refresh)
	gw.GET("/routes", h.listRoutes)
	gw.GET("/routes/:id", h.getRoute)
	gw.POST("/routes/:id/body-cache", h.enableBodyCache)
	gw.GET("/body-cache", h.listBodyCache)

	engine.GET("/healthz", h.health.LivenessHandler())
	engine.GET("/readyz", h.health.ReadinessHandler())

	if h.metrics != nil {
		engine.GET(h.metricsPath, gin.WrapH(h.metrics.Handler()))
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.engine.ServeHTTP(w, r)
}

// RouteView is the JSON form of a published route.
type RouteView struct {
	ID       string            `json:"id"`
	URI      string            `json:"uri"`
	Order    int               `json:"order"`
	Filters  []string          `json:"filters,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RoutesView is the JSON form of a snapshot.
type RoutesView struct {
	Generation uint64      `json:"generation"`
	Routes     []RouteView `json:"routes"`
}

func (h *Handler) refresh(c *gin.Context) {
	if !h.limiter.Allow() {
		h.logger.Warn("refresh request rate limited",
			observability.String("remote_addr", c.ClientIP()),
		)
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "refresh rate limit exceeded"})
		return
	}

	trigger := event.NewRefreshTrigger(TriggerSource)
	delivered := h.bus.Publish(trigger)

	h.logger.Info("refresh triggered",
		observability.String("trigger_id", trigger.ID),
		observability.Int("subscribers", delivered),
	)

	c.JSON(http.StatusAccepted, gin.H{
		"triggerId":   trigger.ID,
		"subscribers": delivered,
	})
}

func (h *Handler) listRoutes(c *gin.Context) {
	snap := h.routes.Snapshot()

	view := RoutesView{
		Generation: snap.Generation(),
		Routes:     make([]RouteView, 0, snap.Len()),
	}
	for r := range snap.All() {
		view.Routes = append(view.Routes, toRouteView(r))
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) getRoute(c *gin.Context) {
	id := c.Param("id")
	r, ok := h.routes.Snapshot().Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "id": id})
		return
	}
	c.JSON(http.StatusOK, toRouteView(r))
}

func (h *Handler) enableBodyCache(c *gin.Context) {
	id := c.Param("id")
	h.bus.Publish(event.EnableBodyCaching{RouteID: id})

	h.logger.Info("body caching requested",
		observability.String("route_id", id),
	)

	body := gin.H{"routeId": id}
	if h.registry != nil {
		body["enabled"] = h.registry.Enabled(id)
	}
	c.JSON(http.StatusAccepted, body)
}

func (h *Handler) listBodyCache(c *gin.Context) {
	if h.registry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "body cache registry not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": h.registry.RouteIDs()})
}

func toRouteView(r *route.Route) RouteView {
	v := RouteView{
		ID:       r.ID,
		Order:    r.Order,
		Metadata: r.Metadata,
	}
	if r.URI != nil {
		v.URI = r.URI.String()
	}
	for _, f := range r.Filters {
		v.Filters = append(v.Filters, filter.NameOf(f))
	}
	return v
}
