package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/vyrodovalexey/gwcore/internal/admin"
	"github.com/vyrodovalexey/gwcore/internal/bodycache"
	"github.com/vyrodovalexey/gwcore/internal/config"
	"github.com/vyrodovalexey/gwcore/internal/event"
	"github.com/vyrodovalexey/gwcore/internal/gateway"
	"github.com/vyrodovalexey/gwcore/internal/middleware"
	"github.com/vyrodovalexey/gwcore/internal/observability"
	"github.com/vyrodovalexey/gwcore/internal/proxy"
	"github.com/vyrodovalexey/gwcore/internal/route"
	"github.com/vyrodovalexey/gwcore/internal/routecache"
	"github.com/vyrodovalexey/gwcore/internal/routedef"
	"github.com/vyrodovalexey/gwcore/internal/routesource"
)

// application holds all application components.
type application struct {
	config   *config.GatewayConfig
	bus      *event.Bus
	registry *bodycache.Registry
	cacher   *bodycache.Cacher
	cache    *routecache.Cache
	gateway  *gateway.Gateway
	handler  http.Handler
	admin    http.Handler
	watcher  *config.Watcher
	metrics  *observability.Metrics
	tracer   *observability.Tracer
	closers  []io.Closer
}

// initApplication wires every component and publishes the first route
// snapshot. A failing initial load is an error.
func initApplication(
	ctx context.Context,
	cfg *config.GatewayConfig,
	configPath string,
	logger observability.Logger,
) (*application, error) {
	app := &application{
		config:  cfg,
		bus:     event.NewBus(event.WithLogger(logger)),
		metrics: observability.NewMetrics("gateway"),
	}

	ok := false
	defer func() {
		if !ok {
			app.close(logger)
		}
	}()

	app.metrics.SetBuildInfo(version, gitCommit, buildTime)

	tracer, err := initTracer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	app.tracer = tracer

	bodyOpts := []bodycache.Option{
		bodycache.WithLogger(logger),
		bodycache.WithMetrics(app.metrics),
		bodycache.WithMaxBodySize(cfg.Spec.BodyCache.MaxBodySize),
	}
	app.registry = bodycache.NewRegistry(bodyOpts...)
	app.registry.Subscribe(app.bus)
	for _, id := range cfg.Spec.BodyCache.Routes {
		app.registry.Enable(id)
	}
	app.cacher = bodycache.NewCacher(bodyOpts...)

	builder := routedef.NewBuilder(
		routedef.WithBus(app.bus),
		routedef.WithCacher(app.cacher),
		routedef.WithLogger(logger),
	)

	source, checks, err := app.buildRouteSource(configPath, builder, logger)
	if err != nil {
		return nil, err
	}

	app.cache = routecache.New(source, app.bus,
		routecache.WithLogger(logger),
		routecache.WithMetrics(app.metrics),
		routecache.WithRefreshTimeout(cfg.Spec.Refresh.Timeout.Duration()),
	)
	app.closers = append(app.closers, app.cache)

	if result := app.cache.Refresh(ctx); result.Err != nil {
		return nil, fmt.Errorf("initial route load: %w", result.Err)
	}

	if cfg.Spec.Refresh.WatchConfig && configPath != "" {
		app.watcher, err = config.NewWatcher(configPath, app.bus,
			config.WithLogger(logger),
			config.WithDebounceDelay(cfg.Spec.Refresh.DebounceDelay.Duration()),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create config watcher: %w", err)
		}
	}

	app.handler = buildMiddlewareChain(app.buildProxyHandler(bodyOpts, logger), logger, app.metrics)

	gwOpts := []gateway.Option{gateway.WithLogger(logger)}
	if cfg.Spec.Admin != nil && cfg.Spec.Admin.Enabled {
		app.admin = app.buildAdminHandler(checks, logger)
		gwOpts = append(gwOpts, gateway.WithAdminHandler(app.admin))
	}

	app.gateway, err = gateway.New(cfg, app.handler, gwOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	ok = true
	return app, nil
}

// initTracer initializes the tracer.
func initTracer(cfg *config.GatewayConfig) (*observability.Tracer, error) {
	tracerCfg := observability.TracerConfig{
		ServiceName:  "gwcore",
		SamplingRate: 1.0,
	}

	if t := cfg.Spec.Observability.Tracing; t != nil {
		tracerCfg.Enabled = t.Enabled
		tracerCfg.OTLPEndpoint = t.OTLPEndpoint
		if t.SamplingRate > 0 {
			tracerCfg.SamplingRate = t.SamplingRate
		}
		if t.ServiceName != "" {
			tracerCfg.ServiceName = t.ServiceName
		}
	}

	return observability.NewTracer(tracerCfg)
}

// buildRouteSource creates the configured route source. File routes are
// always read from the configuration document and a Redis source is
// appended after them. The circuit breaker wraps the upstream and
// retries wrap the breaker, so an open breaker is not retried.
func (app *application) buildRouteSource(
	configPath string,
	builder *routedef.Builder,
	logger observability.Logger,
) (route.Source, []admin.Check, error) {
	spec := app.config.Spec.RouteSource

	var file route.Source
	if configPath != "" {
		file = routesource.NewFileSource(configPath, builder)
	} else {
		file = routesource.NewStaticSource(app.config.Spec.Routes, builder)
	}

	var (
		source route.Source = file
		checks []admin.Check
	)

	if spec.Type == config.RouteSourceRedis {
		redisSource, err := routesource.NewRedisSource(spec.Redis, builder,
			routesource.WithRedisLogger(logger),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redis route source: %w", err)
		}
		app.closers = append(app.closers, redisSource)
		checks = append(checks, admin.NewCheckFunc(redisSource.Name(), redisSource.Ping))

		if len(app.config.Spec.Routes) > 0 {
			source = routesource.NewCompositeSource(file, redisSource)
		} else {
			source = redisSource
		}
	}

	if cb := spec.CircuitBreaker; cb != nil && cb.Enabled {
		source = routesource.NewBreakerSource(source, routesource.BreakerSettings{
			Threshold:        cb.Threshold,
			Timeout:          cb.Timeout.Duration(),
			HalfOpenRequests: cb.HalfOpenRequests,
		}, routesource.WithBreakerLogger(logger))
	}

	if r := spec.Retry; r != nil {
		source = routesource.NewRetrySource(source, routesource.RetrySettings{
			MaxRetries:     r.MaxRetries,
			InitialBackoff: r.InitialBackoff.Duration(),
			MaxBackoff:     r.MaxBackoff.Duration(),
			JitterFactor:   routesource.DefaultJitterFactor,
		}, routesource.WithRetryLogger(logger))
	}

	logger.Info("route source configured",
		observability.String("source", route.SourceName(source)),
	)

	return source, checks, nil
}

// buildProxyHandler assembles the gateway handler: route lookup, the
// global body cache filters and the reverse proxy handoff.
func (app *application) buildProxyHandler(bodyOpts []bodycache.Option, logger observability.Logger) http.Handler {
	return gateway.NewHandler(app.cache,
		proxy.NewReverseProxy(proxy.WithProxyLogger(logger)),
		gateway.WithGlobalFilters(
			bodycache.NewReleaseFilter(bodyOpts...),
			bodycache.NewAdaptFilter(app.registry, app.cacher, bodyOpts...),
		),
		gateway.WithHandlerLogger(logger),
		gateway.WithHandlerMetrics(app.metrics),
	)
}

// buildMiddlewareChain wraps handler. The execution order (outermost
// executes first): RequestID -> Logging -> Recovery -> [gateway].
func buildMiddlewareChain(
	handler http.Handler,
	logger observability.Logger,
	metrics *observability.Metrics,
) http.Handler {
	return middleware.Chain(handler,
		middleware.RequestID(nil),
		middleware.Logging(logger),
		middleware.Recovery(logger, metrics),
	)
}

// buildAdminHandler creates the admin API.
func (app *application) buildAdminHandler(checks []admin.Check, logger observability.Logger) http.Handler {
	spec := app.config.Spec

	opts := []admin.Option{
		admin.WithLogger(logger),
		admin.WithRegistry(app.registry),
		admin.WithRefreshRateLimit(spec.Admin.RefreshRateLimit, spec.Admin.RefreshBurst),
		admin.WithCheck(admin.SnapshotCheck(app.cache)),
	}
	if m := spec.Observability.Metrics; m != nil && m.Enabled {
		opts = append(opts, admin.WithMetrics(app.metrics), admin.WithMetricsPath(m.Path))
	}
	for _, c := range checks {
		opts = append(opts, admin.WithCheck(c))
	}

	return admin.NewHandler(app.bus, app.cache, opts...)
}

// close releases resources acquired during initialization.
func (app *application) close(logger observability.Logger) {
	if app.watcher != nil {
		if err := app.watcher.Stop(); err != nil {
			logger.Error("failed to stop config watcher", observability.Error(err))
		}
		app.watcher = nil
	}
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			logger.Error("failed to close component", observability.Error(err))
		}
	}
	app.closers = nil
}
