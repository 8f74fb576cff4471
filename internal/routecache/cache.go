package routecache

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/gwcore/internal/event"
	"github.com/vyrodovalexey/gwcore/internal/observability"
	"github.com/vyrodovalexey/gwcore/internal/route"
	"github.com/vyrodovalexey/gwcore/internal/util"
)

// DefaultRefreshTimeout bounds a single upstream fetch.
const DefaultRefreshTimeout = 30 * time.Second

const tracerName = "github.com/vyrodovalexey/gwcore/routecache"

// Cache serves the current route snapshot and reloads it on trigger.
type Cache struct {
	source  route.Source
	bus     *event.Bus
	logger  observability.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
	timeout time.Duration

	current atomic.Pointer[route.Snapshot]

	// reloadMu serializes reloads, including synchronous Refresh calls.
	reloadMu sync.Mutex

	mu      sync.Mutex
	running bool
	pending []event.RefreshTrigger
	closed  bool

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe func()
}

// Option is a functional option for configuring the cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(c *Cache) {
		c.metrics = metrics
	}
}

// WithTracer sets the tracer used for reload spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Cache) {
		c.tracer = tracer
	}
}

// WithRefreshTimeout bounds each upstream fetch. Zero disables the bound.
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(c *Cache) {
		c.timeout = timeout
	}
}

// WithInitialSnapshot publishes s before the first reload.
func WithInitialSnapshot(s *route.Snapshot) Option {
	return func(c *Cache) {
		if s != nil {
			c.current.Store(s)
		}
	}
}

// New creates a cache over source. When bus is not nil the cache
// subscribes to refresh triggers on it and publishes refresh results.
// The cache starts with an empty snapshot.
func New(source route.Source, bus *event.Bus, opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		source:  source,
		bus:     bus,
		logger:  observability.NopLogger(),
		tracer:  otel.Tracer(tracerName),
		timeout: DefaultRefreshTimeout,
		ctx:     ctx,
		cancel:  cancel,
	}
	c.current.Store(route.Empty())

	for _, opt := range opts {
		opt(c)
	}

	if bus != nil {
		c.unsubscribe = event.Subscribe(bus, c.OnRefreshTrigger)
	}

	return c
}

// Snapshot returns the snapshot that is current at the time of the call.
func (c *Cache) Snapshot() *route.Snapshot {
	return c.current.Load()
}

// Routes returns the routes of the snapshot current at the time of the
// call. Iterating the sequence later, or more than once, still yields
// that snapshot even if a reload has published another one since.
func (c *Cache) Routes() iter.Seq[*route.Route] {
	return c.current.Load().All()
}

// Refresh reloads routes synchronously and returns the result, which is
// also published on the bus.
func (c *Cache) Refresh(ctx context.Context) event.RefreshResult {
	return c.reload(ctx, event.NewRefreshTrigger("direct"), 0)
}

// OnRefreshTrigger starts an asynchronous reload. If a reload is already
// running, the trigger is queued and served by one follow-up reload
// together with every other trigger that arrives meanwhile.
func (c *Cache) OnRefreshTrigger(trigger event.RefreshTrigger) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug("ignoring refresh trigger on closed route cache",
			observability.String("trigger_id", trigger.ID),
		)
		return
	}
	if c.running {
		c.pending = append(c.pending, trigger)
		c.mu.Unlock()
		c.metrics.RecordRefreshCoalesced()
		c.logger.Debug("refresh already running, trigger coalesced",
			observability.String("trigger_id", trigger.ID),
			observability.String("trigger_source", trigger.Source),
		)
		return
	}
	c.running = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.run(trigger)
}

// run executes reloads until no trigger is pending.
func (c *Cache) run(trigger event.RefreshTrigger) {
	defer c.wg.Done()

	coalesced := 0
	for {
		c.reload(c.ctx, trigger, coalesced)

		c.mu.Lock()
		if len(c.pending) == 0 || c.closed {
			c.running = false
			c.pending = nil
			c.mu.Unlock()
			return
		}
		trigger = c.pending[0]
		coalesced = len(c.pending) - 1
		c.pending = nil
		c.mu.Unlock()
	}
}

// reload runs one refresh and emits its result. The result is published
// after reloadMu is released, so result handlers may call Refresh.
func (c *Cache) reload(ctx context.Context, trigger event.RefreshTrigger, coalesced int) event.RefreshResult {
	result := c.refresh(ctx, trigger, coalesced)
	if c.bus != nil {
		c.bus.Publish(result)
	}
	return result
}

// refresh fetches routes and publishes a new snapshot on success.
func (c *Cache) refresh(ctx context.Context, trigger event.RefreshTrigger, coalesced int) event.RefreshResult {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	sourceName := route.SourceName(c.source)
	ctx, span := c.tracer.Start(ctx, "routecache.refresh",
		trace.WithAttributes(
			attribute.String("refresh.trigger_id", trigger.ID),
			attribute.String("refresh.trigger_source", trigger.Source),
			attribute.String("refresh.source", sourceName),
			attribute.Int("refresh.coalesced", coalesced),
		),
	)
	defer span.End()

	c.logger.Info("refreshing routes",
		observability.String("trigger_id", trigger.ID),
		observability.String("trigger_source", trigger.Source),
		observability.String("source", sourceName),
		observability.Int("coalesced", coalesced),
	)

	start := time.Now()
	previous := c.current.Load()

	snapshot, err := c.build(ctx, previous.Generation()+1)
	duration := time.Since(start)

	result := event.RefreshResult{
		TriggerID: trigger.ID,
		Coalesced: coalesced,
		Duration:  duration,
	}

	if err != nil {
		result.Err = util.NewRefreshError(sourceName, err)
		result.Generation = previous.Generation()
		result.Routes = previous.Len()

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.RecordRefresh(observability.RefreshResultFailure, duration)
		c.logger.Error("route refresh failed, keeping current routes",
			observability.String("trigger_id", trigger.ID),
			observability.Uint64("generation", previous.Generation()),
			observability.Duration("duration", duration),
			observability.Error(err),
		)
	} else {
		c.current.Store(snapshot)
		result.Generation = snapshot.Generation()
		result.Routes = snapshot.Len()

		span.SetAttributes(
			attribute.Int64("refresh.generation", int64(snapshot.Generation())),
			attribute.Int("refresh.routes", snapshot.Len()),
		)
		c.metrics.RecordRefresh(observability.RefreshResultSuccess, duration)
		c.metrics.SetSnapshot(snapshot.Generation(), snapshot.Len())
		c.logger.Info("routes refreshed",
			observability.String("trigger_id", trigger.ID),
			observability.Uint64("generation", snapshot.Generation()),
			observability.Int("routes", snapshot.Len()),
			observability.Duration("duration", duration),
		)
	}

	return result
}

// build fetches routes and assembles a snapshot. A panicking source is
// reported as a failed fetch.
func (c *Cache) build(ctx context.Context, generation uint64) (snapshot *route.Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snapshot = nil
			err = fmt.Errorf("route source panicked: %v", r)
		}
	}()

	routes, err := c.source.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return route.NewSnapshot(routes, generation)
}

// Close stops accepting triggers, cancels a running reload and waits for
// the reload goroutine to exit.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.cancel()
	c.wg.Wait()
	return nil
}
