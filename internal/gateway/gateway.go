package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vyrodovalexey/gwcore/internal/config"
	"github.com/vyrodovalexey/gwcore/internal/observability"
)

// Listener names.
const (
	ProxyListener = "proxy"
	AdminListener = "admin"
)

// State represents the gateway state.
type State int32

const (
	// StateStopped indicates the gateway is stopped.
	StateStopped State = iota
	// StateStarting indicates the gateway is starting.
	StateStarting
	// StateRunning indicates the gateway is running.
	StateRunning
	// StateStopping indicates the gateway is stopping.
	StateStopping
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Gateway owns the proxy listener and, when configured, the admin
// listener.
type Gateway struct {
	config       *config.GatewayConfig
	logger       observability.Logger
	handler      http.Handler
	adminHandler http.Handler
	listeners    []*Listener
	state        atomic.Int32
	startTime    time.Time
	mu           sync.RWMutex

	shutdownTimeout time.Duration
}

// Option is a functional option for configuring the gateway.
type Option func(*Gateway)

// WithLogger sets the logger for the gateway.
func WithLogger(logger observability.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithShutdownTimeout sets the shutdown timeout.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		g.shutdownTimeout = timeout
	}
}

// WithAdminHandler serves handler on the admin listener when the admin
// server is enabled.
func WithAdminHandler(handler http.Handler) Option {
	return func(g *Gateway) {
		g.adminHandler = handler
	}
}

// New creates a new Gateway instance.
func New(cfg *config.GatewayConfig, handler http.Handler, opts ...Option) (*Gateway, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if handler == nil {
		return nil, fmt.Errorf("proxy handler is required")
	}

	g := &Gateway{
		config:          cfg,
		handler:         handler,
		logger:          observability.NopLogger(),
		shutdownTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(g)
	}

	g.state.Store(int32(StateStopped))

	return g, nil
}

// Start starts the gateway.
func (g *Gateway) Start(ctx context.Context) error {
	if !g.state.CompareAndSwap(int32(StateStopped), int32(StateStarting)) {
		return ErrGatewayNotStopped
	}

	g.logger.Info("starting gateway",
		observability.String("name", g.config.Metadata.Name),
	)

	if err := g.createListeners(); err != nil {
		g.state.Store(int32(StateStopped))
		return fmt.Errorf("failed to create listeners: %w", err)
	}

	for _, listener := range g.listeners {
		if err := listener.Start(ctx); err != nil {
			// Stop already started listeners
			g.stopListeners(ctx)
			g.state.Store(int32(StateStopped))
			return fmt.Errorf("failed to start listener %s: %w", listener.Name(), err)
		}
	}

	g.mu.Lock()
	g.startTime = time.Now()
	g.mu.Unlock()
	g.state.Store(int32(StateRunning))

	g.logger.Info("gateway started",
		observability.String("name", g.config.Metadata.Name),
		observability.Int("listeners", len(g.listeners)),
	)

	return nil
}

// Stop stops the gateway gracefully.
func (g *Gateway) Stop(ctx context.Context) error {
	if !g.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return ErrGatewayNotRunning
	}

	g.logger.Info("stopping gateway",
		observability.String("name", g.config.Metadata.Name),
	)

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.shutdownTimeout)
		defer cancel()
	}

	g.stopListeners(ctx)

	g.state.Store(int32(StateStopped))

	g.logger.Info("gateway stopped",
		observability.String("name", g.config.Metadata.Name),
	)

	return nil
}

// State returns the current gateway state.
func (g *Gateway) State() State {
	return State(g.state.Load())
}

// IsRunning returns true if the gateway is running.
func (g *Gateway) IsRunning() bool {
	return g.State() == StateRunning
}

// Uptime returns the gateway uptime.
func (g *Gateway) Uptime() time.Duration {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.startTime.IsZero() || !g.IsRunning() {
		return 0
	}
	return time.Since(g.startTime)
}

// Listener returns the listener with the given name.
func (g *Gateway) Listener(name string) (*Listener, bool) {
	for _, l := range g.listeners {
		if l.Name() == name {
			return l, true
		}
	}
	return nil, false
}

// createListeners creates listeners from configuration.
func (g *Gateway) createListeners() error {
	g.listeners = g.listeners[:0]

	proxy, err := NewListener(ProxyListener, g.config.Spec.Listener, g.handler, WithListenerLogger(g.logger))
	if err != nil {
		return err
	}
	g.listeners = append(g.listeners, proxy)

	admin := g.config.Spec.Admin
	if admin == nil || !admin.Enabled || g.adminHandler == nil {
		return nil
	}

	adminListener, err := NewListener(AdminListener, config.ListenerConfig{
		Bind: admin.Bind,
		Port: admin.Port,
	}, g.adminHandler, WithListenerLogger(g.logger))
	if err != nil {
		return err
	}
	g.listeners = append(g.listeners, adminListener)

	return nil
}

// stopListeners stops all listeners concurrently.
func (g *Gateway) stopListeners(ctx context.Context) {
	var wg sync.WaitGroup

	for _, listener := range g.listeners {
		wg.Add(1)
		go func(l *Listener) {
			defer wg.Done()
			if err := l.Stop(ctx); err != nil {
				g.logger.Error("failed to stop listener",
					observability.String("name", l.Name()),
					observability.Error(err),
				)
			}
		}(listener)
	}

	wg.Wait()
}
