package bodycache

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/vyrodovalexey/gwcore/internal/event"
	"github.com/vyrodovalexey/gwcore/internal/observability"
)

// Registry records the routes that have body caching enabled. Entries
// are never removed: once enabled, a route stays enabled for the
// lifetime of the registry. Lookups are lock-free.
type Registry struct {
	routes sync.Map
	count  atomic.Int64
	opts   options
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{opts: applyOptions(opts)}
}

// Enable turns on body caching for routeID. It reports whether the route
// was newly enabled. Requests already past the adapt stage are not
// affected.
func (r *Registry) Enable(routeID string) bool {
	if routeID == "" {
		return false
	}
	if _, loaded := r.routes.LoadOrStore(routeID, struct{}{}); loaded {
		return false
	}

	n := r.count.Add(1)
	r.opts.metrics.SetBodyCacheRoutes(int(n))
	r.opts.logger.Info("body caching enabled",
		observability.String("route", routeID),
	)
	return true
}

// Enabled reports whether body caching is enabled for routeID. Unknown
// routes are not enabled.
func (r *Registry) Enabled(routeID string) bool {
	_, ok := r.routes.Load(routeID)
	return ok
}

// Len returns the number of enabled routes.
func (r *Registry) Len() int {
	return int(r.count.Load())
}

// RouteIDs returns the enabled route ids in lexical order.
func (r *Registry) RouteIDs() []string {
	ids := make([]string, 0, r.Len())
	r.routes.Range(func(key, _ any) bool {
		ids = append(ids, key.(string))
		return true
	})
	slices.Sort(ids)
	return ids
}

// Subscribe enables caching for the route named by every
// event.EnableBodyCaching message published on bus.
func (r *Registry) Subscribe(bus *event.Bus) (unsubscribe func()) {
	return event.Subscribe(bus, func(msg event.EnableBodyCaching) {
		r.Enable(msg.RouteID)
	})
}
