package routedef

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/vyrodovalexey/gwcore/internal/bodycache"
	"github.com/vyrodovalexey/gwcore/internal/config"
	"github.com/vyrodovalexey/gwcore/internal/event"
	"github.com/vyrodovalexey/gwcore/internal/filter"
	"github.com/vyrodovalexey/gwcore/internal/observability"
	"github.com/vyrodovalexey/gwcore/internal/route"
	"github.com/vyrodovalexey/gwcore/internal/util"
)

// BuildContext is what factories see of the route being built.
type BuildContext struct {
	RouteID string
	Cacher  *bodycache.Cacher
	Logger  observability.Logger

	builder *Builder
}

// EnableBodyCaching requests body caching for the route being built.
func (c *BuildContext) EnableBodyCaching() {
	c.builder.enableBodyCaching(c.RouteID)
}

// PredicateFactory creates a predicate from definition arguments.
type PredicateFactory func(ctx *BuildContext, args map[string]string) (route.Predicate, error)

// FilterFactory creates a filter from definition arguments.
type FilterFactory func(ctx *BuildContext, args map[string]string) (filter.Filter, error)

// Builder compiles route definitions using named factories.
type Builder struct {
	predicates map[string]PredicateFactory
	filters    map[string]FilterFactory
	cacher     *bodycache.Cacher
	bus        *event.Bus
	logger     observability.Logger
}

// Option is a functional option for configuring the builder.
type Option func(*Builder)

// WithCacher sets the body cacher used by body reading predicates.
func WithCacher(cacher *bodycache.Cacher) Option {
	return func(b *Builder) {
		b.cacher = cacher
	}
}

// WithBus sets the bus that body caching requests are published on.
func WithBus(bus *event.Bus) Option {
	return func(b *Builder) {
		b.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a builder with the built-in factories registered.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		predicates: make(map[string]PredicateFactory),
		filters:    make(map[string]FilterFactory),
		logger:     observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(b)
	}
	if b.cacher == nil {
		b.cacher = bodycache.NewCacher(bodycache.WithLogger(b.logger))
	}

	registerPredicates(b)
	registerFilters(b)

	return b
}

// RegisterPredicate adds or replaces a predicate factory. Names are
// case-insensitive.
func (b *Builder) RegisterPredicate(name string, factory PredicateFactory) {
	b.predicates[strings.ToLower(name)] = factory
}

// RegisterFilter adds or replaces a filter factory. Names are
// case-insensitive.
func (b *Builder) RegisterFilter(name string, factory FilterFactory) {
	b.filters[strings.ToLower(name)] = factory
}

// Predicates returns the registered predicate names.
func (b *Builder) Predicates() []string {
	return sortedKeys(b.predicates)
}

// Filters returns the registered filter names.
func (b *Builder) Filters() []string {
	return sortedKeys(b.filters)
}

// Build compiles one definition.
func (b *Builder) Build(def *config.RouteDefinition) (*route.Route, error) {
	if err := config.ValidateRouteDefinition(def); err != nil {
		return nil, err
	}

	uri, err := url.Parse(def.URI)
	if err != nil {
		return nil, fmt.Errorf("route %s: invalid uri: %w", def.ID, err)
	}

	ctx := &BuildContext{
		RouteID: def.ID,
		Cacher:  b.cacher,
		Logger:  b.logger.With(observability.String("route", def.ID)),
		builder: b,
	}

	predicate, err := b.buildPredicate(ctx, def.Predicates)
	if err != nil {
		return nil, err
	}

	filters, err := b.buildFilters(ctx, def.Filters)
	if err != nil {
		return nil, err
	}

	if def.CacheBody {
		ctx.EnableBodyCaching()
	}

	metadata := make(map[string]string, len(def.Metadata))
	for k, v := range def.Metadata {
		metadata[k] = v
	}

	return &route.Route{
		ID:        def.ID,
		Predicate: predicate,
		Filters:   filters,
		URI:       uri,
		Order:     def.Order,
		Metadata:  metadata,
	}, nil
}

// BuildAll compiles definitions in order and stops at the first error.
func (b *Builder) BuildAll(defs []config.RouteDefinition) ([]*route.Route, error) {
	routes := make([]*route.Route, 0, len(defs))
	for i := range defs {
		r, err := b.Build(&defs[i])
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, nil
}

func (b *Builder) buildPredicate(ctx *BuildContext, defs []config.PredicateDefinition) (route.Predicate, error) {
	if len(defs) == 0 {
		return route.Any, nil
	}

	predicates := make([]route.Predicate, 0, len(defs))
	for i, def := range defs {
		factory, ok := b.predicates[strings.ToLower(def.Name)]
		if !ok {
			return nil, util.NewConfigError(
				fmt.Sprintf("route %s predicates[%d]", ctx.RouteID, i),
				fmt.Sprintf("unknown predicate %q", def.Name),
			)
		}
		p, err := factory(ctx, def.Args)
		if err != nil {
			return nil, util.NewConfigErrorWithCause(
				fmt.Sprintf("route %s predicates[%d]", ctx.RouteID, i),
				fmt.Sprintf("predicate %s: %v", def.Name, err),
				err,
			)
		}
		predicates = append(predicates, p)
	}

	if len(predicates) == 1 {
		return predicates[0], nil
	}
	return allOf(predicates), nil
}

// buildFilters creates route filters. A filter without an explicit order
// gets its one-based position so declaration order is kept.
func (b *Builder) buildFilters(ctx *BuildContext, defs []config.FilterDefinition) ([]filter.Filter, error) {
	filters := make([]filter.Filter, 0, len(defs))
	for i, def := range defs {
		factory, ok := b.filters[strings.ToLower(def.Name)]
		if !ok {
			return nil, util.NewConfigError(
				fmt.Sprintf("route %s filters[%d]", ctx.RouteID, i),
				fmt.Sprintf("unknown filter %q", def.Name),
			)
		}
		f, err := factory(ctx, def.Args)
		if err != nil {
			return nil, util.NewConfigErrorWithCause(
				fmt.Sprintf("route %s filters[%d]", ctx.RouteID, i),
				fmt.Sprintf("filter %s: %v", def.Name, err),
				err,
			)
		}

		order := i + 1
		if def.Order != nil {
			order = *def.Order
		}
		filters = append(filters, filter.WithOrder(f, order))
	}
	return filters, nil
}

func (b *Builder) enableBodyCaching(routeID string) {
	if b.bus == nil {
		b.logger.Warn("body caching requested without an event bus",
			observability.String("route", routeID),
		)
		return
	}
	b.bus.Publish(event.EnableBodyCaching{RouteID: routeID})
}

// allOf matches when every predicate matches, evaluated in order.
func allOf(predicates []route.Predicate) route.Predicate {
	return route.PredicateFunc(func(ex *filter.Exchange) (bool, error) {
		for _, p := range predicates {
			ok, err := p.Match(ex)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
