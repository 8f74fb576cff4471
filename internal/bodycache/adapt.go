package bodycache

import (
	"net/http"

	"github.com/vyrodovalexey/gwcore/internal/filter"
	"github.com/vyrodovalexey/gwcore/internal/observability"
	"github.com/vyrodovalexey/gwcore/internal/route"
)

// AdaptOrder runs the adapt filter right after the release filter.
const AdaptOrder = filter.HighestPrecedence + 1000

// AdaptFilter makes the buffered body the active request body for all
// later stages.
type AdaptFilter struct {
	registry *Registry
	cacher   *Cacher
	logger   observability.Logger
}

// NewAdaptFilter creates an adapt filter reading the registry and
// buffering bodies through cacher.
func NewAdaptFilter(registry *Registry, cacher *Cacher, opts ...Option) *AdaptFilter {
	o := applyOptions(opts)
	return &AdaptFilter{registry: registry, cacher: cacher, logger: o.logger}
}

// Order implements filter.Ordered.
func (f *AdaptFilter) Order() int { return AdaptOrder }

// Name implements filter.Named.
func (f *AdaptFilter) Name() string { return "AdaptCachedBody" }

// Filter implements filter.Filter.
func (f *AdaptFilter) Filter(ex *filter.Exchange, chain filter.Chain) error {
	// A predicate that read the body left a replaying request behind.
	if v, ok := ex.Attributes().Remove(filter.CachedRequestDecoratorAttr); ok {
		if decorated, ok := v.(*http.Request); ok && decorated != nil {
			// The decorator was built before the route was resolved.
			if decorated.Context() != ex.Context() {
				decorated = decorated.WithContext(ex.Context())
			}
			return chain.Filter(ex.WithRequest(decorated))
		}
		f.logger.Warn("ignoring cached request decorator of unexpected type")
	}

	rt, ok := filter.Attribute[*route.Route](ex, filter.RouteAttr)
	if !ok || rt == nil || !f.registry.Enabled(rt.ID) {
		return chain.Filter(ex)
	}
	if ex.Attributes().Has(filter.CachedRequestBodyAttr) {
		return chain.Filter(ex)
	}

	return f.cacher.CacheRequestBody(ex, rt.ID, false, func(req *http.Request) error {
		return chain.Filter(ex.WithRequest(req))
	})
}
