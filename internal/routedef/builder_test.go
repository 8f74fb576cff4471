package routedef

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/gwcore/internal/bodycache"
	"github.com/vyrodovalexey/gwcore/internal/config"
	"github.com/vyrodovalexey/gwcore/internal/event"
	"github.com/vyrodovalexey/gwcore/internal/filter"
	"github.com/vyrodovalexey/gwcore/internal/route"
	"github.com/vyrodovalexey/gwcore/internal/util"
)

func intPtr(v int) *int { return &v }

func newTestBuilder(t *testing.T) (*Builder, *bodycache.Registry) {
	t.Helper()

	bus := event.NewBus()
	registry := bodycache.NewRegistry()
	unsubscribe := registry.Subscribe(bus)
	t.Cleanup(unsubscribe)

	return NewBuilder(WithBus(bus)), registry
}

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	b, registry := newTestBuilder(t)

	r, err := b.Build(&config.RouteDefinition{
		ID:    "orders",
		URI:   "http://orders.internal:8080",
		Order: 5,
		Predicates: []config.PredicateDefinition{
			{Name: "Path", Args: map[string]string{"prefix": "/orders"}},
			{Name: "method", Args: map[string]string{"methods": "GET, POST"}},
		},
		Filters: []config.FilterDefinition{
			{Name: "StripPrefix", Args: map[string]string{"parts": "1"}},
			{Name: "AddRequestHeader", Args: map[string]string{"name": "X-Gw", "value": "1"}, Order: intPtr(-10)},
		},
		CacheBody: true,
		Metadata:  map[string]string{"team": "checkout"},
	})
	require.NoError(t, err)

	assert.Equal(t, "orders", r.ID)
	assert.Equal(t, 5, r.Order)
	assert.Equal(t, "orders.internal:8080", r.URI.Host)
	assert.Equal(t, "checkout", r.Metadata["team"])
	assert.True(t, registry.Enabled("orders"))

	require.Len(t, r.Filters, 2)
	assert.Equal(t, 1, filter.OrderOf(r.Filters[0]))
	assert.Equal(t, "StripPrefix", filter.NameOf(r.Filters[0]))
	assert.Equal(t, -10, filter.OrderOf(r.Filters[1]))
	assert.Equal(t, "AddRequestHeader", filter.NameOf(r.Filters[1]))

	matches := func(method, path string) bool {
		ex := filter.NewExchange(httptest.NewRecorder(), httptest.NewRequest(method, path, nil))
		ok, err := r.Matches(ex)
		require.NoError(t, err)
		return ok
	}
	assert.True(t, matches(http.MethodGet, "/orders/1"))
	assert.False(t, matches(http.MethodDelete, "/orders/1"))
	assert.False(t, matches(http.MethodGet, "/users"))
}

func TestBuilder_BuildWithoutPredicatesMatchesAll(t *testing.T) {
	t.Parallel()

	b, registry := newTestBuilder(t)

	r, err := b.Build(&config.RouteDefinition{ID: "all", URI: "http://backend"})
	require.NoError(t, err)

	ex := filter.NewExchange(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	ok, err := r.Matches(ex)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, r.Filters)
	assert.False(t, registry.Enabled("all"))
}

func TestBuilder_BuildErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		def  config.RouteDefinition
	}{
		{
			name: "missing id",
			def:  config.RouteDefinition{URI: "http://backend"},
		},
		{
			name: "invalid uri",
			def:  config.RouteDefinition{ID: "r", URI: "ftp://backend"},
		},
		{
			name: "unknown predicate",
			def: config.RouteDefinition{ID: "r", URI: "http://backend",
				Predicates: []config.PredicateDefinition{{Name: "Weight"}}},
		},
		{
			name: "unknown filter",
			def: config.RouteDefinition{ID: "r", URI: "http://backend",
				Filters: []config.FilterDefinition{{Name: "Retry"}}},
		},
		{
			name: "bad predicate args",
			def: config.RouteDefinition{ID: "r", URI: "http://backend",
				Predicates: []config.PredicateDefinition{{Name: "Path", Args: map[string]string{"regex": "[x"}}}},
		},
		{
			name: "bad filter args",
			def: config.RouteDefinition{ID: "r", URI: "http://backend",
				Filters: []config.FilterDefinition{{Name: "StripPrefix", Args: map[string]string{"parts": "0"}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, _ := newTestBuilder(t)
			_, err := b.Build(&tt.def)
			require.Error(t, err)
			assert.True(t, errors.Is(err, util.ErrConfigInvalid))
		})
	}
}

func TestBuilder_BuildAllStopsAtFirstError(t *testing.T) {
	t.Parallel()

	b, _ := newTestBuilder(t)

	routes, err := b.BuildAll([]config.RouteDefinition{
		{ID: "a", URI: "http://a"},
		{ID: "b", URI: "http://b"},
	})
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, "a", routes[0].ID)
	assert.Equal(t, "b", routes[1].ID)

	_, err = b.BuildAll([]config.RouteDefinition{
		{ID: "a", URI: "http://a"},
		{ID: "", URI: "http://b"},
	})
	assert.Error(t, err)
}

func TestBuilder_RegisterCustomFactories(t *testing.T) {
	t.Parallel()

	b, _ := newTestBuilder(t)
	b.RegisterPredicate("Never", func(*BuildContext, map[string]string) (route.Predicate, error) {
		return route.PredicateFunc(func(*filter.Exchange) (bool, error) { return false, nil }), nil
	})
	b.RegisterFilter("Noop", func(*BuildContext, map[string]string) (filter.Filter, error) {
		return filter.FilterFunc(func(ex *filter.Exchange, chain filter.Chain) error {
			return chain.Filter(ex)
		}), nil
	})

	assert.Contains(t, b.Predicates(), "never")
	assert.Contains(t, b.Filters(), "noop")

	r, err := b.Build(&config.RouteDefinition{
		ID:         "custom",
		URI:        "http://backend",
		Predicates: []config.PredicateDefinition{{Name: "never"}},
		Filters:    []config.FilterDefinition{{Name: "NOOP"}},
	})
	require.NoError(t, err)

	ex := filter.NewExchange(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	ok, err := r.Matches(ex)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuilder_PredicatesShortCircuit(t *testing.T) {
	t.Parallel()

	b, _ := newTestBuilder(t)
	calls := 0
	b.RegisterPredicate("Count", func(*BuildContext, map[string]string) (route.Predicate, error) {
		return route.PredicateFunc(func(*filter.Exchange) (bool, error) {
			calls++
			return true, nil
		}), nil
	})

	r, err := b.Build(&config.RouteDefinition{
		ID:  "r",
		URI: "http://backend",
		Predicates: []config.PredicateDefinition{
			{Name: "Path", Args: map[string]string{"exact": "/only"}},
			{Name: "Count"},
		},
	})
	require.NoError(t, err)

	ex := filter.NewExchange(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/other", nil))
	ok, err := r.Matches(ex)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, calls)
}
