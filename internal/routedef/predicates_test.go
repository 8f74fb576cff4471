package routedef

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/gwcore/internal/bodycache"
	"github.com/vyrodovalexey/gwcore/internal/config"
	"github.com/vyrodovalexey/gwcore/internal/filter"
	"github.com/vyrodovalexey/gwcore/internal/route"
)

func buildPredicate(t *testing.T, b *Builder, name string, args map[string]string) *route.Route {
	t.Helper()

	r, err := b.Build(&config.RouteDefinition{
		ID:         "r",
		URI:        "http://backend",
		Predicates: []config.PredicateDefinition{{Name: name, Args: args}},
	})
	require.NoError(t, err)
	return r
}

func matchRequest(t *testing.T, r *route.Route, req *http.Request) bool {
	t.Helper()

	ok, err := r.Matches(filter.NewExchange(httptest.NewRecorder(), req))
	require.NoError(t, err)
	return ok
}

func TestPathPredicate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     map[string]string
		path     string
		expected bool
	}{
		{name: "exact", args: map[string]string{"exact": "/health"}, path: "/health", expected: true},
		{name: "prefix", args: map[string]string{"prefix": "/api"}, path: "/api/v1", expected: true},
		{name: "regex", args: map[string]string{"regex": `^/items/\d+$`}, path: "/items/7", expected: true},
		{name: "pattern", args: map[string]string{"pattern": "/files/**"}, path: "/files/a/b", expected: true},
		{name: "prefix miss", args: map[string]string{"prefix": "/api"}, path: "/web", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, _ := newTestBuilder(t)
			r := buildPredicate(t, b, "Path", tt.args)
			assert.Equal(t, tt.expected, matchRequest(t, r, httptest.NewRequest(http.MethodGet, tt.path, nil)))
		})
	}
}

func TestPredicateArgErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		predicate   string
		args        map[string]string
		errContains string
	}{
		{name: "path without args", predicate: "Path", args: nil},
		{name: "path with two kinds", predicate: "Path", args: map[string]string{"exact": "/a", "prefix": "/a"}},
		{name: "path bad pattern", predicate: "Path", args: map[string]string{"regex": "("}},
		{name: "method empty", predicate: "Method", args: map[string]string{"methods": " , "}},
		{name: "method invalid", predicate: "Method", args: map[string]string{"methods": "FETCH"}},
		{name: "header without name", predicate: "Header", args: map[string]string{"exact": "x"}},
		{name: "header invalid name", predicate: "Header", args: map[string]string{"name": "bad header"}},
		{name: "header bad regex", predicate: "Header", args: map[string]string{"name": "X-A", "regex": "["}, errContains: "invalid regex pattern"},
		{name: "header bad present", predicate: "Header", args: map[string]string{"name": "X-A", "present": "maybe"}},
		{name: "query without name", predicate: "Query", args: map[string]string{}},
		{name: "host empty", predicate: "Host", args: map[string]string{}},
		{name: "read body without regex", predicate: "ReadBody", args: map[string]string{}},
		{name: "read body bad regex", predicate: "ReadBody", args: map[string]string{"regex": "[a"}, errContains: "invalid regex pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, _ := newTestBuilder(t)
			_, err := b.Build(&config.RouteDefinition{
				ID:         "r",
				URI:        "http://backend",
				Predicates: []config.PredicateDefinition{{Name: tt.predicate, Args: tt.args}},
			})
			require.Error(t, err)
			if tt.errContains != "" {
				assert.ErrorContains(t, err, tt.errContains)
			}
		})
	}
}

func TestMethodPredicate(t *testing.T) {
	t.Parallel()

	b, _ := newTestBuilder(t)
	r := buildPredicate(t, b, "Method", map[string]string{"methods": "post,put"})

	assert.True(t, matchRequest(t, r, httptest.NewRequest(http.MethodPost, "/", nil)))
	assert.True(t, matchRequest(t, r, httptest.NewRequest(http.MethodPut, "/", nil)))
	assert.False(t, matchRequest(t, r, httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestHeaderPredicate(t *testing.T) {
	t.Parallel()

	b, _ := newTestBuilder(t)
	r := buildPredicate(t, b, "Header", map[string]string{"name": "X-Tenant", "regex": "^a"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tenant", "acme")
	assert.True(t, matchRequest(t, r, req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tenant", "zeta")
	assert.False(t, matchRequest(t, r, req))

	r = buildPredicate(t, b, "Header", map[string]string{"name": "X-Debug", "present": "false"})
	assert.True(t, matchRequest(t, r, httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestQueryPredicate(t *testing.T) {
	t.Parallel()

	b, _ := newTestBuilder(t)
	r := buildPredicate(t, b, "Query", map[string]string{"name": "version", "exact": "2"})

	assert.True(t, matchRequest(t, r, httptest.NewRequest(http.MethodGet, "/?version=2", nil)))
	assert.False(t, matchRequest(t, r, httptest.NewRequest(http.MethodGet, "/?version=1", nil)))
}

func TestHostPredicate(t *testing.T) {
	t.Parallel()

	b, _ := newTestBuilder(t)
	r := buildPredicate(t, b, "Host", map[string]string{"hosts": "api.example.com, *.internal"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "api.example.com:443"
	assert.True(t, matchRequest(t, r, req))

	req.Host = "svc.internal"
	assert.True(t, matchRequest(t, r, req))

	req.Host = "example.org"
	assert.False(t, matchRequest(t, r, req))
}

func TestReadBodyPredicate(t *testing.T) {
	t.Parallel()

	const body = `{"type":"priority","items":[1,2,3]}`

	b, registry := newTestBuilder(t)
	r := buildPredicate(t, b, "ReadBody", map[string]string{
		"regex":       `"type":"priority"`,
		"contentType": "application/json",
	})

	assert.True(t, registry.Enabled("r"), "building a body predicate enables caching for its route")

	t.Run("matching body stays replayable", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		ex := filter.NewExchange(httptest.NewRecorder(), req)

		ok, err := r.Matches(ex)
		require.NoError(t, err)
		assert.True(t, ok)

		buf, ok := bodycache.CachedBuffer(ex)
		require.True(t, ok)
		assert.Equal(t, body, string(buf.Bytes()))

		decorated, ok := filter.Attribute[*http.Request](ex, filter.CachedRequestDecoratorAttr)
		require.True(t, ok)
		data, err := io.ReadAll(decorated.Body)
		require.NoError(t, err)
		assert.Equal(t, body, string(data))
	})

	t.Run("non matching body", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"bulk"}`))
		req.Header.Set("Content-Type", "application/json")

		assert.False(t, matchRequest(t, r, req))
	})

	t.Run("other content type is not read", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "text/plain")
		ex := filter.NewExchange(httptest.NewRecorder(), req)

		ok, err := r.Matches(ex)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.False(t, ex.Attributes().Has(filter.CachedRequestBodyAttr))
	})
}

func TestReadBodyPredicate_BodyTooLarge(t *testing.T) {
	t.Parallel()

	b := NewBuilder(WithCacher(bodycache.NewCacher(bodycache.WithMaxBodySize(4))))
	r := buildPredicate(t, b, "ReadBody", map[string]string{"regex": "x"})

	ex := filter.NewExchange(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodPost, "/", strings.NewReader("xxxxxxxx")))
	ok, err := r.Matches(ex)
	assert.Error(t, err)
	assert.False(t, ok)
}
