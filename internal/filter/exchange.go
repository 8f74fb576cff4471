package filter

import (
	"context"
	"net/http"
)

// Well-known attribute keys.
const (
	// CachedRequestBodyAttr holds the *bodycache.Buffer with the request body.
	CachedRequestBodyAttr = "cachedRequestBody"

	// CachedRequestDecoratorAttr holds an *http.Request replaying the cached
	// body, stored by stages that cannot replace the request themselves.
	CachedRequestDecoratorAttr = "cachedRequestBodyDecorator"

	// RouteAttr holds the *route.Route resolved for the request.
	RouteAttr = "gatewayRoute"
)

// Attributes is the per-request attribute bag. It is owned by a single
// request and is not safe for concurrent use.
type Attributes struct {
	values map[string]any
}

// Get returns the value stored under key.
func (a *Attributes) Get(key string) (any, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Put stores value under key, replacing any previous value.
func (a *Attributes) Put(key string, value any) {
	a.values[key] = value
}

// Remove deletes key and returns the value it held.
func (a *Attributes) Remove(key string) (any, bool) {
	v, ok := a.values[key]
	if ok {
		delete(a.values, key)
	}
	return v, ok
}

// Has reports whether key is present.
func (a *Attributes) Has(key string) bool {
	_, ok := a.values[key]
	return ok
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	return len(a.values)
}

// Exchange is the request context passed through the filter chain.
type Exchange struct {
	request  *http.Request
	response http.ResponseWriter
	attrs    *Attributes
	hooks    *hookStack
}

// NewExchange creates an exchange for one request.
func NewExchange(w http.ResponseWriter, r *http.Request) *Exchange {
	return &Exchange{
		request:  r,
		response: w,
		attrs:    &Attributes{values: make(map[string]any)},
		hooks:    &hookStack{},
	}
}

// Request returns the active request.
func (ex *Exchange) Request() *http.Request {
	return ex.request
}

// Response returns the response writer.
func (ex *Exchange) Response() http.ResponseWriter {
	return ex.response
}

// Context returns the context of the active request.
func (ex *Exchange) Context() context.Context {
	return ex.request.Context()
}

// Attributes returns the attribute bag. Copies made with WithRequest
// share it.
func (ex *Exchange) Attributes() *Attributes {
	return ex.attrs
}

// WithRequest returns a copy of the exchange that carries r as the
// active request. The copy shares attributes, response writer and
// settle hooks with ex.
func (ex *Exchange) WithRequest(r *http.Request) *Exchange {
	if r == ex.request {
		return ex
	}
	cp := *ex
	cp.request = r
	return &cp
}

// WithResponse returns a copy of the exchange writing to w.
func (ex *Exchange) WithResponse(w http.ResponseWriter) *Exchange {
	cp := *ex
	cp.response = w
	return &cp
}

// OnSettle registers a hook that runs when the chain invocation that is
// currently executing settles.
func (ex *Exchange) OnSettle(h Hook) {
	ex.hooks.push(ex, h)
}

// Attribute returns the attribute stored under key if it has type T.
func Attribute[T any](ex *Exchange, key string) (T, bool) {
	v, ok := ex.attrs.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
