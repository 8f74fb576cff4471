package proxy

import (
	"context"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/vyrodovalexey/gwcore/internal/filter"
	"github.com/vyrodovalexey/gwcore/internal/observability"
	"github.com/vyrodovalexey/gwcore/internal/route"
)

// ReverseProxy forwards exchanges to the target URL of their resolved
// route.
type ReverseProxy struct {
	logger         observability.Logger
	transport      http.RoundTripper
	modifyResponse func(*http.Response) error
	flushInterval  time.Duration
	timeout        time.Duration
}

// ProxyOption is a functional option for configuring the proxy.
type ProxyOption func(*ReverseProxy)

// WithProxyLogger sets the logger for the proxy.
func WithProxyLogger(logger observability.Logger) ProxyOption {
	return func(p *ReverseProxy) {
		p.logger = logger
	}
}

// WithTransport sets the transport for the proxy.
func WithTransport(transport http.RoundTripper) ProxyOption {
	return func(p *ReverseProxy) {
		p.transport = transport
	}
}

// WithModifyResponse sets the response modifier for the proxy.
func WithModifyResponse(modifier func(*http.Response) error) ProxyOption {
	return func(p *ReverseProxy) {
		p.modifyResponse = modifier
	}
}

// WithFlushInterval sets the flush interval for streaming responses.
func WithFlushInterval(interval time.Duration) ProxyOption {
	return func(p *ReverseProxy) {
		p.flushInterval = interval
	}
}

// WithTimeout bounds each upstream exchange. Zero means no bound.
func WithTimeout(timeout time.Duration) ProxyOption {
	return func(p *ReverseProxy) {
		p.timeout = timeout
	}
}

// NewReverseProxy creates a new reverse proxy.
func NewReverseProxy(opts ...ProxyOption) *ReverseProxy {
	p := &ReverseProxy{
		logger:        observability.NopLogger(),
		flushInterval: -1, // Immediate flush
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Handle forwards the active request of ex to the resolved route's
// target. Hop-by-hop headers are dropped and X-Forwarded-* headers are
// set. Upstream failures are returned, not written.
func (p *ReverseProxy) Handle(ex *filter.Exchange) error {
	rt, ok := filter.Attribute[*route.Route](ex, filter.RouteAttr)
	if !ok || rt == nil {
		return NewProxyError(opResolve, "", "", "exchange has no route", ErrNoRoute)
	}
	if rt.URI == nil || rt.URI.Host == "" {
		return NewProxyError(opResolve, rt.ID, "", "route has no target", ErrInvalidTargetURL)
	}

	target := rt.URI
	req := ex.Request()

	if p.timeout > 0 {
		ctx, cancel := context.WithTimeout(req.Context(), p.timeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	var upstreamErr error
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		Transport:      p.transport,
		FlushInterval:  p.flushInterval,
		ModifyResponse: p.modifyResponse,
		ErrorHandler: func(_ http.ResponseWriter, _ *http.Request, err error) {
			upstreamErr = err
		},
	}

	proxy.ServeHTTP(ex.Response(), req)

	if upstreamErr != nil {
		p.logger.WithContext(req.Context()).Debug("upstream request failed",
			observability.String("route", rt.ID),
			observability.String("target", target.String()),
			observability.Error(upstreamErr),
		)
		return NewProxyError(opForward, rt.ID, target.String(), "upstream request failed", upstreamErr)
	}

	return nil
}
