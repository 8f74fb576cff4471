package bodycache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/vyrodovalexey/gwcore/internal/filter"
	"github.com/vyrodovalexey/gwcore/internal/observability"
	"github.com/vyrodovalexey/gwcore/internal/util"
)

// Cacher reads request bodies into buffers stored on the exchange.
type Cacher struct {
	opts options
}

// NewCacher creates a Cacher.
func NewCacher(opts ...Option) *Cacher {
	return &Cacher{opts: applyOptions(opts)}
}

// MaxBodySize returns the configured body size limit.
func (c *Cacher) MaxBodySize() int64 {
	return c.opts.maxBodySize
}

// CacheRequestBody buffers the body of the active request of ex and calls
// fn with a request that replays it.
//
// A non-empty body is stored under filter.CachedRequestBodyAttr. If a
// live buffer is already stored there it is reused and the body is not
// read again. An empty body is not buffered and fn receives the active
// request unchanged. With cacheDecorator set, the replaying request is
// also stored under filter.CachedRequestDecoratorAttr for a later stage
// to swap in.
//
// Bodies larger than the configured limit fail with a
// *util.BufferAllocationError wrapping util.ErrBodyTooLarge.
func (c *Cacher) CacheRequestBody(
	ex *filter.Exchange,
	routeID string,
	cacheDecorator bool,
	fn func(req *http.Request) error,
) error {
	buf, err := c.buffer(ex, routeID)
	if err != nil {
		return err
	}
	if buf == nil {
		return fn(ex.Request())
	}

	decorated := decorate(ex.Request(), buf)
	if cacheDecorator {
		ex.Attributes().Put(filter.CachedRequestDecoratorAttr, decorated)
	}
	return fn(decorated)
}

// CachedBuffer returns the live buffer stored on ex, if any.
func CachedBuffer(ex *filter.Exchange) (*Buffer, bool) {
	buf, ok := filter.Attribute[*Buffer](ex, filter.CachedRequestBodyAttr)
	if !ok || buf == nil || buf.Released() {
		return nil, false
	}
	return buf, true
}

// buffer returns the buffer for the active request, reading the body if
// needed. It returns nil for an empty body.
func (c *Cacher) buffer(ex *filter.Exchange, routeID string) (*Buffer, error) {
	if buf, ok := CachedBuffer(ex); ok {
		return buf, nil
	}

	req := ex.Request()
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}

	data, err := c.read(req.Body)
	if err != nil {
		return nil, util.NewBufferAllocationError(routeID, c.opts.maxBodySize, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	buf := NewBuffer(data, c.opts.metrics.RecordBufferReleased)
	c.opts.metrics.RecordBufferAllocated(len(data))
	ex.Attributes().Put(filter.CachedRequestBodyAttr, buf)

	c.opts.logger.Debug("cached request body",
		observability.String("route", routeID),
		observability.Int("size", len(data)),
	)
	return buf, nil
}

// read consumes body up to the configured limit.
func (c *Cacher) read(body io.Reader) ([]byte, error) {
	limit := c.opts.maxBodySize
	if limit <= 0 {
		return io.ReadAll(body)
	}

	var b bytes.Buffer
	n, err := b.ReadFrom(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if n > limit {
		return nil, fmt.Errorf("read more than %d bytes: %w", limit, util.ErrBodyTooLarge)
	}
	return b.Bytes(), nil
}

// decorate returns a shallow copy of req whose body replays buf.
func decorate(req *http.Request, buf *Buffer) *http.Request {
	decorated := new(http.Request)
	*decorated = *req
	decorated.Body = newReplayBody(buf)
	decorated.GetBody = buf.getBody
	decorated.ContentLength = int64(buf.Len())
	decorated.TransferEncoding = nil
	return decorated
}
