package bodycache

import (
	"github.com/vyrodovalexey/gwcore/internal/filter"
	"github.com/vyrodovalexey/gwcore/internal/observability"
)

// ReleaseOrder runs the release filter before every other filter, so
// its settle hook runs after all of theirs.
const ReleaseOrder = filter.HighestPrecedence

// ReleaseFilter releases the cached body buffer when the request settles.
type ReleaseFilter struct {
	logger observability.Logger
}

// NewReleaseFilter creates a release filter.
func NewReleaseFilter(opts ...Option) *ReleaseFilter {
	o := applyOptions(opts)
	return &ReleaseFilter{logger: o.logger}
}

// Order implements filter.Ordered.
func (f *ReleaseFilter) Order() int { return ReleaseOrder }

// Name implements filter.Named.
func (f *ReleaseFilter) Name() string { return "RemoveCachedBody" }

// Filter implements filter.Filter.
func (f *ReleaseFilter) Filter(ex *filter.Exchange, chain filter.Chain) error {
	ex.OnSettle(f.release)
	return chain.Filter(ex)
}

func (f *ReleaseFilter) release(ex *filter.Exchange, outcome filter.Outcome) {
	if buf, ok := Discard(ex); ok {
		f.logger.Debug("released cached request body",
			observability.Int("size", buf.Len()),
			observability.String("outcome", outcome.String()),
		)
	}
}

// Discard removes the body cache attributes from ex and releases the
// cached buffer. It returns the buffer and whether this call released
// it; a buffer already released elsewhere reports false.
func Discard(ex *filter.Exchange) (*Buffer, bool) {
	attrs := ex.Attributes()
	attrs.Remove(filter.CachedRequestDecoratorAttr)

	v, ok := attrs.Remove(filter.CachedRequestBodyAttr)
	if !ok {
		return nil, false
	}
	buf, ok := v.(*Buffer)
	if !ok || buf == nil {
		return nil, false
	}
	return buf, buf.Release()
}
