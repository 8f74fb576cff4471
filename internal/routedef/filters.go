package routedef

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/vyrodovalexey/gwcore/internal/filter"
	"github.com/vyrodovalexey/gwcore/internal/util"
)

func registerFilters(b *Builder) {
	b.RegisterFilter("AddRequestHeader", newAddRequestHeader)
	b.RegisterFilter("RemoveRequestHeader", newRemoveRequestHeader)
	b.RegisterFilter("AddResponseHeader", newAddResponseHeader)
	b.RegisterFilter("StripPrefix", newStripPrefix)
}

// namedFilter gives a filter function a name for logs and spans.
type namedFilter struct {
	name string
	fn   filter.FilterFunc
}

func (f *namedFilter) Filter(ex *filter.Exchange, chain filter.Chain) error {
	return f.fn(ex, chain)
}

func (f *namedFilter) Name() string { return f.name }

func headerArgs(args map[string]string, needValue bool) (name, value string, err error) {
	name = args["name"]
	if err := util.ValidateHeaderName(name); err != nil {
		return "", "", err
	}
	value, ok := args["value"]
	if needValue && !ok {
		return "", "", fmt.Errorf("value: %w", errMissingArg)
	}
	return name, value, nil
}

func newAddRequestHeader(_ *BuildContext, args map[string]string) (filter.Filter, error) {
	name, value, err := headerArgs(args, true)
	if err != nil {
		return nil, err
	}
	return &namedFilter{name: "AddRequestHeader", fn: func(ex *filter.Exchange, chain filter.Chain) error {
		req := withHeader(ex.Request())
		req.Header.Add(name, value)
		return chain.Filter(ex.WithRequest(req))
	}}, nil
}

func newRemoveRequestHeader(_ *BuildContext, args map[string]string) (filter.Filter, error) {
	name, _, err := headerArgs(args, false)
	if err != nil {
		return nil, err
	}
	return &namedFilter{name: "RemoveRequestHeader", fn: func(ex *filter.Exchange, chain filter.Chain) error {
		req := withHeader(ex.Request())
		req.Header.Del(name)
		return chain.Filter(ex.WithRequest(req))
	}}, nil
}

func newAddResponseHeader(_ *BuildContext, args map[string]string) (filter.Filter, error) {
	name, value, err := headerArgs(args, true)
	if err != nil {
		return nil, err
	}
	return &namedFilter{name: "AddResponseHeader", fn: func(ex *filter.Exchange, chain filter.Chain) error {
		ex.Response().Header().Add(name, value)
		return chain.Filter(ex)
	}}, nil
}

// newStripPrefix removes the first parts path segments.
func newStripPrefix(_ *BuildContext, args map[string]string) (filter.Filter, error) {
	parts, err := strconv.Atoi(args["parts"])
	if err != nil || parts < 1 {
		return nil, fmt.Errorf("parts must be a positive integer: %w", util.ErrInvalidInput)
	}
	return &namedFilter{name: "StripPrefix", fn: func(ex *filter.Exchange, chain filter.Chain) error {
		req := ex.Request()
		stripped := new(http.Request)
		*stripped = *req
		u := *req.URL
		u.Path = stripSegments(req.URL.Path, parts)
		u.RawPath = ""
		stripped.URL = &u
		return chain.Filter(ex.WithRequest(stripped))
	}}, nil
}

func stripSegments(path string, parts int) string {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if parts >= len(segments) {
		return "/"
	}
	return "/" + strings.Join(segments[parts:], "/")
}

// withHeader returns a shallow copy of req owning a copy of its header,
// so header edits do not leak into the request earlier stages hold.
func withHeader(req *http.Request) *http.Request {
	cp := new(http.Request)
	*cp = *req
	cp.Header = req.Header.Clone()
	if cp.Header == nil {
		cp.Header = make(http.Header)
	}
	return cp
}
