package routedef

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/vyrodovalexey/gwcore/internal/bodycache"
	"github.com/vyrodovalexey/gwcore/internal/filter"
	"github.com/vyrodovalexey/gwcore/internal/route"
	"github.com/vyrodovalexey/gwcore/internal/util"
)

var errMissingArg = errors.New("missing argument")

func registerPredicates(b *Builder) {
	b.RegisterPredicate("Path", newPathPredicate)
	b.RegisterPredicate("Method", newMethodPredicate)
	b.RegisterPredicate("Header", newHeaderPredicate)
	b.RegisterPredicate("Query", newQueryPredicate)
	b.RegisterPredicate("Host", newHostPredicate)
	b.RegisterPredicate("ReadBody", newReadBodyPredicate)
}

// newPathPredicate accepts exactly one of exact, prefix, regex or pattern.
func newPathPredicate(_ *BuildContext, args map[string]string) (route.Predicate, error) {
	matcher, err := createPathMatcher(args)
	if err != nil {
		return nil, err
	}
	return route.PredicateFunc(func(ex *filter.Exchange) (bool, error) {
		return matcher.Match(ex.Request().URL.Path), nil
	}), nil
}

func createPathMatcher(args map[string]string) (PathMatcher, error) {
	var matchers []PathMatcher
	if v, ok := args["exact"]; ok {
		matchers = append(matchers, NewExactMatcher(v))
	}
	if v, ok := args["prefix"]; ok {
		matchers = append(matchers, NewPrefixMatcher(v))
	}
	if v, ok := args["regex"]; ok {
		m, err := NewRegexMatcher(v)
		if err != nil {
			return nil, fmt.Errorf("invalid regex: %w", err)
		}
		matchers = append(matchers, m)
	}
	if v, ok := args["pattern"]; ok {
		m, err := NewWildcardMatcher(v)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		matchers = append(matchers, m)
	}

	switch len(matchers) {
	case 0:
		return nil, fmt.Errorf("one of exact, prefix, regex or pattern: %w", errMissingArg)
	case 1:
		return matchers[0], nil
	default:
		return nil, fmt.Errorf("only one of exact, prefix, regex or pattern may be set: %w", util.ErrInvalidInput)
	}
}

func newMethodPredicate(_ *BuildContext, args map[string]string) (route.Predicate, error) {
	methods := splitList(args["methods"])
	if len(methods) == 0 {
		return nil, fmt.Errorf("methods: %w", errMissingArg)
	}
	for _, m := range methods {
		if m == "*" {
			continue
		}
		if err := util.ValidateHTTPMethod(m); err != nil {
			return nil, err
		}
	}
	matcher := NewMethodMatcher(methods)
	return route.PredicateFunc(func(ex *filter.Exchange) (bool, error) {
		return matcher.Match(ex.Request().Method), nil
	}), nil
}

func newValueMatch(args map[string]string) (ValueMatch, error) {
	vm := ValueMatch{
		Name:   args["name"],
		Exact:  args["exact"],
		Prefix: args["prefix"],
	}
	if vm.Name == "" {
		return vm, fmt.Errorf("name: %w", errMissingArg)
	}
	if pattern := args["regex"]; pattern != "" {
		if err := util.ValidateRegex(pattern); err != nil {
			return vm, err
		}
		vm.Regex = regexp.MustCompile(pattern)
	}
	if present, ok := args["present"]; ok {
		b, err := strconv.ParseBool(present)
		if err != nil {
			return vm, fmt.Errorf("present: %w", err)
		}
		vm.Present = &b
	}
	return vm, nil
}

func newHeaderPredicate(_ *BuildContext, args map[string]string) (route.Predicate, error) {
	vm, err := newValueMatch(args)
	if err != nil {
		return nil, err
	}
	if err := util.ValidateHeaderName(vm.Name); err != nil {
		return nil, err
	}
	matcher := &HeaderMatcher{ValueMatch: vm}
	return route.PredicateFunc(func(ex *filter.Exchange) (bool, error) {
		return matcher.Match(ex.Request().Header), nil
	}), nil
}

func newQueryPredicate(_ *BuildContext, args map[string]string) (route.Predicate, error) {
	vm, err := newValueMatch(args)
	if err != nil {
		return nil, err
	}
	matcher := &QueryParamMatcher{ValueMatch: vm}
	return route.PredicateFunc(func(ex *filter.Exchange) (bool, error) {
		return matcher.Match(ex.Request().URL.Query()), nil
	}), nil
}

func newHostPredicate(_ *BuildContext, args map[string]string) (route.Predicate, error) {
	hosts := splitList(args["hosts"])
	if len(hosts) == 0 {
		return nil, fmt.Errorf("hosts: %w", errMissingArg)
	}
	matcher := NewHostMatcher(hosts)
	return route.PredicateFunc(func(ex *filter.Exchange) (bool, error) {
		return matcher.Match(ex.Request().Host), nil
	}), nil
}

// newReadBodyPredicate matches the request body against a regex. The
// body is buffered and the replaying request is left on the exchange for
// the adapt filter, so the upstream still receives the full body.
func newReadBodyPredicate(ctx *BuildContext, args map[string]string) (route.Predicate, error) {
	pattern := args["regex"]
	if pattern == "" {
		return nil, fmt.Errorf("regex: %w", errMissingArg)
	}
	if err := util.ValidateRegex(pattern); err != nil {
		return nil, err
	}
	regex := regexp.MustCompile(pattern)
	contentType := strings.ToLower(args["contentType"])

	cacher := ctx.Cacher
	routeID := ctx.RouteID
	ctx.EnableBodyCaching()

	return route.PredicateFunc(func(ex *filter.Exchange) (bool, error) {
		req := ex.Request()
		if contentType != "" && !strings.HasPrefix(strings.ToLower(req.Header.Get("Content-Type")), contentType) {
			return false, nil
		}

		matched := false
		err := cacher.CacheRequestBody(ex, routeID, true, func(*http.Request) error {
			var body []byte
			if buf, ok := bodycache.CachedBuffer(ex); ok {
				body = buf.Bytes()
			}
			matched = regex.Match(body)
			return nil
		})
		return matched, err
	}), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
