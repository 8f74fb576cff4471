package routedef

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// PathMatcher matches a request path.
type PathMatcher interface {
	Match(path string) bool
	Type() string
	Pattern() string
}

// ExactMatcher matches exact paths.
type ExactMatcher struct {
	path string
}

// NewExactMatcher creates a new exact path matcher.
func NewExactMatcher(path string) *ExactMatcher {
	return &ExactMatcher{path: path}
}

// Match checks if the path matches exactly.
func (m *ExactMatcher) Match(path string) bool {
	return path == m.path
}

// Type returns the matcher type.
func (m *ExactMatcher) Type() string { return "exact" }

// Pattern returns the pattern.
func (m *ExactMatcher) Pattern() string { return m.path }

// PrefixMatcher matches path prefixes on segment boundaries: "/api"
// matches "/api" and "/api/x" but not "/apix".
type PrefixMatcher struct {
	prefix string
}

// NewPrefixMatcher creates a new prefix path matcher.
func NewPrefixMatcher(prefix string) *PrefixMatcher {
	return &PrefixMatcher{prefix: prefix}
}

// Match checks if the path starts with the prefix.
func (m *PrefixMatcher) Match(path string) bool {
	if !strings.HasPrefix(path, m.prefix) {
		return false
	}
	return len(path) == len(m.prefix) ||
		strings.HasSuffix(m.prefix, "/") ||
		path[len(m.prefix)] == '/'
}

// Type returns the matcher type.
func (m *PrefixMatcher) Type() string { return "prefix" }

// Pattern returns the pattern.
func (m *PrefixMatcher) Pattern() string { return m.prefix }

// RegexMatcher matches paths against a regular expression.
type RegexMatcher struct {
	regex *regexp.Regexp
}

// NewRegexMatcher compiles pattern into a path matcher.
func NewRegexMatcher(pattern string) (*RegexMatcher, error) {
	regex, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexMatcher{regex: regex}, nil
}

// Match checks if the path matches the regex.
func (m *RegexMatcher) Match(path string) bool {
	return m.regex.MatchString(path)
}

// Type returns the matcher type.
func (m *RegexMatcher) Type() string { return "regex" }

// Pattern returns the pattern.
func (m *RegexMatcher) Pattern() string { return m.regex.String() }

// WildcardMatcher matches paths with wildcards: "*" within a segment,
// "**" across segments and "?" for one character.
type WildcardMatcher struct {
	pattern string
	regex   *regexp.Regexp
}

// NewWildcardMatcher creates a new wildcard path matcher.
func NewWildcardMatcher(pattern string) (*WildcardMatcher, error) {
	regex, err := regexp.Compile(wildcardToRegex(pattern))
	if err != nil {
		return nil, err
	}
	return &WildcardMatcher{pattern: pattern, regex: regex}, nil
}

// wildcardToRegex converts a wildcard pattern to an anchored regex.
func wildcardToRegex(pattern string) string {
	var result strings.Builder
	result.WriteString("^")

	for i := 0; i < len(pattern); {
		switch {
		case strings.HasPrefix(pattern[i:], "**"):
			result.WriteString(".*")
			i += 2
		case pattern[i] == '*':
			result.WriteString("[^/]*")
			i++
		case pattern[i] == '?':
			result.WriteString("[^/]")
			i++
		default:
			result.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
			i++
		}
	}

	result.WriteString("$")
	return result.String()
}

// Match checks if the path matches the wildcard pattern.
func (m *WildcardMatcher) Match(path string) bool {
	return m.regex.MatchString(path)
}

// Type returns the matcher type.
func (m *WildcardMatcher) Type() string { return "wildcard" }

// Pattern returns the pattern.
func (m *WildcardMatcher) Pattern() string { return m.pattern }

// MethodMatcher matches HTTP methods. "*" matches any method and GET
// also admits HEAD.
type MethodMatcher struct {
	methods map[string]bool
}

// NewMethodMatcher creates a new method matcher.
func NewMethodMatcher(methods []string) *MethodMatcher {
	m := &MethodMatcher{methods: make(map[string]bool, len(methods))}
	for _, method := range methods {
		m.methods[strings.ToUpper(strings.TrimSpace(method))] = true
	}
	return m
}

// Match checks if the method matches.
func (m *MethodMatcher) Match(method string) bool {
	method = strings.ToUpper(method)
	if m.methods["*"] {
		return true
	}
	if method == http.MethodHead && m.methods[http.MethodGet] {
		return true
	}
	return m.methods[method]
}

// ValueMatch describes how a header or query value is matched. At most
// one of Exact, Prefix and Regex is set; with none set any value
// matches. Present, when set, only checks presence or absence.
type ValueMatch struct {
	Name    string
	Exact   string
	Prefix  string
	Regex   *regexp.Regexp
	Present *bool
}

func (v *ValueMatch) match(value string, has bool) bool {
	if v.Present != nil {
		return *v.Present == has
	}
	if !has {
		return false
	}
	switch {
	case v.Exact != "":
		return value == v.Exact
	case v.Prefix != "":
		return strings.HasPrefix(value, v.Prefix)
	case v.Regex != nil:
		return v.Regex.MatchString(value)
	default:
		return true
	}
}

// HeaderMatcher matches a request header. Header names are
// case-insensitive.
type HeaderMatcher struct {
	ValueMatch
}

// Match checks if the headers match.
func (m *HeaderMatcher) Match(headers http.Header) bool {
	values := headers.Values(m.Name)
	if len(values) == 0 {
		return m.match("", false)
	}
	for _, value := range values {
		if m.match(value, true) {
			return true
		}
	}
	return false
}

// QueryParamMatcher matches a query parameter.
type QueryParamMatcher struct {
	ValueMatch
}

// Match checks if the query parameters match.
func (m *QueryParamMatcher) Match(query url.Values) bool {
	return m.match(query.Get(m.Name), query.Has(m.Name))
}

// HostMatcher matches the request host, ignoring the port. A leading
// "*." matches any subdomain.
type HostMatcher struct {
	hosts []string
}

// NewHostMatcher creates a host matcher for the given patterns.
func NewHostMatcher(hosts []string) *HostMatcher {
	m := &HostMatcher{hosts: make([]string, 0, len(hosts))}
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			m.hosts = append(m.hosts, h)
		}
	}
	return m
}

// Match checks if host matches one of the patterns.
func (m *HostMatcher) Match(host string) bool {
	host = strings.ToLower(stripPort(host))
	for _, pattern := range m.hosts {
		if suffix, ok := strings.CutPrefix(pattern, "*"); ok {
			if strings.HasSuffix(host, suffix) && len(host) > len(suffix) {
				return true
			}
			continue
		}
		if host == pattern {
			return true
		}
	}
	return false
}

func stripPort(host string) string {
	if strings.HasPrefix(host, "[") {
		if end := strings.Index(host, "]"); end > 0 {
			return host[1:end]
		}
		return host
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 && strings.Count(host, ":") == 1 {
		return host[:i]
	}
	return host
}
