package filter

import (
	"math"
	"slices"
)

// Precedence bounds. Filters with a lower order run earlier.
const (
	HighestPrecedence = math.MinInt32
	LowestPrecedence  = math.MaxInt32
)

// Filter is one stage of the request pipeline.
type Filter interface {
	Filter(ex *Exchange, chain Chain) error
}

// FilterFunc adapts a function to the Filter interface.
type FilterFunc func(ex *Exchange, chain Chain) error

// Filter calls f(ex, chain).
func (f FilterFunc) Filter(ex *Exchange, chain Chain) error {
	return f(ex, chain)
}

// Chain is the continuation handed to a filter: the remaining filters
// followed by the terminal handler.
type Chain interface {
	Filter(ex *Exchange) error
}

// Handler is the terminal stage that forwards the request to its target.
type Handler interface {
	Handle(ex *Exchange) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ex *Exchange) error

// Handle calls f(ex).
func (f HandlerFunc) Handle(ex *Exchange) error {
	return f(ex)
}

// Ordered is implemented by filters that declare a precedence.
type Ordered interface {
	Order() int
}

// Named is implemented by filters that expose a name for logs and spans.
type Named interface {
	Name() string
}

// OrderOf returns the declared order of f, or 0.
func OrderOf(f Filter) int {
	if o, ok := f.(Ordered); ok {
		return o.Order()
	}
	return 0
}

// NameOf returns the declared name of f, or an empty string.
func NameOf(f Filter) string {
	if n, ok := f.(Named); ok {
		return n.Name()
	}
	return ""
}

type orderedFilter struct {
	inner Filter
	order int
}

func (f *orderedFilter) Filter(ex *Exchange, chain Chain) error { return f.inner.Filter(ex, chain) }

func (f *orderedFilter) Order() int { return f.order }

func (f *orderedFilter) Name() string { return NameOf(f.inner) }

// WithOrder assigns an explicit order to f, overriding any order it
// declares itself.
func WithOrder(f Filter, order int) Filter {
	if of, ok := f.(*orderedFilter); ok {
		f = of.inner
	}
	return &orderedFilter{inner: f, order: order}
}

// Sort returns a new slice with filters stable-sorted by ascending order.
func Sort(filters []Filter) []Filter {
	sorted := slices.Clone(filters)
	slices.SortStableFunc(sorted, func(a, b Filter) int {
		oa, ob := OrderOf(a), OrderOf(b)
		switch {
		case oa < ob:
			return -1
		case oa > ob:
			return 1
		default:
			return 0
		}
	})
	return sorted
}

// Merge combines global and route filters into one execution order.
// Global filters precede route filters of equal order.
func Merge(global, route []Filter) []Filter {
	merged := make([]Filter, 0, len(global)+len(route))
	merged = append(merged, global...)
	merged = append(merged, route...)
	return Sort(merged)
}
