package route

import (
	"fmt"
	"iter"
	"slices"

	"github.com/vyrodovalexey/gwcore/internal/filter"
	"github.com/vyrodovalexey/gwcore/internal/util"
)

// Snapshot is an immutable, ordered set of routes. Routes are sorted by
// Order, ties kept in declaration order.
type Snapshot struct {
	routes     []*Route
	byID       map[string]*Route
	generation uint64
}

// NewSnapshot validates routes and builds a snapshot with the given
// generation number. The input slice is not retained.
func NewSnapshot(routes []*Route, generation uint64) (*Snapshot, error) {
	s := &Snapshot{
		routes:     make([]*Route, 0, len(routes)),
		byID:       make(map[string]*Route, len(routes)),
		generation: generation,
	}

	for i, r := range routes {
		if r == nil {
			return nil, fmt.Errorf("route at index %d: %w", i, util.ErrInvalidInput)
		}
		if r.ID == "" {
			return nil, fmt.Errorf("route at index %d has no id: %w", i, util.ErrInvalidInput)
		}
		if _, exists := s.byID[r.ID]; exists {
			return nil, fmt.Errorf("%w: %s", util.ErrDuplicateRoute, r.ID)
		}
		s.byID[r.ID] = r
		s.routes = append(s.routes, r)
	}

	slices.SortStableFunc(s.routes, func(a, b *Route) int {
		switch {
		case a.Order < b.Order:
			return -1
		case a.Order > b.Order:
			return 1
		default:
			return 0
		}
	})

	return s, nil
}

// Empty returns a snapshot without routes.
func Empty() *Snapshot {
	return &Snapshot{byID: map[string]*Route{}}
}

// Generation returns the generation number of the snapshot.
func (s *Snapshot) Generation() uint64 {
	return s.generation
}

// Len returns the number of routes.
func (s *Snapshot) Len() int {
	return len(s.routes)
}

// All returns the routes in order. The sequence may be iterated any
// number of times and always yields the same routes.
func (s *Snapshot) All() iter.Seq[*Route] {
	return func(yield func(*Route) bool) {
		for _, r := range s.routes {
			if !yield(r) {
				return
			}
		}
	}
}

// Routes returns a copy of the ordered route list.
func (s *Snapshot) Routes() []*Route {
	return slices.Clone(s.routes)
}

// Get returns the route with the given id.
func (s *Snapshot) Get(id string) (*Route, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// Lookup returns the first route whose predicate matches ex. A predicate
// error aborts the lookup.
func (s *Snapshot) Lookup(ex *filter.Exchange) (*Route, error) {
	for _, r := range s.routes {
		ok, err := r.Matches(ex)
		if err != nil {
			return nil, fmt.Errorf("evaluating route %s: %w", r.ID, err)
		}
		if ok {
			return r, nil
		}
	}
	req := ex.Request()
	return nil, util.NewRouteNotFoundError(req.Method, req.URL.Path)
}
