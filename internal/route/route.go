// Package route defines routes and the immutable snapshots the gateway
// publishes them in.
package route

import (
	"net/url"

	"github.com/vyrodovalexey/gwcore/internal/filter"
)

// Predicate decides whether a route applies to an exchange. Predicates
// may read the request body through the body cache and store attributes
// on the exchange, so they receive the exchange rather than the request.
type Predicate interface {
	Match(ex *filter.Exchange) (bool, error)
}

// PredicateFunc adapts a function to the Predicate interface.
type PredicateFunc func(ex *filter.Exchange) (bool, error)

// Match calls f(ex).
func (f PredicateFunc) Match(ex *filter.Exchange) (bool, error) {
	return f(ex)
}

// Any is a predicate that matches every exchange.
var Any Predicate = PredicateFunc(func(*filter.Exchange) (bool, error) { return true, nil })

// Route maps a predicate to a target URI with an ordered filter list.
// A Route must not be modified once it is part of a published Snapshot.
type Route struct {
	ID        string
	Predicate Predicate
	Filters   []filter.Filter
	URI       *url.URL
	Order     int
	Metadata  map[string]string
}

// Matches evaluates the route predicate. A route without a predicate
// matches everything.
func (r *Route) Matches(ex *filter.Exchange) (bool, error) {
	if r.Predicate == nil {
		return true, nil
	}
	return r.Predicate.Match(ex)
}

// String returns the route id.
func (r *Route) String() string {
	return r.ID
}
