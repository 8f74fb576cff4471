// Package routedef compiles route definitions into routes.
//
// A definition names predicate and filter factories with string
// arguments:
//
//	id: orders
//	uri: http://orders.internal:8080
//	predicates:
//	  - name: Path
//	    args: {prefix: /orders}
//	  - name: ReadBody
//	    args: {regex: '"type":"order"'}
//	filters:
//	  - name: StripPrefix
//	    args: {parts: "1"}
//
// All predicates of a route must match. Route filters without an
// explicit order run in declaration order after the gateway filters of
// order zero. Building a route that reads its body, or that sets
// cacheBody, enables body caching for it.
package routedef
