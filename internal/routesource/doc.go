// Package routesource provides upstream route sources for the route
// cache.
//
// Each source fetches route definitions from its backing store and
// compiles them with a routedef.Builder:
//
//   - FileSource reads the routes section of a gateway configuration file.
//   - RedisSource reads JSON route definitions from a Redis hash.
//   - BreakerSource guards another source with a circuit breaker.
//   - RetrySource retries transient fetch failures with backoff.
//   - CompositeSource concatenates several sources in order.
//
// Sources are read-only from the cache's point of view; a fetch either
// returns the complete route list or an error.
package routesource
