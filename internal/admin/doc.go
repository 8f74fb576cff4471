// Package admin provides the administrative HTTP surface of the gateway.
//
// It is a Gin engine served on the admin listener:
//
//   - POST /actuator/gateway/refresh publishes a RefreshTrigger
//   - GET /actuator/gateway/routes lists the current route snapshot
//   - GET /actuator/gateway/routes/:id shows one route
//   - POST /actuator/gateway/routes/:id/body-cache publishes EnableBodyCaching
//   - GET /actuator/gateway/body-cache lists routes with body caching enabled
//   - GET /healthz and GET /readyz report liveness and readiness
//   - GET /metrics exposes Prometheus metrics
//
// Refresh requests are throttled with a token bucket; a rejected request
// gets 429 and publishes nothing.
package admin
