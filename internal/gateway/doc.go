// Package gateway serves proxied traffic through the filter chain.
//
// Handler resolves the route for each request from a single route
// snapshot, runs the global and route filters in front of the terminal
// handoff and renders failures as JSON errors. Gateway owns the HTTP
// listeners and their lifecycle.
//
// # Usage
//
//	handler := gateway.NewHandler(cache, proxy.NewReverseProxy(),
//	    gateway.WithGlobalFilters(
//	        bodycache.NewReleaseFilter(),
//	        bodycache.NewAdaptFilter(registry, cacher),
//	    ),
//	)
//
//	gw, err := gateway.New(cfg, handler, gateway.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := gw.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer gw.Stop(ctx)
package gateway
