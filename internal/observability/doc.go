// Package observability provides logging, metrics, and tracing
// functionality for the gateway core.
//
// # Logging
//
// The Logger interface provides structured logging backed by zap:
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("routes refreshed",
//	    observability.Uint64("generation", 3),
//	    observability.Int("routes", 12),
//	)
//
// # Metrics
//
// Prometheus metrics for requests, route table reloads and cached
// request body buffers:
//
//	metrics := observability.NewMetrics("gateway")
//	handler := metrics.Handler()
//
// # Tracing
//
// OpenTelemetry tracing with OTLP gRPC export:
//
//	tracer, err := observability.NewTracer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(ctx)
package observability
