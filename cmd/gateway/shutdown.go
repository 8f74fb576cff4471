package main

import (
	"context"
	"time"

	"github.com/vyrodovalexey/gwcore/internal/observability"
)

// shutdownTimeout bounds the graceful shutdown.
const shutdownTimeout = 30 * time.Second

// runGateway starts the gateway and the config watcher, blocks until ctx
// is done and then shuts everything down.
func runGateway(ctx context.Context, app *application, logger observability.Logger) error {
	if err := app.gateway.Start(ctx); err != nil {
		app.close(logger)
		return err
	}

	if app.watcher != nil {
		if err := app.watcher.Start(ctx); err != nil {
			logger.Error("failed to start config watcher", observability.Error(err))
		}
	}

	<-ctx.Done()
	logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	app.shutdown(shutdownCtx, logger)
	return nil
}

// shutdown stops the listeners first, then the reload machinery, then
// the tracer.
func (app *application) shutdown(ctx context.Context, logger observability.Logger) {
	if err := app.gateway.Stop(ctx); err != nil {
		logger.Error("failed to stop gateway gracefully", observability.Error(err))
	}

	app.close(logger)

	if err := app.tracer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	logger.Info("gateway stopped")
}
