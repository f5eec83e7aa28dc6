package tracer

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

// FXModule provides the tracer client and its trace.Tracer, which
// access.FXModule installs as the default tracer of database operations.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    tracer.FXModule,
//	    access.FXModule,
//	)
//
// Dependencies required by this module:
// - A tracer.Config and a tracer.Logger must be available in the container
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClient,
		func(t *Tracer) trace.Tracer { return t.Tracer() },
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// RegisterTracerLifecycle flushes and shuts down the tracer provider when the
// application stops.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			tracer.logger.Info("shutting down tracer", nil)
			return tracer.Shutdown(ctx)
		},
	})
}
