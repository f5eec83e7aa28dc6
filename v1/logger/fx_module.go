package logger

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/dbaccess/v1/access"
)

// FXModule defines the Fx module for the logger package.
// It provides *Logger and exposes it as access.Logger, so that
// access.FXModule picks it up as the default logger of every operation.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    access.FXModule,
//	    // other modules...
//	)
//
// Dependencies required by this module:
// - A logger.Config instance must be available in the dependency injection container
var FXModule = fx.Module("logger",
	fx.Provide(
		NewLoggerClient,
		func(l *Logger) access.Logger { return l },
	),
	fx.Invoke(RegisterLoggerLifecycle),
)

// RegisterLoggerLifecycle flushes buffered entries when the application stops.
func RegisterLoggerLifecycle(lc fx.Lifecycle, client *Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// stderr cannot be synced on some platforms; that is not a shutdown failure.
			_ = client.Zap.Sync()
			return nil
		},
	})
}
