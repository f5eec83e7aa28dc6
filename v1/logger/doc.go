// Package logger provides structured logging for services built on dbaccess.
//
// The logger wraps Uber's zap with a small interface that takes a message, an
// optional error and optional field maps. *Logger satisfies access.Logger, so
// it can be handed to access.WithLogger or provided through fx.
//
// # Direct Usage (Without FX)
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         logger.Info,
//		ServiceName:   "billing",
//		EnableTracing: true,
//	})
//
//	db := access.New(sqlDB, dialect.NewPostgres(), access.WithLogger(log))
//
//	log.Info("User logged in", nil, map[string]interface{}{
//		"user_id": "12345",
//	})
//
//	// Adds trace_id and span_id when ctx carries a span
//	log.InfoWithContext(ctx, "Processing request", nil)
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule, // provides *logger.Logger and access.Logger
//		access.FXModule,
//		fx.Provide(func() logger.Config {
//			return logger.Config{Level: logger.Debug, ServiceName: "billing"}
//		}),
//	)
//
// # Output
//
// Entries are JSON on stderr with an ISO8601 "timestamp", capital levels, the
// caller, and the "pid" and "service" fields. At debug level the access
// package logs every generated statement with its parameter count.
//
// # Thread Safety
//
// All methods are safe for concurrent use by multiple goroutines.
package logger
