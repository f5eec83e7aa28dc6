// Package metrics exports database access metrics to Prometheus.
//
// # Architecture
//
// This package follows the "accept interfaces, return structs" design pattern:
//   - MetricsCollector interface: Defines the contract for metrics operations
//   - Metrics struct: Concrete implementation, also an observability.Observer
//   - NewMetrics constructor: Returns *Metrics (concrete type)
//   - FX module: Provides *Metrics and the observability.Observer interface
//
// Every operation of the access package reports an OperationContext to its
// observer. Metrics turns them into:
//   - dbaccess_operations_total, by component, operation, database system and status
//   - dbaccess_operation_duration_seconds, by operation and database system
//   - dbaccess_rows_total, the rows read or affected, by operation and database system
//
// RegisterPool adds the standard go_sql_* connection pool metrics for a *sql.DB.
//
// # Direct Usage (Without FX)
//
//	m := metrics.NewMetrics(metrics.Config{
//		Address:     ":9090",
//		ServiceName: "billing",
//	})
//	_ = m.RegisterPool(sqlDB, "billing")
//	db := access.New(sqlDB, dialect.NewPostgres(), access.WithObserver(m))
//	go m.Server.ListenAndServe()
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule,
//		metrics.FXModule, // provides *metrics.Metrics and observability.Observer
//		access.FXModule,  // installs the observer as the default
//		fx.Provide(func() metrics.Config {
//			return metrics.Config{Address: ":9090", ServiceName: "billing"}
//		}),
//	)
//
// All metrics carry a constant "service" label taken from Config.ServiceName.
package metrics
