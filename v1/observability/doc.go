// Package observability defines the operation hook shared by the data-access
// packages.
//
// Components report every finished operation as an OperationContext to an
// Observer. The access core uses it as its "profiler": metrics.Metrics turns the
// reports into Prometheus series and tests capture them to assert behaviour.
//
// An Observer is installed once at startup (access.SetDefaults or access.WithObserver)
// and must be safe for concurrent use, since operations report from whichever
// goroutine ran them.
package observability
