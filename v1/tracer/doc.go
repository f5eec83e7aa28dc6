// Package tracer configures OpenTelemetry tracing for database access.
//
// NewClient builds the SDK tracer provider, optionally exporting spans over
// OTLP HTTP, and installs it globally. Tracer() returns the trace.Tracer that
// access.WithTracer expects; every database operation then produces a client
// span named "access.<operation>" with db.system and db.sql.table
// attributes.
//
// Cross-service propagation uses the W3C trace context and baggage formats:
//
//	headers := t.GetCarrier(ctx)
//	// ... on the receiving side
//	ctx = t.SetCarrierOnContext(ctx, headers)
package tracer
