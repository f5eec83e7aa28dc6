package access

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/dbaccess/v1/observability"
)

const component = "access"

// operation tracks one public call for tracing and the observer.
type operation struct {
	cfg         Config
	name        string
	resource    string
	subResource string
	system      string
	start       time.Time
	span        trace.Span
}

func (db *DB) startOperation(ctx context.Context, cfg Config, name, resource string) (context.Context, *operation) {
	ctx, span := cfg.Tracer.Start(ctx, component+"."+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", db.dialect.Name()),
			attribute.String("db.operation", name),
			attribute.String("db.sql.table", resource),
		),
	)
	return ctx, &operation{
		cfg:      cfg,
		name:     name,
		resource: resource,
		system:   db.dialect.Name(),
		start:    time.Now(),
		span:     span,
	}
}

func (op *operation) end(size int64, err error) {
	duration := time.Since(op.start)
	op.span.SetAttributes(attribute.Int64("db.rows", size))
	if err != nil {
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
	}
	op.span.End()

	if op.cfg.Observer == nil {
		return
	}
	op.cfg.Observer.ObserveOperation(observability.OperationContext{
		Component:   component,
		Operation:   op.name,
		Resource:    op.resource,
		SubResource: op.subResource,
		Duration:    duration,
		Error:       err,
		Size:        size,
		Metadata:    map[string]interface{}{"db.system": op.system},
	})
}

func (op *operation) debug(text string, params int) {
	op.cfg.Logger.Debug("executing command", nil, map[string]interface{}{
		"operation":  op.name,
		"resource":   op.resource,
		"sql":        text,
		"parameters": params,
	})
}
