package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// Logger is the logging contract of the tracer; *logger.Logger satisfies it.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// InstrumentationName names the tracer handed to the access package.
const InstrumentationName = "github.com/Aleph-Alpha/dbaccess"

// Tracer owns the OpenTelemetry tracer provider of the process.
type Tracer struct {
	tracer *sdktrace.TracerProvider
	logger Logger
}

// NewClient creates the tracer provider, installs it as the global provider
// together with the W3C trace context and baggage propagators, and returns it.
//
// With EnableExport set, spans are batched to an OTLP HTTP exporter. If the
// exporter cannot be created the logger's Fatal is called.
//
// Example:
//
//	t := tracer.NewClient(tracer.Config{
//	    ServiceName:  "billing",
//	    AppEnv:       "production",
//	    EnableExport: true,
//	}, log)
//	db := access.New(sqlDB, dialect.NewPostgres(), access.WithTracer(t.Tracer()))
func NewClient(cfg Config, logger Logger) *Tracer {
	var options []sdktrace.TracerProviderOption

	if cfg.EnableExport {
		client := otlptracehttp.NewClient()
		exporter, err := otlptrace.New(context.Background(), client)
		if err != nil {
			logger.Fatal("cannot initiate tracer", err, nil)
			return nil
		}
		options = append(options, sdktrace.WithBatcher(exporter))
	}

	t := newTracer(cfg, logger, options...)
	otel.SetTracerProvider(t.tracer)
	otel.SetTextMapPropagator(propagator())
	return t
}

func newTracer(cfg Config, logger Logger, options ...sdktrace.TracerProviderOption) *Tracer {
	options = append(options, sdktrace.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.AppEnv),
		attribute.String("environment", cfg.AppEnv),
	)))
	return &Tracer{tracer: sdktrace.NewTracerProvider(options...), logger: logger}
}

// Tracer returns the tracer database operations record their spans with.
func (t *Tracer) Tracer() trace.Tracer {
	return t.tracer.Tracer(InstrumentationName)
}

// Shutdown flushes pending spans and stops the provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.tracer == nil {
		return nil
	}
	return t.tracer.Shutdown(ctx)
}

func propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
}
