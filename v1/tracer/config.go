package tracer

// Config defines the configuration for the tracer.
type Config struct {
	// ServiceName is recorded as the service.name resource attribute.
	ServiceName string `yaml:"service_name" envconfig:"TRACER_SERVICE_NAME"`

	// AppEnv is recorded as the deployment environment.
	AppEnv string `yaml:"app_env" envconfig:"APP_ENV"`

	// EnableExport sends spans to the OTLP HTTP endpoint configured through
	// the standard OTEL_EXPORTER_OTLP_* environment variables. When false,
	// spans are created but never exported.
	EnableExport bool `yaml:"enable_export" envconfig:"TRACER_ENABLE_EXPORT"`
}
