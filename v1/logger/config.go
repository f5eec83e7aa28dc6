package logger

// Log levels accepted by Config.Level.
const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Config defines the configuration for the logger.
type Config struct {
	// Level is one of Debug, Info, Warning or Error. Anything else logs at Info.
	Level string `yaml:"level" envconfig:"ZAP_LOGGER_LEVEL"`

	// ServiceName is attached to every entry as the "service" field.
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`

	// EnableTracing adds trace_id and span_id to entries logged with a
	// context that carries an active span.
	EnableTracing bool `yaml:"enable_tracing" envconfig:"LOGGER_ENABLE_TRACING"`
}
