package access

import (
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/dbaccess/v1/observability"
	"github.com/Aleph-Alpha/dbaccess/v1/schema"
)

const tracerName = "github.com/Aleph-Alpha/dbaccess/v1/access"

// ValidationMode controls batch validation before writes.
type ValidationMode int

const (
	// ValidationOff skips validation.
	ValidationOff ValidationMode = iota

	// ValidationEager validates every item and reports all failures.
	ValidationEager

	// ValidationLazy stops at the first failing item.
	ValidationLazy
)

func (m ValidationMode) String() string {
	switch m {
	case ValidationEager:
		return "eager"
	case ValidationLazy:
		return "lazy"
	default:
		return "off"
	}
}

// Config holds the collaborators and toggles read at the start of each operation.
type Config struct {
	Validation ValidationMode `yaml:"validation" envconfig:"ACCESS_VALIDATION"`

	// SkipKeyRetrieval inserts without reading generated keys back.
	SkipKeyRetrieval bool `yaml:"skip_key_retrieval" envconfig:"ACCESS_SKIP_KEY_RETRIEVAL"`

	Validator Validator              `yaml:"-"`
	Filter    ActionFilter           `yaml:"-"`
	Contracts schema.Provider        `yaml:"-"`
	Observer  observability.Observer `yaml:"-"`
	Logger    Logger                 `yaml:"-"`
	Tracer    trace.Tracer           `yaml:"-"`
}

// withFallbacks fills unset collaborators.
func (c Config) withFallbacks() Config {
	if c.Contracts == nil {
		c.Contracts = defaultContracts
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
	if c.Tracer == nil {
		c.Tracer = otel.Tracer(tracerName)
	}
	return c
}

var (
	defaultContracts = schema.NewMapper()
	defaults         atomic.Pointer[Config]
)

// SetDefaults installs the process-wide default configuration. Call it once
// during startup; operations already running keep the configuration they read.
func SetDefaults(cfg Config) {
	defaults.Store(&cfg)
}

// Defaults returns the process-wide default configuration.
func Defaults() Config {
	if c := defaults.Load(); c != nil {
		return *c
	}
	return Config{}
}

// Option overrides the configuration of one DB.
type Option func(*Config)

// WithValidator sets the validator and validation mode.
func WithValidator(v Validator, mode ValidationMode) Option {
	return func(c *Config) {
		c.Validator = v
		c.Validation = mode
	}
}

// WithFilter sets the pre-action hook.
func WithFilter(f ActionFilter) Option {
	return func(c *Config) { c.Filter = f }
}

// WithContracts sets the schema provider.
func WithContracts(p schema.Provider) Option {
	return func(c *Config) { c.Contracts = p }
}

// WithObserver sets the operation observer.
func WithObserver(o observability.Observer) Option {
	return func(c *Config) { c.Observer = o }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Config) { c.Tracer = t }
}

// WithoutKeyRetrieval disables generated-key retrieval on insert.
func WithoutKeyRetrieval() Option {
	return func(c *Config) { c.SkipKeyRetrieval = true }
}

// KeyGeneration tells how a table's primary key gets its value on insert.
type KeyGeneration int

const (
	// KeyGenerationAuto derives generation from the model (auto-increment) or
	// a configured sequence.
	KeyGenerationAuto KeyGeneration = iota

	// KeyGenerationDatabase means the database generates the single-column key.
	KeyGenerationDatabase

	// KeyGenerationNone means callers always supply keys.
	KeyGenerationNone
)

// TableConfig binds a Table to a database table.
type TableConfig struct {
	// Name of the table. Empty falls back to the model's table name.
	Name string `yaml:"name"`

	// PrimaryKey lists key columns, comma separated. Empty falls back to the model.
	PrimaryKey string `yaml:"primary_key"`

	// Sequence names the sequence generating the key, on dialects with sequences.
	Sequence string `yaml:"sequence"`

	// Columns is the default column list of SELECTs. Empty means "*".
	Columns string `yaml:"columns"`

	KeyGeneration KeyGeneration `yaml:"key_generation"`
}

func splitColumns(list string) []string {
	var out []string
	for _, c := range strings.Split(list, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
