package access

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/dbaccess/v1/observability"
	"github.com/Aleph-Alpha/dbaccess/v1/schema"
)

// FXModule installs the process-wide defaults from the container. Every
// dependency is optional; missing ones keep their current default.
//
// Example usage with fx:
//
//	app := fx.New(
//	    logger.FXModule,
//	    metrics.FXModule,
//	    access.FXModule,
//	    database.FXModule,
//	)
var FXModule = fx.Module("access",
	fx.Invoke(RegisterDefaults),
)

// DefaultsParams groups the optional collaborators that become process defaults.
type DefaultsParams struct {
	fx.In

	Logger    Logger                 `optional:"true"`
	Observer  observability.Observer `optional:"true"`
	Tracer    trace.Tracer           `optional:"true"`
	Contracts schema.Provider        `optional:"true"`
	Validator Validator              `optional:"true"`
}

// RegisterDefaults merges the injected collaborators into Defaults. It runs
// during fx start-up, before any operation reads the defaults.
func RegisterDefaults(p DefaultsParams) {
	cfg := Defaults()
	if p.Logger != nil {
		cfg.Logger = p.Logger
	}
	if p.Observer != nil {
		cfg.Observer = p.Observer
	}
	if p.Tracer != nil {
		cfg.Tracer = p.Tracer
	}
	if p.Contracts != nil {
		cfg.Contracts = p.Contracts
	}
	if p.Validator != nil {
		cfg.Validator = p.Validator
		if cfg.Validation == ValidationOff {
			cfg.Validation = ValidationEager
		}
	}
	SetDefaults(cfg)
}
