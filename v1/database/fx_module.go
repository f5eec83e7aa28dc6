package database

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/dbaccess/v1/access"
	"github.com/Aleph-Alpha/dbaccess/v1/mariadb"
	"github.com/Aleph-Alpha/dbaccess/v1/postgres"
	"github.com/Aleph-Alpha/dbaccess/v1/schema"
)

// FXModule provides database.Client and *access.DB via dependency injection.
// It selects the implementation (postgres or mariadb) based on the provided
// Config and runs the client's health loops for the lifetime of the app.
// Use it instead of postgres.FXModule or mariadb.FXModule, not next to them.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    access.FXModule,
//	    database.FXModule,
//	    fx.Provide(func() database.Config {
//	        return database.PostgresConfig(postgres.Config{...})
//	    }),
//	    fx.Invoke(func(db *access.DB) {
//	        // Operations on db pick up the defaults installed by access.FXModule.
//	    }),
//	)
//
// Dependencies required by this module:
// - A database.Config and an access.Logger must be available in the container
var FXModule = fx.Module("database",
	fx.Provide(
		NewClientWithDI,
		NewAccessWithDI,
	),
	fx.Invoke(RegisterDatabaseLifecycle),
)

// DatabaseParams groups the dependencies needed to create a database client
type DatabaseParams struct {
	fx.In

	Config Config
	Logger access.Logger
}

// AccessParams groups the dependencies of NewAccessWithDI.
type AccessParams struct {
	fx.In

	Config Config
	Client Client
}

// DatabaseLifecycleParams groups the dependencies needed for database lifecycle management
type DatabaseLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    Client
	Logger    access.Logger
}

// NewClient creates the client selected by cfg.Type.
func NewClient(cfg Config, logger access.Logger) (Client, error) {
	switch cfg.Type {
	case TypePostgres:
		if cfg.Postgres == nil {
			return nil, fmt.Errorf("postgres config is required when type=postgres")
		}
		pg, err := postgres.NewPostgres(*cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		return pg, nil

	case TypeMariaDB:
		if cfg.MariaDB == nil {
			return nil, fmt.Errorf("mariadb config is required when type=mariadb")
		}
		m, err := mariadb.NewMariaDB(*cfg.MariaDB, logger)
		if err != nil {
			return nil, err
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s (must be 'postgres' or 'mariadb')", cfg.Type)
	}
}

// NewAccess returns a data-access handle on the client's pool. With
// cfg.GormContracts set, schema contracts come from GORM models named by the
// client's naming strategy; explicit opts still take precedence.
func NewAccess(client Client, cfg Config, opts ...access.Option) (*access.DB, error) {
	if cfg.GormContracts {
		contracts := schema.NewGormProvider(client.DB().NamingStrategy)
		opts = append([]access.Option{access.WithContracts(contracts)}, opts...)
	}
	return client.Access(opts...)
}

// NewClientWithDI creates a database client using dependency injection.
// The concrete implementation (postgres or mariadb) is selected based on Config.Type.
func NewClientWithDI(params DatabaseParams) (Client, error) {
	return NewClient(params.Config, params.Logger)
}

// NewAccessWithDI provides the data-access handle of the injected client.
func NewAccessWithDI(params AccessParams) (*access.DB, error) {
	return NewAccess(params.Client, params.Config)
}

// RegisterDatabaseLifecycle starts the client's health loops on start and
// waits for them before closing the pool on stop.
func RegisterDatabaseLifecycle(params DatabaseLifecycleParams) {
	wg := &sync.WaitGroup{}
	loopCtx, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			params.Logger.Info("Database client initialized", nil, map[string]interface{}{
				"dialect": params.Client.Dialect().Name(),
			})
			wg.Add(2)
			go func() {
				defer wg.Done()
				params.Client.MonitorConnection(loopCtx)
			}()
			go func() {
				defer wg.Done()
				params.Client.RetryConnection(loopCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Shutting down database client", nil)
			cancel()
			wg.Wait()
			return params.Client.GracefulShutdown()
		},
	})
}
