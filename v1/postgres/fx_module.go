package postgres

import (
	"context"
	"sync"

	"go.uber.org/fx"
)

// FXModule provides *Postgres and the Client interface, and runs the health
// loops for the lifetime of the application.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    postgres.FXModule,
//	    fx.Provide(func() postgres.Config { return cfg }),
//	)
//
// Dependencies required by this module:
// - A postgres.Config and a postgres.Logger must be available in the container
var FXModule = fx.Module("postgres",
	fx.Provide(
		NewPostgresClientWithDI,
		fx.Annotate(
			ProvideClient,
			fx.As(new(Client)),
		),
	),
	fx.Invoke(RegisterPostgresLifecycle),
)

// ProvideClient exposes *Postgres as Client.
func ProvideClient(pg *Postgres) *Postgres {
	return pg
}

// PostgresParams groups the dependencies of NewPostgresClientWithDI.
type PostgresParams struct {
	fx.In

	Config Config
	Logger Logger
}

// NewPostgresClientWithDI creates the provider from injected dependencies.
func NewPostgresClientWithDI(params PostgresParams) (*Postgres, error) {
	return NewPostgres(params.Config, params.Logger)
}

// PostgresLifeCycleParams groups the dependencies of RegisterPostgresLifecycle.
type PostgresLifeCycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Postgres  *Postgres
}

// RegisterPostgresLifecycle starts MonitorConnection and RetryConnection on
// start; on stop it waits for both to return and closes the pool.
func RegisterPostgresLifecycle(params PostgresLifeCycleParams) {
	wg := &sync.WaitGroup{}
	// The loops outlive OnStart, so they get their own context.
	loopCtx, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			wg.Add(2)
			go func() {
				defer wg.Done()
				params.Postgres.MonitorConnection(loopCtx)
			}()
			go func() {
				defer wg.Done()
				params.Postgres.RetryConnection(loopCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			params.Postgres.closeShutdownOnce.Do(func() {
				close(params.Postgres.shutdownSignal)
			})
			cancel()
			wg.Wait()
			return params.Postgres.GracefulShutdown()
		},
	})
}

// GracefulShutdown stops the health loops and closes the connection pool.
// It is safe to call more than once.
func (p *Postgres) GracefulShutdown() error {
	p.closeShutdownOnce.Do(func() {
		close(p.shutdownSignal)
	})
	sqlDB, err := p.SQL()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
