package mariadb

import (
	"context"
	"sync"

	"go.uber.org/fx"
)

// FXModule provides *MariaDB and the Client interface, and runs the health
// loops for the lifetime of the application.
var FXModule = fx.Module("mariadb",
	fx.Provide(
		NewMariaDBClientWithDI,
		fx.Annotate(
			ProvideClient,
			fx.As(new(Client)),
		),
	),
	fx.Invoke(RegisterMariaDBLifecycle),
)

// ProvideClient exposes *MariaDB as Client.
func ProvideClient(db *MariaDB) *MariaDB {
	return db
}

// MariaDBParams groups the dependencies of NewMariaDBClientWithDI.
type MariaDBParams struct {
	fx.In

	Config Config
	Logger Logger
}

// NewMariaDBClientWithDI creates the provider from injected dependencies.
func NewMariaDBClientWithDI(params MariaDBParams) (*MariaDB, error) {
	return NewMariaDB(params.Config, params.Logger)
}

// MariaDBLifeCycleParams groups the dependencies of RegisterMariaDBLifecycle.
type MariaDBLifeCycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	MariaDB   *MariaDB
}

// RegisterMariaDBLifecycle starts the health loops on start; on stop it waits
// for them and closes the pool.
func RegisterMariaDBLifecycle(params MariaDBLifeCycleParams) {
	wg := &sync.WaitGroup{}
	loopCtx, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			wg.Add(2)
			go func() {
				defer wg.Done()
				params.MariaDB.MonitorConnection(loopCtx)
			}()
			go func() {
				defer wg.Done()
				params.MariaDB.RetryConnection(loopCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			params.MariaDB.closeShutdownOnce.Do(func() {
				close(params.MariaDB.shutdownSignal)
			})
			cancel()
			wg.Wait()
			return params.MariaDB.GracefulShutdown()
		},
	})
}

// GracefulShutdown stops the health loops and closes the connection pool.
func (m *MariaDB) GracefulShutdown() error {
	m.closeShutdownOnce.Do(func() {
		close(m.shutdownSignal)
	})
	sqlDB, err := m.SQL()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
