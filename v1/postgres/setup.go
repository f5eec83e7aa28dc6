package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/dbaccess/v1/access"
	"github.com/Aleph-Alpha/dbaccess/v1/dialect"
)

// Logger is the logging contract of the provider; *logger.Logger satisfies it.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Postgres owns one PostgreSQL connection pool. GORM opens and configures
// the pool; the access layer executes on the same *sql.DB.
//
// The pool is never replaced. database/sql redials broken connections on
// demand, so MonitorConnection and RetryConnection only track health and log
// transitions; every *access.DB built from Access keeps working after the
// server comes back.
type Postgres struct {
	cfg     Config
	client  *gorm.DB
	logger  Logger
	healthy atomic.Bool

	retryInterval   time.Duration
	shutdownSignal  chan struct{}
	retryChanSignal chan error

	closeRetryChanOnce sync.Once
	closeShutdownOnce  sync.Once
}

// NewPostgres connects to PostgreSQL with the configured driver and pool
// settings.
//
// Example:
//
//	pg, err := postgres.NewPostgres(postgres.Config{
//	    Connection: postgres.Connection{
//	        Host:     "localhost",
//	        Port:     "5432",
//	        User:     "app",
//	        Password: "secret",
//	        DbName:   "billing",
//	        SSLMode:  "disable",
//	    },
//	}, log)
//	if err != nil {
//	    return err
//	}
//	db, err := pg.Access(access.WithLogger(log))
func NewPostgres(cfg Config, logger Logger) (*Postgres, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	return newPostgres(cfg, logger, dialector)
}

func newPostgres(cfg Config, logger Logger, dialector gorm.Dialector) (*Postgres, error) {
	conn, err := connectToPostgres(cfg, dialector)
	if err != nil {
		return nil, fmt.Errorf("error in connecting to postgres: %w", err)
	}
	logger.Info("Successfully connected to PostgreSQL database", nil, map[string]interface{}{
		"host":   cfg.Connection.Host,
		"db":     cfg.Connection.DbName,
		"driver": driverName(cfg),
	})

	pg := &Postgres{
		cfg:             cfg,
		client:          conn,
		logger:          logger,
		retryInterval:   time.Second,
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
	}
	pg.healthy.Store(true)
	return pg, nil
}

func driverName(cfg Config) string {
	if cfg.Driver == "" {
		return DriverPgx
	}
	return cfg.Driver
}

func dialectorFor(cfg Config) (gorm.Dialector, error) {
	dsn := DSN(cfg.Connection)
	switch driverName(cfg) {
	case DriverPgx:
		return postgres.New(postgres.Config{DSN: dsn}), nil
	case DriverPq:
		// lib/pq registers itself as "postgres".
		return postgres.New(postgres.Config{DSN: dsn, DriverName: "postgres"}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// DSN renders the keyword/value connection string understood by both pgx
// and lib/pq. Empty settings are omitted.
func DSN(c Connection) string {
	var parts []string
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, key+"="+quoteDSNValue(value))
		}
	}
	add("host", c.Host)
	add("port", c.Port)
	add("user", c.User)
	add("password", c.Password)
	add("dbname", c.DbName)
	add("sslmode", c.SSLMode)
	return strings.Join(parts, " ")
}

func quoteDSNValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func connectToPostgres(cfg Config, dialector gorm.Dialector) (*gorm.DB, error) {
	database, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	databaseInstance, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get PostgreSQL database instance: %w", err)
	}

	maxOpen := cfg.ConnectionDetails.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 50
	}
	maxIdle := cfg.ConnectionDetails.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 25
	}
	maxLifetime := cfg.ConnectionDetails.ConnMaxLifetime
	if maxLifetime <= 0 {
		maxLifetime = time.Minute
	}

	databaseInstance.SetMaxOpenConns(maxOpen)
	databaseInstance.SetMaxIdleConns(maxIdle)
	databaseInstance.SetConnMaxLifetime(maxLifetime)

	return database, nil
}

// DB returns the GORM handle, for migrations and model-centric code.
func (p *Postgres) DB() *gorm.DB {
	return p.client
}

// SQL returns the connection pool.
func (p *Postgres) SQL() (*sql.DB, error) {
	return p.client.DB()
}

// Dialect returns the PostgreSQL dialect.
func (p *Postgres) Dialect() dialect.Dialect {
	return dialect.NewPostgres()
}

// Access returns a data-access handle on the pool.
func (p *Postgres) Access(opts ...access.Option) (*access.DB, error) {
	sqlDB, err := p.SQL()
	if err != nil {
		return nil, fmt.Errorf("failed to get PostgreSQL database instance: %w", err)
	}
	return access.New(sqlDB, p.Dialect(), opts...), nil
}

// Healthy reports the result of the last health check.
func (p *Postgres) Healthy() bool {
	return p.healthy.Load()
}

// MonitorConnection pings the server periodically and signals
// RetryConnection when a ping fails. It returns on shutdown or when ctx ends.
func (p *Postgres) MonitorConnection(ctx context.Context) {
	defer p.closeRetryChanOnce.Do(func() {
		close(p.retryChanSignal)
	})

	interval := p.cfg.ConnectionDetails.HealthCheckInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.shutdownSignal:
			p.logger.Info("Stopping MonitorConnection loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.healthCheck(ctx); err != nil {
				p.healthy.Store(false)
				select {
				case p.retryChanSignal <- err:
				default:
				}
			}
		}
	}
}

// RetryConnection waits for failed health checks and pings until the server
// answers again.
func (p *Postgres) RetryConnection(ctx context.Context) {
	for {
		select {
		case <-p.shutdownSignal:
			p.logger.Info("Stopping RetryConnection loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case cause, ok := <-p.retryChanSignal:
			if !ok {
				return
			}
			p.logger.Warn("PostgreSQL health check failed, reconnecting", cause)
			if !p.awaitRecovery(ctx) {
				return
			}
			p.healthy.Store(true)
			p.logger.Info("Successfully reconnected to PostgreSQL database", nil)
		}
	}
}

// awaitRecovery pings until success. It returns false on shutdown.
func (p *Postgres) awaitRecovery(ctx context.Context) bool {
	for {
		err := p.healthCheck(ctx)
		if err == nil {
			return true
		}
		p.logger.Error("PostgreSQL reconnection failed", err)
		select {
		case <-p.shutdownSignal:
			return false
		case <-ctx.Done():
			return false
		case <-time.After(p.retryInterval):
		}
	}
}

func (p *Postgres) healthCheck(ctx context.Context) error {
	db, err := p.SQL()
	if err != nil {
		return fmt.Errorf("failed to get database instance during health check: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed during health check: %w", err)
	}
	return nil
}
