package mariadb

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
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

// MariaDB owns one MariaDB/MySQL connection pool, opened through GORM and
// shared with the access layer. The pool is never replaced; the health loops
// only track and log its state.
type MariaDB struct {
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

// NewMariaDB connects to MariaDB or MySQL.
func NewMariaDB(cfg Config, logger Logger) (*MariaDB, error) {
	dsn, err := DSN(cfg.Connection)
	if err != nil {
		return nil, err
	}
	return newMariaDB(cfg, logger, mysql.Open(dsn))
}

func newMariaDB(cfg Config, logger Logger, dialector gorm.Dialector) (*MariaDB, error) {
	conn, err := connectToMariaDB(cfg, dialector)
	if err != nil {
		return nil, fmt.Errorf("error in connecting to MariaDB: %w", err)
	}
	logger.Info("Successfully connected to MariaDB/MySQL database", nil, map[string]interface{}{
		"host": cfg.Connection.Host,
		"db":   cfg.Connection.DbName,
	})

	m := &MariaDB{
		cfg:             cfg,
		client:          conn,
		logger:          logger,
		retryInterval:   time.Second,
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
	}
	m.healthy.Store(true)
	return m, nil
}

// DSN renders the go-sql-driver/mysql data source name for c.
func DSN(c Connection) (string, error) {
	mc := mysqldriver.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, c.Port)
	mc.DBName = c.DbName
	mc.ParseTime = c.ParseTime
	mc.TLSConfig = c.TLS

	charset := c.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	mc.Params = map[string]string{"charset": charset}

	loc := c.Loc
	if loc == "" {
		loc = "Local"
	}
	var err error
	if mc.Loc, err = time.LoadLocation(loc); err != nil {
		return "", fmt.Errorf("invalid MariaDB location %q: %w", loc, err)
	}

	for _, d := range []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"timeout", c.Timeout, &mc.Timeout},
		{"readTimeout", c.ReadTimeout, &mc.ReadTimeout},
		{"writeTimeout", c.WriteTimeout, &mc.WriteTimeout},
	} {
		if d.value == "" {
			continue
		}
		if *d.dst, err = time.ParseDuration(d.value); err != nil {
			return "", fmt.Errorf("invalid MariaDB %s %q: %w", d.name, d.value, err)
		}
	}
	return mc.FormatDSN(), nil
}

func connectToMariaDB(cfg Config, dialector gorm.Dialector) (*gorm.DB, error) {
	database, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MariaDB/MySQL database: %w", err)
	}

	databaseInstance, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get MariaDB/MySQL database instance: %w", err)
	}

	maxOpenConns := cfg.ConnectionDetails.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 50
	}
	maxIdleConns := cfg.ConnectionDetails.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 25
	}
	connMaxLifetime := cfg.ConnectionDetails.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = time.Minute
	}

	databaseInstance.SetMaxOpenConns(maxOpenConns)
	databaseInstance.SetMaxIdleConns(maxIdleConns)
	databaseInstance.SetConnMaxLifetime(connMaxLifetime)

	return database, nil
}

// DB returns the GORM handle.
func (m *MariaDB) DB() *gorm.DB {
	return m.client
}

// SQL returns the connection pool.
func (m *MariaDB) SQL() (*sql.DB, error) {
	return m.client.DB()
}

// Dialect returns the MySQL dialect, which MariaDB shares.
func (m *MariaDB) Dialect() dialect.Dialect {
	return dialect.NewMySQL()
}

// Access returns a data-access handle on the pool.
func (m *MariaDB) Access(opts ...access.Option) (*access.DB, error) {
	sqlDB, err := m.SQL()
	if err != nil {
		return nil, fmt.Errorf("failed to get MariaDB/MySQL database instance: %w", err)
	}
	return access.New(sqlDB, m.Dialect(), opts...), nil
}

// Healthy reports the result of the last health check.
func (m *MariaDB) Healthy() bool {
	return m.healthy.Load()
}

// MonitorConnection pings the server periodically and signals
// RetryConnection when a ping fails.
func (m *MariaDB) MonitorConnection(ctx context.Context) {
	defer m.closeRetryChanOnce.Do(func() {
		close(m.retryChanSignal)
	})

	interval := m.cfg.ConnectionDetails.HealthCheckInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.shutdownSignal:
			m.logger.Info("Stopping MonitorConnection loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.healthCheck(ctx); err != nil {
				m.healthy.Store(false)
				select {
				case m.retryChanSignal <- err:
				default:
				}
			}
		}
	}
}

// RetryConnection waits for failed health checks and pings until the server
// answers again.
func (m *MariaDB) RetryConnection(ctx context.Context) {
	for {
		select {
		case <-m.shutdownSignal:
			m.logger.Info("Stopping RetryConnection loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case cause, ok := <-m.retryChanSignal:
			if !ok {
				return
			}
			m.logger.Warn("MariaDB health check failed, reconnecting", cause)
		retry:
			for {
				err := m.healthCheck(ctx)
				if err == nil {
					break retry
				}
				m.logger.Error("MariaDB reconnection failed", err)
				select {
				case <-m.shutdownSignal:
					return
				case <-ctx.Done():
					return
				case <-time.After(m.retryInterval):
				}
			}
			m.healthy.Store(true)
			m.logger.Info("Successfully reconnected to MariaDB/MySQL database", nil)
		}
	}
}

func (m *MariaDB) healthCheck(ctx context.Context) error {
	db, err := m.SQL()
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
