package postgres

import "time"

// Supported values of Config.Driver.
const (
	DriverPgx = "pgx"
	DriverPq  = "pq"
)

// Config defines the configuration for the PostgreSQL provider.
type Config struct {
	Connection        Connection
	ConnectionDetails ConnectionDetails

	// Driver selects the database/sql driver: DriverPgx (default) or DriverPq.
	Driver string `yaml:"driver" envconfig:"POSTGRES_DRIVER"`
}

// Connection holds the connection parameters.
type Connection struct {
	Host     string `yaml:"host" envconfig:"POSTGRES_HOST"`
	Port     string `yaml:"port" envconfig:"POSTGRES_PORT"`
	User     string `yaml:"user" envconfig:"POSTGRES_USER"`
	Password string `yaml:"password" envconfig:"POSTGRES_PASSWORD"`
	DbName   string `yaml:"db_name" envconfig:"POSTGRES_DB"`
	SSLMode  string `yaml:"ssl_mode" envconfig:"POSTGRES_SSLMODE"`
}

// ConnectionDetails holds the pool settings. Zero values use 50 open
// connections, 25 idle connections and a one minute lifetime.
type ConnectionDetails struct {
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"POSTGRES_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"POSTGRES_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"POSTGRES_CONN_MAX_LIFETIME"`

	// HealthCheckInterval is how often MonitorConnection pings the server.
	// Zero means ten seconds.
	HealthCheckInterval time.Duration `yaml:"health_check_interval" envconfig:"POSTGRES_HEALTH_CHECK_INTERVAL"`
}
