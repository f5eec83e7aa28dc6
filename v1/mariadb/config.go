package mariadb

import "time"

// Config defines the configuration for the MariaDB/MySQL provider.
type Config struct {
	Connection        Connection
	ConnectionDetails ConnectionDetails
}

// Connection holds the connection parameters.
type Connection struct {
	Host     string `yaml:"host" envconfig:"MARIADB_HOST"`
	Port     string `yaml:"port" envconfig:"MARIADB_PORT"`
	User     string `yaml:"user" envconfig:"MARIADB_USER"`
	Password string `yaml:"password" envconfig:"MARIADB_PASSWORD"`
	DbName   string `yaml:"db_name" envconfig:"MARIADB_DB"`

	// Charset defaults to utf8mb4.
	Charset string `yaml:"charset" envconfig:"MARIADB_CHARSET"`

	// ParseTime scans DATE and DATETIME columns into time.Time.
	ParseTime bool `yaml:"parse_time" envconfig:"MARIADB_PARSE_TIME"`

	// Loc is the time zone of parsed times. Defaults to "Local".
	Loc string `yaml:"loc" envconfig:"MARIADB_LOC"`

	// TLS is "true", "false", "skip-verify", "preferred" or the name of a
	// config registered with mysql.RegisterTLSConfig.
	TLS string `yaml:"tls" envconfig:"MARIADB_TLS"`

	// Timeouts in time.ParseDuration format, e.g. "5s".
	Timeout      string `yaml:"timeout" envconfig:"MARIADB_TIMEOUT"`
	ReadTimeout  string `yaml:"read_timeout" envconfig:"MARIADB_READ_TIMEOUT"`
	WriteTimeout string `yaml:"write_timeout" envconfig:"MARIADB_WRITE_TIMEOUT"`
}

// ConnectionDetails holds the pool settings. Zero values use 50 open
// connections, 25 idle connections and a one minute lifetime.
type ConnectionDetails struct {
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"MARIADB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"MARIADB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"MARIADB_CONN_MAX_LIFETIME"`

	// HealthCheckInterval is how often MonitorConnection pings the server.
	// Zero means ten seconds.
	HealthCheckInterval time.Duration `yaml:"health_check_interval" envconfig:"MARIADB_HEALTH_CHECK_INTERVAL"`
}
