package database

import (
	"github.com/Aleph-Alpha/dbaccess/v1/mariadb"
	"github.com/Aleph-Alpha/dbaccess/v1/postgres"
)

const (
	TypePostgres = "postgres"
	TypeMariaDB  = "mariadb"
)

// Config contains configuration for database client creation.
// Use one of the helper functions (PostgresConfig, MariaDBConfig) to create it.
type Config struct {
	// Type is the database type ("postgres" or "mariadb")
	Type string `yaml:"type" envconfig:"DATABASE_TYPE"`

	// Postgres configuration (used when Type = "postgres")
	Postgres *postgres.Config `yaml:"postgres"`

	// MariaDB configuration (used when Type = "mariadb")
	MariaDB *mariadb.Config `yaml:"mariadb"`

	// GormContracts makes the access handle read table names, columns and
	// keys from GORM model definitions, named by the client's naming
	// strategy. When false the db struct tag contract is used.
	GormContracts bool `yaml:"gorm_contracts" envconfig:"DATABASE_GORM_CONTRACTS"`
}

// PostgresConfig creates a database.Config for PostgreSQL.
// Use this in your fx.Provide function.
//
// Example:
//
//	fx.Provide(func() database.Config {
//	    return database.PostgresConfig(postgres.Config{
//	        Connection: postgres.Connection{
//	            Host: "localhost",
//	            Port: "5432",
//	            // ...
//	        },
//	    })
//	})
func PostgresConfig(cfg postgres.Config) Config {
	return Config{
		Type:     TypePostgres,
		Postgres: &cfg,
	}
}

// MariaDBConfig creates a database.Config for MariaDB/MySQL.
//
// Example:
//
//	fx.Provide(func() database.Config {
//	    return database.MariaDBConfig(mariadb.Config{
//	        Connection: mariadb.Connection{
//	            Host: "localhost",
//	            Port: "3306",
//	            // ...
//	        },
//	    })
//	})
func MariaDBConfig(cfg mariadb.Config) Config {
	return Config{
		Type:    TypeMariaDB,
		MariaDB: &cfg,
	}
}
