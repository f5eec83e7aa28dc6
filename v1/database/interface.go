package database

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/Aleph-Alpha/dbaccess/v1/access"
	"github.com/Aleph-Alpha/dbaccess/v1/dialect"
	"github.com/Aleph-Alpha/dbaccess/v1/mariadb"
	"github.com/Aleph-Alpha/dbaccess/v1/postgres"
)

// Client is the part of the provider API that does not depend on the
// database. Applications that must run on PostgreSQL and MariaDB depend on
// Client and reach the data-access layer through Access.
//
// Implementations:
//   - postgres.Postgres implements this interface
//   - mariadb.MariaDB implements this interface
type Client interface {
	// DB returns the GORM handle for code that still works with GORM models.
	DB() *gorm.DB

	// SQL returns the connection pool shared by GORM and the access layer.
	SQL() (*sql.DB, error)

	// Dialect returns the SQL dialect matching the server.
	Dialect() dialect.Dialect

	// Access returns a data-access handle on the shared pool.
	Access(opts ...access.Option) (*access.DB, error)

	// Transaction runs fn in one transaction. GORM calls on tx and access
	// calls on ctx both run inside it.
	Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error

	// MonitorConnection and RetryConnection are the health loops; both
	// return when ctx is cancelled or the client shuts down.
	MonitorConnection(ctx context.Context)
	RetryConnection(ctx context.Context)
	Healthy() bool

	// Error translation / classification.
	//
	// Errors from the access layer and from GORM are returned as the driver
	// produced them. TranslateError wraps them with the provider sentinels.
	// ErrRecordNotFound, ErrDuplicateKey, ErrForeignKey, ErrCheckConstraint
	// and ErrInvalidData are shared by both providers, so errors.Is checks
	// against this package's aliases work for either.
	TranslateError(err error) error
	IsRetryable(err error) bool
	IsTemporary(err error) bool
	IsCritical(err error) bool

	// Lifecycle management
	GracefulShutdown() error
}

// Sentinels shared by every provider.
var (
	ErrRecordNotFound  = access.ErrRecordNotFound
	ErrDuplicateKey    = postgres.ErrDuplicateKey
	ErrForeignKey      = postgres.ErrForeignKey
	ErrCheckConstraint = postgres.ErrCheckConstraint
	ErrInvalidData     = postgres.ErrInvalidData
)

var (
	_ Client = (*postgres.Postgres)(nil)
	_ Client = (*mariadb.MariaDB)(nil)
)
