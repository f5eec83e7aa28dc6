package postgres

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/Aleph-Alpha/dbaccess/v1/access"
	"github.com/Aleph-Alpha/dbaccess/v1/dialect"
)

// Client is implemented by *Postgres.
type Client interface {
	// DB returns the GORM handle.
	DB() *gorm.DB

	// SQL returns the connection pool shared with the access layer.
	SQL() (*sql.DB, error)

	// Dialect returns the PostgreSQL dialect.
	Dialect() dialect.Dialect

	// Access returns a data-access handle on the pool.
	Access(opts ...access.Option) (*access.DB, error)

	// Transaction runs fn in a transaction shared by GORM and the access layer.
	Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error

	// Healthy reports the result of the last health check.
	Healthy() bool

	TranslateError(err error) error
	GetErrorCategory(err error) ErrorCategory
	IsRetryable(err error) bool
	IsTemporary(err error) bool
	IsCritical(err error) bool

	// GracefulShutdown stops the health loops and closes the pool.
	GracefulShutdown() error
}

// GetErrorCategory is GetErrorCategory bound to the provider.
func (p *Postgres) GetErrorCategory(err error) ErrorCategory { return GetErrorCategory(err) }

var _ Client = (*Postgres)(nil)
