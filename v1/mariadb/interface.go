package mariadb

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/Aleph-Alpha/dbaccess/v1/access"
	"github.com/Aleph-Alpha/dbaccess/v1/dialect"
)

// Client is implemented by *MariaDB.
type Client interface {
	DB() *gorm.DB
	SQL() (*sql.DB, error)
	Dialect() dialect.Dialect
	Access(opts ...access.Option) (*access.DB, error)
	Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error
	Healthy() bool

	TranslateError(err error) error
	GetErrorCategory(err error) ErrorCategory
	IsRetryable(err error) bool
	IsTemporary(err error) bool
	IsCritical(err error) bool

	GracefulShutdown() error
}

var _ Client = (*MariaDB)(nil)
