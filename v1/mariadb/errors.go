package mariadb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/dbaccess/v1/access"
)

// Translated errors. The constraint sentinels are GORM's and
// ErrRecordNotFound is the access package's, so they match the postgres
// provider's sentinels.
var (
	ErrRecordNotFound  = access.ErrRecordNotFound
	ErrDuplicateKey    = gorm.ErrDuplicatedKey
	ErrForeignKey      = gorm.ErrForeignKeyViolated
	ErrCheckConstraint = gorm.ErrCheckConstraintViolated
	ErrInvalidData     = gorm.ErrInvalidData

	// ErrConnection is returned when the server cannot be reached or dropped the connection.
	ErrConnection = errors.New("connection failed")

	// ErrDeadlock is returned when the server rolled back a transaction to break a deadlock.
	ErrDeadlock = errors.New("deadlock detected")

	// ErrTimeout is returned when a lock wait or statement ran out of time.
	ErrTimeout = errors.New("timeout")

	// ErrTooManyConnections is returned when the server refused a connection.
	ErrTooManyConnections = errors.New("too many connections")

	// ErrPermission is returned when the user lacks a privilege.
	ErrPermission = errors.New("access denied")

	// ErrUndefinedObject is returned for a missing database, table, column or routine.
	ErrUndefinedObject = errors.New("undefined object")

	// ErrSyntax is returned for malformed SQL.
	ErrSyntax = errors.New("syntax error")
)

// ErrorCategory groups translated errors by how callers should react.
type ErrorCategory int

const (
	CategoryUnknown ErrorCategory = iota
	CategoryNotFound
	CategoryConstraint
	CategoryData
	CategoryConnection
	CategoryConcurrency
	CategoryTimeout
	CategoryResource
	CategoryPermission
	CategorySchema
)

// sentinelForNumber maps a server error number to a sentinel.
func sentinelForNumber(n uint16) error {
	switch n {
	case 1062, 1586:
		return ErrDuplicateKey
	case 1216, 1217, 1451, 1452:
		return ErrForeignKey
	case 3819:
		return ErrCheckConstraint
	case 1048, 1264, 1292, 1364, 1366, 1406:
		return ErrInvalidData
	case 1213:
		return ErrDeadlock
	case 1205, 3024:
		return ErrTimeout
	case 1040, 1203:
		return ErrTooManyConnections
	case 1053, 1927, 2006, 2013:
		return ErrConnection
	case 1044, 1045, 1142, 1143:
		return ErrPermission
	case 1049, 1054, 1146, 1305:
		return ErrUndefinedObject
	case 1064:
		return ErrSyntax
	}
	return nil
}

// TranslateError maps driver and GORM errors to the sentinels of this
// package. The original error stays in the chain; errors that match nothing
// are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		sentinel := sentinelForNumber(myErr.Number)
		if sentinel == nil || errors.Is(err, sentinel) {
			return err
		}
		return fmt.Errorf("%w: %w", sentinel, err)
	}

	switch {
	case errors.Is(err, ErrRecordNotFound):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %w", ErrRecordNotFound, err)
	case errors.Is(err, mysql.ErrInvalidConn), errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return fmt.Errorf("%w: %w", ErrConnection, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

// GetErrorCategory returns the category of err after translation.
func GetErrorCategory(err error) ErrorCategory {
	err = TranslateError(err)
	switch {
	case err == nil:
		return CategoryUnknown
	case errors.Is(err, ErrRecordNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrDuplicateKey), errors.Is(err, ErrForeignKey), errors.Is(err, ErrCheckConstraint):
		return CategoryConstraint
	case errors.Is(err, ErrInvalidData):
		return CategoryData
	case errors.Is(err, ErrConnection):
		return CategoryConnection
	case errors.Is(err, ErrDeadlock):
		return CategoryConcurrency
	case errors.Is(err, ErrTimeout):
		return CategoryTimeout
	case errors.Is(err, ErrTooManyConnections):
		return CategoryResource
	case errors.Is(err, ErrPermission):
		return CategoryPermission
	case errors.Is(err, ErrUndefinedObject), errors.Is(err, ErrSyntax):
		return CategorySchema
	default:
		return CategoryUnknown
	}
}

// IsRetryable reports whether running the same statement again may succeed.
func IsRetryable(err error) bool {
	switch GetErrorCategory(err) {
	case CategoryConnection, CategoryConcurrency:
		return true
	default:
		return false
	}
}

// IsTemporary reports whether err is expected to clear without intervention.
func IsTemporary(err error) bool {
	switch GetErrorCategory(err) {
	case CategoryConnection, CategoryConcurrency, CategoryTimeout, CategoryResource:
		return true
	default:
		return false
	}
}

// IsCritical reports whether err points at a deployment problem.
func IsCritical(err error) bool {
	switch GetErrorCategory(err) {
	case CategoryPermission, CategorySchema:
		return true
	default:
		return false
	}
}

func (m *MariaDB) TranslateError(err error) error           { return TranslateError(err) }
func (m *MariaDB) GetErrorCategory(err error) ErrorCategory { return GetErrorCategory(err) }
func (m *MariaDB) IsRetryable(err error) bool               { return IsRetryable(err) }
func (m *MariaDB) IsTemporary(err error) bool               { return IsTemporary(err) }
func (m *MariaDB) IsCritical(err error) bool                { return IsCritical(err) }
