package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/dbaccess/v1/access"
)

// Translated errors. The constraint sentinels are GORM's, so code written
// against GORM and code written against this package test for the same
// values; ErrRecordNotFound is the access package's.
var (
	ErrRecordNotFound  = access.ErrRecordNotFound
	ErrDuplicateKey    = gorm.ErrDuplicatedKey
	ErrForeignKey      = gorm.ErrForeignKeyViolated
	ErrCheckConstraint = gorm.ErrCheckConstraintViolated
	ErrInvalidData     = gorm.ErrInvalidData

	// ErrConnection is returned when the server cannot be reached or dropped the connection.
	ErrConnection = errors.New("connection failed")

	// ErrSerialization is returned when a transaction lost a serialization conflict.
	ErrSerialization = errors.New("serialization failure")

	// ErrDeadlock is returned when the server aborted a statement to break a deadlock.
	ErrDeadlock = errors.New("deadlock detected")

	// ErrTimeout is returned when a statement or lock wait was cancelled by a timeout.
	ErrTimeout = errors.New("timeout")

	// ErrTooManyConnections is returned when the server refused a connection.
	ErrTooManyConnections = errors.New("too many connections")

	// ErrPermission is returned when the role lacks a privilege.
	ErrPermission = errors.New("insufficient privilege")

	// ErrUndefinedObject is returned for a missing table, column or function.
	ErrUndefinedObject = errors.New("undefined object")

	// ErrSyntax is returned for malformed SQL.
	ErrSyntax = errors.New("syntax error")

	// ErrUnsupportedDriver is returned for an unknown Config.Driver.
	ErrUnsupportedDriver = errors.New("unsupported postgres driver")
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

// sqlState returns the SQLSTATE of a pgx or lib/pq error.
func sqlState(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}
	return "", false
}

// sentinelForState maps a SQLSTATE to a sentinel.
func sentinelForState(code string) error {
	switch {
	case code == "23505":
		return ErrDuplicateKey
	case code == "23503":
		return ErrForeignKey
	case code == "23514":
		return ErrCheckConstraint
	case code == "23502", strings.HasPrefix(code, "22"):
		return ErrInvalidData
	case code == "40001":
		return ErrSerialization
	case code == "40P01":
		return ErrDeadlock
	case code == "57014", code == "55P03":
		return ErrTimeout
	case code == "53300":
		return ErrTooManyConnections
	case strings.HasPrefix(code, "08"), code == "57P01", code == "57P02", code == "57P03":
		return ErrConnection
	case code == "42501":
		return ErrPermission
	case code == "42P01", code == "42703", code == "42883", code == "3F000":
		return ErrUndefinedObject
	case code == "42601":
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
	if code, ok := sqlState(err); ok {
		if sentinel := sentinelForState(code); sentinel != nil {
			if errors.Is(err, sentinel) {
				return err
			}
			return fmt.Errorf("%w: %w", sentinel, err)
		}
		return err
	}

	switch {
	case errors.Is(err, ErrRecordNotFound):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %w", ErrRecordNotFound, err)
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
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
	case errors.Is(err, ErrSerialization), errors.Is(err, ErrDeadlock):
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

// IsCritical reports whether err points at a deployment problem: missing
// privileges or schema objects, or malformed SQL.
func IsCritical(err error) bool {
	switch GetErrorCategory(err) {
	case CategoryPermission, CategorySchema:
		return true
	default:
		return false
	}
}

// TranslateError is TranslateError bound to the provider.
func (p *Postgres) TranslateError(err error) error { return TranslateError(err) }

// IsRetryable is IsRetryable bound to the provider.
func (p *Postgres) IsRetryable(err error) bool { return IsRetryable(err) }

// IsTemporary is IsTemporary bound to the provider.
func (p *Postgres) IsTemporary(err error) bool { return IsTemporary(err) }

// IsCritical is IsCritical bound to the provider.
func (p *Postgres) IsCritical(err error) bool { return IsCritical(err) }
